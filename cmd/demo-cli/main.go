// Command demo-cli runs a complete in-process ledger round trip and
// prints every step: it generates owner, provider and oracle keys,
// opens a batch, submits encrypted reputation pairs, requests an
// asynchronous decryption and delivers the oracle's signed answer.
//
// No network or database is involved; the point is to show the full
// submission-to-decryption flow and the commitment digest freezing
// along the way.
//
// # Usage
//
//	go run ./cmd/demo-cli --submissions=5 --cooldown=100ms
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/oracle"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
)

func main() {
	var (
		submissions = flag.Int("submissions", 3, "Number of encrypted pairs to submit")
		cooldown    = flag.Duration("cooldown", time.Second, "Cooldown window between rate-limited actions")
	)
	flag.Parse()

	if err := run(*submissions, *cooldown); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(submissions int, cooldown time.Duration) error {
	ownerPub, _, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	providerPub, _, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	_, oracleKey, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}

	orc := oracle.NewLocalOracle(oracleKey)
	oraclePub, err := orc.PublicKey()
	if err != nil {
		return err
	}

	proto, err := protocol.New(protocol.Config{
		InstanceID:      protocol.DeriveInstanceID("demo", ownerPub),
		Owner:           ownerPub,
		OraclePublicKey: oraclePub,
		Cooldown:        cooldown,
	}, orc)
	if err != nil {
		return err
	}
	orc.SetCallback(proto.HandleDecryptionResult)

	instanceID := proto.InstanceID()
	fmt.Printf("Ledger instance  %s\n", hex.EncodeToString(instanceID[:]))
	fmt.Printf("Owner            %s\n", ownerPub.String())
	fmt.Printf("Provider         %s\n", providerPub.String())
	fmt.Printf("Oracle           %s\n\n", oraclePub.String())

	events := proto.SubscribeEvents(context.Background())
	go printEvents(events)

	if err := proto.AddProvider(ownerPub, providerPub); err != nil {
		return err
	}

	batchID, err := proto.OpenBatch(ownerPub)
	if err != nil {
		return err
	}

	for i := 0; i < submissions; i++ {
		delta := rand.Int63n(201) - 100
		malicious := rand.Intn(4) == 0

		deltaHandle, err := orc.EncryptDelta(delta)
		if err != nil {
			return err
		}
		flagHandle, err := orc.EncryptFlag(malicious)
		if err != nil {
			return err
		}

		index, err := proto.Submit(providerPub, batchID, deltaHandle, flagHandle)
		if err != nil {
			return err
		}
		fmt.Printf("Submitted pair %d: delta=%d malicious=%v\n", index, delta, malicious)

		time.Sleep(cooldown)
	}

	digest := proto.BatchDigest(batchID)
	fmt.Printf("\nBatch %d digest  %s\n", batchID, hex.EncodeToString(digest[:]))

	if _, err := proto.CloseBatch(ownerPub); err != nil {
		return err
	}

	requestID, err := proto.RequestDecryption(context.Background(), ownerPub, batchID)
	if err != nil {
		return err
	}
	fmt.Printf("Decryption requested: %s\n\n", requestID)

	if err := orc.Deliver(requestID); err != nil {
		return err
	}

	// A second delivery of the same answer must bounce.
	if err := orc.Deliver(requestID); err != nil {
		fmt.Printf("Replayed answer rejected: %v\n", err)
	}

	// Give the event printer a moment to drain.
	time.Sleep(100 * time.Millisecond)
	return nil
}

func printEvents(events <-chan protocol.Event) {
	for ev := range events {
		switch e := ev.(type) {
		case protocol.DecryptionCompleted:
			fmt.Printf("Decryption completed for batch %d:\n", e.BatchID)
			for i := range e.Deltas {
				fmt.Printf("  submission %d: delta=%d malicious=%v\n", i, e.Deltas[i], e.MaliciousFlags[i])
			}
		case protocol.DecryptionRejected:
			fmt.Printf("Decryption rejected for batch %d: %v\n", e.BatchID, e.Reason)
		}
	}
}
