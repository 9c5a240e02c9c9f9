package protocol

import (
	"context"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
)

// DecryptionOracle is the external confidential-compute service trusted
// to decrypt ciphertext handles and to sign its answers.
//
// The oracle interaction is one-shot message passing: Decrypt dispatches
// a request and returns immediately with the oracle-assigned request id;
// the cleartexts arrive at an arbitrary later point through
// Protocol.HandleDecryptionResult. No ordering between dispatch and
// answer is assumed beyond what the digest recheck enforces.
type DecryptionOracle interface {
	// Decrypt dispatches an asynchronous decryption request for the
	// ordered handle list. The returned request id is assumed globally
	// unique; the ledger has no control over its value.
	Decrypt(ctx context.Context, handles []crypto.CiphertextHandle) (string, error)
}
