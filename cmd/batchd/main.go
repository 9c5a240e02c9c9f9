// Command batchd runs the confidential batch-decryption ledger daemon.
//
// The daemon owns a single ledger instance and exposes its operations
// over HTTP: signed admin endpoints for the owner, a signed submission
// endpoint for providers, an unauthenticated proof-secured callback for
// the oracle, and public read endpoints.
//
// # Oracle
//
// With --oracle-url the daemon dispatches decryption requests to a
// remote oracle service and expects answers on /oracle/result. Without
// it an in-process oracle is used; suitable only for demos since
// handles minted elsewhere are unknown to it.
//
// # Persistence
//
// With --db-host results are persisted to PostgreSQL; otherwise an
// in-memory store is used.
//
// # Usage
//
//	go run ./cmd/batchd --addr=:8080 --owner-key=<hex> --instance-label=prod \
//	    --oracle-url=http://oracle:9000 --public-url=http://ledger:8080 \
//	    --db-host=localhost --db-user=ledger --db-name=batches
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/cmd/common"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/oracle"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/services"
)

func main() {
	var (
		addr            = flag.String("addr", ":8080", "HTTP listen address")
		publicURL       = flag.String("public-url", "http://localhost:8080", "Public base URL for oracle callbacks")
		instanceLabel   = flag.String("instance-label", "dev", "Label mixed into the ledger's instance identity")
		ownerKeyHex     = flag.String("owner-key", "", "Owner Ed25519 public key (hex, derived from a generated key if empty)")
		oracleKeyHex    = flag.String("oracle-key", "", "Oracle Ed25519 public key (hex, required with --oracle-url)")
		oracleURL       = flag.String("oracle-url", "", "Remote oracle service URL (in-process oracle if empty)")
		cooldownSecs    = flag.Uint64("cooldown", 30, "Cooldown window in seconds")
		measurementsURL = flag.String("measurements-url", "", "URL for allowed oracle measurements")
		useTDX          = flag.Bool("tdx", false, "Use real TDX attestation for oracle registration")
		remoteTDXURL    = flag.String("tdx-url", "", "Remote TDX attestation service URL")
		dbHost          = flag.String("db-host", "", "PostgreSQL host (in-memory store if empty)")
		dbPort          = flag.Int("db-port", 5432, "PostgreSQL port")
		dbUser          = flag.String("db-user", "ledger", "PostgreSQL user")
		dbPassword      = flag.String("db-password", "", "PostgreSQL password")
		dbName          = flag.String("db-name", "batches", "PostgreSQL database name")
		dbSSLMode       = flag.String("db-sslmode", "", "PostgreSQL SSL mode")
	)
	flag.Parse()

	owner, err := resolveOwner(*ownerKeyHex)
	if err != nil {
		fmt.Printf("Owner key error: %v\n", err)
		os.Exit(1)
	}

	decryptionOracle, oraclePub, err := buildOracle(*oracleURL, *oracleKeyHex, *publicURL)
	if err != nil {
		fmt.Printf("Oracle setup error: %v\n", err)
		os.Exit(1)
	}

	proto, err := protocol.New(protocol.Config{
		InstanceID:      protocol.DeriveInstanceID(*instanceLabel, owner),
		Owner:           owner,
		OraclePublicKey: oraclePub,
		Cooldown:        time.Duration(*cooldownSecs) * time.Second,
	}, decryptionOracle)
	if err != nil {
		fmt.Printf("Ledger setup error: %v\n", err)
		os.Exit(1)
	}

	if local, ok := decryptionOracle.(*oracle.LocalOracle); ok {
		local.SetCallback(proto.HandleDecryptionResult)
	}

	store, err := buildStore(*dbHost, *dbPort, *dbUser, *dbPassword, *dbName, *dbSSLMode)
	if err != nil {
		fmt.Printf("Store setup error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	gateway, err := services.NewGateway(&services.GatewayConfig{
		Protocol:            proto,
		Store:               store,
		AttestationProvider: common.NewAttestationProvider(*useTDX, *remoteTDXURL),
		MeasurementSource:   common.NewMeasurementSource(*measurementsURL),
	})
	if err != nil {
		fmt.Printf("Gateway setup error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services.NewRecorder(proto, store).Start(ctx)

	r := chi.NewRouter()
	gateway.RegisterRoutes(r)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		instanceID := proto.InstanceID()
		fmt.Printf("Ledger instance %s\n", hex.EncodeToString(instanceID[:]))
		fmt.Printf("Owner %s\n", owner.String())
		fmt.Printf("Listening on %s\n", *addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	fmt.Println("Shutting down ledger...")
	cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Shutdown error: %v\n", err)
	}
}

func resolveOwner(ownerKeyHex string) (crypto.PublicKey, error) {
	if ownerKeyHex != "" {
		return common.LoadPublicKey(ownerKeyHex)
	}

	// No owner configured; generate one and print the private key so a
	// demo operator can drive the admin endpoints.
	ownerPub, ownerPriv, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	fmt.Printf("Generated owner key: %s\n", hex.EncodeToString(ownerPriv.Bytes()))
	return ownerPub, nil
}

func buildOracle(oracleURL, oracleKeyHex, publicURL string) (protocol.DecryptionOracle, crypto.PublicKey, error) {
	if oracleURL != "" {
		oraclePub, err := common.LoadPublicKey(oracleKeyHex)
		if err != nil {
			return nil, nil, fmt.Errorf("--oracle-key is required with --oracle-url: %w", err)
		}
		return services.NewHTTPOracle(oracleURL, publicURL+"/oracle/result"), oraclePub, nil
	}

	_, oracleKey, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	local := oracle.NewLocalOracle(oracleKey)
	oraclePub, err := local.PublicKey()
	if err != nil {
		return nil, nil, err
	}
	return local, oraclePub, nil
}

func buildStore(host string, port int, user, password, name, sslMode string) (services.ResultStore, error) {
	if host == "" {
		return services.NewInMemoryStore(), nil
	}
	return services.NewPostgresStore(&services.PostgresConfig{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		Database: name,
		SSLMode:  sslMode,
	})
}
