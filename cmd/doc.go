// Package cmd provides CLI commands for the batch-decryption ledger.
//
// # Commands
//
// batchd: Runs the ledger daemon. Exposes every ledger operation over
// HTTP, persists results to PostgreSQL or in memory, and talks to an
// in-process or remote decryption oracle.
//
//	go run ./cmd/batchd --addr=:8080 --instance-label=mainnet
//	go run ./cmd/batchd --oracle-url=http://oracle:9000 --db-host=localhost
//
// demo-cli: Runs a complete in-process round trip: opens a batch,
// submits encrypted pairs, requests decryption and prints the decoded
// results.
//
//	go run ./cmd/demo-cli --submissions=5
package cmd
