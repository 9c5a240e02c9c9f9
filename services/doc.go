// Package services provides the deployment surface around the ledger:
// an HTTP gateway exposing every ledger operation, result persistence
// (PostgreSQL or in-memory), an event recorder bridging the ledger's
// feed into the store, attestation plumbing for verifying the
// confidential-compute oracle, and an HTTP client for dispatching
// decryption requests to a remote oracle service.
package services
