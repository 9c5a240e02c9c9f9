// Package oracle provides decryption oracle implementations for the
// batch-decryption ledger.
//
// The production oracle is an external confidential-compute service
// reachable over HTTP (see services.HTTPOracle). This package supplies
// LocalOracle, an in-process stand-in used by tests, demos and
// single-node deployments: it mints ciphertext handles for plaintext
// values, queues decryption requests, and on delivery encodes the
// cleartext buffer and signs the proof exactly as the real oracle
// would. Delivery is decoupled from the request so tests can interleave
// ledger operations between dispatch and answer.
package oracle
