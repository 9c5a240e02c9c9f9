// Package crypto provides the cryptographic primitives used by the
// confidential batch-decryption ledger.
//
// It covers three concerns:
//
//   - Digital signatures (Ed25519) for authenticating callers and for the
//     oracle's result proofs. Public keys double as actor identities.
//   - Opaque ciphertext handles: 32-byte references to encrypted values
//     held by the external decryption oracle. The ledger never inspects
//     the underlying plaintext.
//   - Keccak-256 hashing, used for commitment digests over ordered handle
//     sets and for the payloads the oracle signs.
//
// All keys and handles include helper methods for serialization and
// comparison.
package crypto
