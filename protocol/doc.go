// Package protocol implements the confidential batch-decryption ledger:
// a state machine that collects encrypted per-provider contributions in
// numbered batches and later asks an external decryption oracle to
// reveal the batch contents, accepting the answer only if it provably
// corresponds to the batch's ciphertext set at the moment the request
// was issued.
//
// # Roles and gating
//
// Every operation is gated by composable guard checks at its entry:
//
//   - Owner: a single transferable identity that manages providers,
//     the pause flag, the cooldown window, batch lifecycle and
//     decryption requests.
//   - Providers: an allow-list of identities permitted to submit
//     encrypted (reputation delta, malicious flag) ciphertext pairs.
//   - Cooldown: a minimum spacing between an actor's successive
//     rate-limited actions, tracked independently per action class
//     (submission vs. decryption request) and recorded only after a
//     gated action fully succeeds.
//   - Pause: while paused, every write except Unpause is rejected.
//
// # Batches and commitments
//
// Batches carry append-only, gaplessly indexed submission lists. When a
// decryption is requested the ledger freezes a commitment digest:
// Keccak-256 over the batch's ordered ciphertext handles plus the
// protocol instance identity. The digest is recomputed when the oracle
// answers; any submission accepted in between changes it and invalidates
// the pending request.
//
// # The decryption bridge
//
// RequestDecryption dispatches the ordered handle list to the oracle and
// records a DecryptionContext keyed by the oracle-assigned request id.
// HandleDecryptionResult processes the asynchronous answer behind five
// hard gates: replay detection, digest recheck, proof verification,
// strict fixed-width decoding, and exactly-once processed marking. A
// request that fails the digest, proof or decode gate is terminally
// rejected; only a brand-new request against the current state can
// succeed afterwards.
//
// Each operation executes to completion under a single mutex, giving the
// serialized, total-order semantics of a single-writer ledger. The only
// concurrency is temporal: the oracle's callback arrives at an arbitrary
// later point, as an independent unit of work.
package protocol
