package protocol

import (
	"context"
	"fmt"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
)

// DecryptionContext records a pending oracle request: the batch it was
// issued against and the commitment digest frozen at request time.
// Created by RequestDecryption; mutated exactly once, either to
// Processed by a fully verified answer or to Rejected by a failed
// integrity gate. Never deleted or reused for another batch.
type DecryptionContext struct {
	RequestID    string                  `json:"request_id"`
	BatchID      uint64                  `json:"batch_id"`
	FrozenDigest [crypto.DigestSize]byte `json:"frozen_digest"`
	Processed    bool                    `json:"processed"`
	Rejected     bool                    `json:"rejected"`
}

// RequestDecryption freezes the batch's commitment digest and
// dispatches an asynchronous decryption request for its full ordered
// ciphertext list. Owner-only, rejected while paused, subject to the
// decryption-request cooldown; a batch with zero submissions cannot be
// meaningfully decrypted. Returns the oracle-assigned request id.
func (p *Protocol) RequestDecryption(ctx context.Context, caller crypto.PublicKey, batchID uint64) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOwner(caller); err != nil {
		return "", err
	}
	if err := p.requireUnpaused(); err != nil {
		return "", err
	}
	if err := p.checkCooldown(caller, decryptAction); err != nil {
		return "", err
	}
	if len(p.submissions[batchID]) == 0 {
		return "", ErrBatchClosedOrInvalid
	}

	frozen := p.batchDigest(batchID)
	requestID, err := p.oracle.Decrypt(ctx, p.orderedHandles(batchID))
	if err != nil {
		return "", fmt.Errorf("dispatching decryption request: %w", err)
	}
	if _, exists := p.contexts[requestID]; exists {
		return "", ErrDuplicateRequestID
	}

	p.contexts[requestID] = &DecryptionContext{
		RequestID:    requestID,
		BatchID:      batchID,
		FrozenDigest: frozen,
	}
	p.recordAction(caller, decryptAction)
	p.emit(DecryptionRequested{RequestID: requestID, BatchID: batchID})
	return requestID, nil
}

// HandleDecryptionResult processes the oracle's asynchronous answer.
// The entry point itself is unauthenticated by design: what matters is
// the authenticity of the answer, proven by the oracle's signature, not
// the identity of the transport delivering it.
//
// Five hard gates run in order, atomically:
//
//  1. Replay: the context must exist and be neither processed nor
//     rejected.
//  2. Digest recheck: the batch's current digest must equal the frozen
//     one; any submission accepted since the request invalidates it.
//  3. Proof: the signature must authenticate the cleartexts for this
//     request id under the oracle's key.
//  4. Decode: strict fixed-width parsing of the cleartext buffer.
//  5. The context is marked processed and the decoded results are
//     published.
//
// A failure at gate 2, 3 or 4 terminally rejects the context: the
// answer for this request id can never be accepted afterwards, and only
// a brand-new request against the now-current state can succeed.
func (p *Protocol) HandleDecryptionResult(requestID string, cleartexts []byte, proof crypto.Signature) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	dctx, ok := p.contexts[requestID]
	if !ok || dctx.Processed || dctx.Rejected {
		return ErrReplayDetected
	}

	if p.batchDigest(dctx.BatchID) != dctx.FrozenDigest {
		return p.rejectResult(dctx, ErrStateMismatch)
	}

	if !proof.Verify(p.config.OraclePublicKey, ResultSigningPayload(requestID, cleartexts)) {
		return p.rejectResult(dctx, ErrInvalidProof)
	}

	values, err := DecodeCleartexts(cleartexts, len(p.submissions[dctx.BatchID]))
	if err != nil {
		return p.rejectResult(dctx, err)
	}

	deltas := make([]int64, len(values))
	flags := make([]bool, len(values))
	for i, v := range values {
		deltas[i] = v.Delta
		flags[i] = v.Malicious
	}

	dctx.Processed = true
	p.emit(DecryptionCompleted{
		RequestID:      requestID,
		BatchID:        dctx.BatchID,
		Deltas:         deltas,
		MaliciousFlags: flags,
	})
	return nil
}

// rejectResult moves a context to its terminal rejected state.
// Callers hold p.mu.
func (p *Protocol) rejectResult(dctx *DecryptionContext, reason error) error {
	dctx.Rejected = true
	p.emit(DecryptionRejected{RequestID: dctx.RequestID, BatchID: dctx.BatchID, Reason: reason})
	return reason
}

// Request returns a copy of the decryption context for a request id.
func (p *Protocol) Request(requestID string) (DecryptionContext, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	dctx, ok := p.contexts[requestID]
	if !ok {
		return DecryptionContext{}, false
	}
	return *dctx, true
}

// PendingRequests returns the number of requests awaiting an answer.
func (p *Protocol) PendingRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for _, dctx := range p.contexts {
		if !dctx.Processed && !dctx.Rejected {
			count++
		}
	}
	return count
}
