package protocol

import (
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
)

// Batch is a numbered round that accumulates encrypted submissions
// until closed and is later decrypted as a unit. Batches are never
// deleted; a closed batch rejects new submissions but stays eligible
// for decryption as long as it holds at least one submission.
type Batch struct {
	ID              uint64 `json:"id"`
	Open            bool   `json:"open"`
	SubmissionCount int    `json:"submission_count"`
}

// Submission is one accepted ciphertext pair: an encrypted reputation
// delta and an encrypted malicious flag. Immutable once appended; index
// assignment within a batch is sequential and gapless.
type Submission struct {
	BatchID     uint64                  `json:"batch_id"`
	Index       int                     `json:"index"`
	Provider    crypto.PublicKey        `json:"provider"`
	DeltaHandle crypto.CiphertextHandle `json:"delta_handle"`
	FlagHandle  crypto.CiphertextHandle `json:"flag_handle"`
}

// batch returns the batch record for an id, or nil. Callers hold p.mu.
func (p *Protocol) batch(batchID uint64) *Batch {
	if batchID == 0 || batchID > uint64(len(p.batches)) {
		return nil
	}
	return p.batches[batchID-1]
}

// OpenBatch allocates the next sequential batch id and marks it open.
// Owner-only, rejected while paused. Prior batches are left untouched.
func (p *Protocol) OpenBatch(caller crypto.PublicKey) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOwner(caller); err != nil {
		return 0, err
	}
	if err := p.requireUnpaused(); err != nil {
		return 0, err
	}

	id := uint64(len(p.batches)) + 1
	p.batches = append(p.batches, &Batch{ID: id, Open: true})
	p.emit(BatchOpened{BatchID: id})
	return id, nil
}

// CloseBatch closes the most recent batch. Owner-only, rejected while
// paused; the batch must currently be open. Submissions are not purged
// on close.
func (p *Protocol) CloseBatch(caller crypto.PublicKey) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOwner(caller); err != nil {
		return 0, err
	}
	if err := p.requireUnpaused(); err != nil {
		return 0, err
	}

	if len(p.batches) == 0 {
		return 0, ErrBatchClosedOrInvalid
	}
	b := p.batches[len(p.batches)-1]
	if !b.Open {
		return 0, ErrBatchClosedOrInvalid
	}

	b.Open = false
	p.emit(BatchClosed{BatchID: b.ID})
	return b.ID, nil
}

// Submit appends a ciphertext pair to an open batch at the next
// sequential index. Provider-only, rejected while paused, subject to
// the submission cooldown. The cooldown timestamp is recorded only
// after every check has passed, so a rejected call never consumes the
// caller's window.
func (p *Protocol) Submit(caller crypto.PublicKey, batchID uint64, deltaHandle, flagHandle crypto.CiphertextHandle) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireProvider(caller); err != nil {
		return 0, err
	}
	if err := p.requireUnpaused(); err != nil {
		return 0, err
	}
	if err := p.checkCooldown(caller, submitAction); err != nil {
		return 0, err
	}

	b := p.batch(batchID)
	if b == nil || !b.Open {
		return 0, ErrBatchClosedOrInvalid
	}

	index := len(p.submissions[batchID])
	p.submissions[batchID] = append(p.submissions[batchID], Submission{
		BatchID:     batchID,
		Index:       index,
		Provider:    crypto.NewPublicKeyFromBytes(caller),
		DeltaHandle: deltaHandle,
		FlagHandle:  flagHandle,
	})
	b.SubmissionCount++
	p.recordAction(caller, submitAction)
	p.emit(SubmissionAccepted{BatchID: batchID, Index: index, Provider: p.submissions[batchID][index].Provider})
	return index, nil
}

// Batch returns a copy of the batch record.
func (p *Protocol) Batch(batchID uint64) (Batch, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := p.batch(batchID)
	if b == nil {
		return Batch{}, false
	}
	return *b, true
}

// CurrentBatchID returns the most recently opened batch id, if any.
func (p *Protocol) CurrentBatchID() (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.batches) == 0 {
		return 0, false
	}
	return p.batches[len(p.batches)-1].ID, true
}

// BatchCount returns the number of batches ever opened.
func (p *Protocol) BatchCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

// Submissions returns a copy of the batch's ordered submission list.
func (p *Protocol) Submissions(batchID uint64) []Submission {
	p.mu.Lock()
	defer p.mu.Unlock()

	subs := p.submissions[batchID]
	out := make([]Submission, len(subs))
	copy(out, subs)
	return out
}

// SubmissionCount returns the number of submissions in a batch.
func (p *Protocol) SubmissionCount(batchID uint64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.submissions[batchID])
}
