package protocol

import (
	"context"
	"time"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
)

// EventKind identifies an event type on the ledger's feed.
type EventKind string

const (
	EventOwnershipTransferred EventKind = "ownership_transferred"
	EventProviderAdded        EventKind = "provider_added"
	EventProviderRemoved      EventKind = "provider_removed"
	EventPaused               EventKind = "paused"
	EventUnpaused             EventKind = "unpaused"
	EventCooldownChanged      EventKind = "cooldown_changed"
	EventBatchOpened          EventKind = "batch_opened"
	EventBatchClosed          EventKind = "batch_closed"
	EventSubmissionAccepted   EventKind = "submission_accepted"
	EventDecryptionRequested  EventKind = "decryption_requested"
	EventDecryptionCompleted  EventKind = "decryption_completed"
	EventDecryptionRejected   EventKind = "decryption_rejected"
)

// Event is a state change published on the ledger's feed. Events are
// emitted only after the corresponding operation has fully succeeded
// (rejection events after the rejection has been recorded), so a
// consumer never observes partial state.
type Event interface {
	Kind() EventKind
}

// OwnershipTransferred reports an owner change.
type OwnershipTransferred struct {
	Previous crypto.PublicKey
	Owner    crypto.PublicKey
}

func (OwnershipTransferred) Kind() EventKind { return EventOwnershipTransferred }

// ProviderAdded reports a new provider. Emitted at most once per
// identity; idempotent re-adds emit nothing.
type ProviderAdded struct {
	Provider crypto.PublicKey
}

func (ProviderAdded) Kind() EventKind { return EventProviderAdded }

// ProviderRemoved reports a provider removal.
type ProviderRemoved struct {
	Provider crypto.PublicKey
}

func (ProviderRemoved) Kind() EventKind { return EventProviderRemoved }

// Paused reports that writes are suspended.
type Paused struct{}

func (Paused) Kind() EventKind { return EventPaused }

// Unpaused reports that writes are resumed.
type Unpaused struct{}

func (Unpaused) Kind() EventKind { return EventUnpaused }

// CooldownChanged reports a new cooldown window.
type CooldownChanged struct {
	Cooldown time.Duration
}

func (CooldownChanged) Kind() EventKind { return EventCooldownChanged }

// BatchOpened reports a newly opened batch.
type BatchOpened struct {
	BatchID uint64
}

func (BatchOpened) Kind() EventKind { return EventBatchOpened }

// BatchClosed reports a closed batch.
type BatchClosed struct {
	BatchID uint64
}

func (BatchClosed) Kind() EventKind { return EventBatchClosed }

// SubmissionAccepted reports an accepted ciphertext pair.
type SubmissionAccepted struct {
	BatchID  uint64
	Index    int
	Provider crypto.PublicKey
}

func (SubmissionAccepted) Kind() EventKind { return EventSubmissionAccepted }

// DecryptionRequested reports a dispatched oracle request.
type DecryptionRequested struct {
	RequestID string
	BatchID   uint64
}

func (DecryptionRequested) Kind() EventKind { return EventDecryptionRequested }

// DecryptionCompleted publishes the decoded batch results, in
// submission order.
type DecryptionCompleted struct {
	RequestID      string
	BatchID        uint64
	Deltas         []int64
	MaliciousFlags []bool
}

func (DecryptionCompleted) Kind() EventKind { return EventDecryptionCompleted }

// DecryptionRejected reports a terminally rejected request. Reason is
// one of ErrStateMismatch, ErrInvalidProof, ErrCleartextLength or
// ErrCleartextFlag, letting operators tell "state moved after request"
// apart from "oracle answer was bad".
type DecryptionRejected struct {
	RequestID string
	BatchID   uint64
	Reason    error
}

func (DecryptionRejected) Kind() EventKind { return EventDecryptionRejected }

type subscriber struct {
	ctx context.Context
	ch  chan Event
}

// SubscribeEvents returns a channel receiving ledger events until ctx is
// done. The channel is buffered; a slow consumer that fills its buffer
// misses events rather than blocking the ledger.
func (p *Protocol) SubscribeEvents(ctx context.Context) <-chan Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan Event, 64)
	p.subscribers = append(p.subscribers, subscriber{ctx, ch})
	return ch
}

// emit delivers an event to all live subscribers. Callers hold p.mu.
func (p *Protocol) emit(ev Event) {
	kept := p.subscribers[:0]
	for _, sub := range p.subscribers {
		select {
		case <-sub.ctx.Done():
			close(sub.ch)
			continue
		default:
		}

		select {
		case sub.ch <- ev:
		default:
			// Buffer full; drop the event for this subscriber.
		}
		kept = append(kept, sub)
	}
	p.subscribers = kept
}
