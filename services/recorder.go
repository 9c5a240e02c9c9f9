package services

import (
	"context"
	"log"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
)

// Recorder drains the ledger's event feed into a ResultStore. Accepted
// submissions and settled decryption requests are persisted as they
// happen; store failures are logged and skipped, never fed back into
// the ledger.
type Recorder struct {
	proto *protocol.Protocol
	store ResultStore
}

// NewRecorder creates a recorder bridging the ledger to the store.
func NewRecorder(proto *protocol.Protocol, store ResultStore) *Recorder {
	return &Recorder{proto: proto, store: store}
}

// Start subscribes to the ledger's event feed and begins persisting in
// the background until ctx is done. The subscription happens before
// Start returns, so events emitted afterwards are not missed.
func (r *Recorder) Start(ctx context.Context) {
	events := r.proto.SubscribeEvents(ctx)
	go r.run(ctx, events)
}

func (r *Recorder) run(ctx context.Context, events <-chan protocol.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.record(ev)
		}
	}
}

func (r *Recorder) record(ev protocol.Event) {
	switch e := ev.(type) {
	case protocol.SubmissionAccepted:
		subs := r.proto.Submissions(e.BatchID)
		if e.Index >= len(subs) {
			log.Printf("recorder: submission %d/%d not found", e.BatchID, e.Index)
			return
		}
		if err := r.store.SaveSubmission(subs[e.Index]); err != nil {
			log.Printf("recorder: saving submission %d/%d: %v", e.BatchID, e.Index, err)
		}

	case protocol.DecryptionCompleted:
		record := &DecryptionRecord{
			RequestID:      e.RequestID,
			BatchID:        e.BatchID,
			Deltas:         e.Deltas,
			MaliciousFlags: e.MaliciousFlags,
		}
		if err := r.store.SaveDecryption(record); err != nil {
			log.Printf("recorder: saving decryption %s: %v", e.RequestID, err)
		}

	case protocol.DecryptionRejected:
		record := &DecryptionRecord{
			RequestID: e.RequestID,
			BatchID:   e.BatchID,
			Rejected:  true,
			Reason:    e.Reason.Error(),
		}
		if err := r.store.SaveDecryption(record); err != nil {
			log.Printf("recorder: saving rejection %s: %v", e.RequestID, err)
		}
	}
}
