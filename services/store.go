package services

import (
	"sync"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
)

// DecryptionRecord is one persisted decryption outcome. Completed
// requests carry the decoded values in submission order; rejected
// requests carry the rejection reason instead.
type DecryptionRecord struct {
	RequestID      string  `json:"request_id"`
	BatchID        uint64  `json:"batch_id"`
	Deltas         []int64 `json:"deltas,omitempty"`
	MaliciousFlags []bool  `json:"malicious_flags,omitempty"`
	Rejected       bool    `json:"rejected"`
	Reason         string  `json:"reason,omitempty"`
}

// ResultStore persists accepted submissions and decryption outcomes.
// The store is off-protocol bookkeeping: the ledger's own state never
// depends on it.
type ResultStore interface {
	SaveSubmission(sub protocol.Submission) error
	SaveDecryption(record *DecryptionRecord) error
	LoadDecryptions(batchID uint64) ([]*DecryptionRecord, error)
	Close() error
}

// InMemoryStore implements ResultStore for testing and single-node
// demo deployments without a database.
type InMemoryStore struct {
	mu          sync.Mutex
	submissions map[uint64][]protocol.Submission
	decryptions map[uint64][]*DecryptionRecord
}

// NewInMemoryStore creates an in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		submissions: make(map[uint64][]protocol.Submission),
		decryptions: make(map[uint64][]*DecryptionRecord),
	}
}

// SaveSubmission stores a submission in memory.
func (s *InMemoryStore) SaveSubmission(sub protocol.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[sub.BatchID] = append(s.submissions[sub.BatchID], sub)
	return nil
}

// SaveDecryption stores a decryption outcome in memory.
func (s *InMemoryStore) SaveDecryption(record *DecryptionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decryptions[record.BatchID] = append(s.decryptions[record.BatchID], record)
	return nil
}

// LoadDecryptions returns all decryption outcomes for a batch.
func (s *InMemoryStore) LoadDecryptions(batchID uint64) ([]*DecryptionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.decryptions[batchID]
	out := make([]*DecryptionRecord, len(records))
	copy(out, records)
	return out, nil
}

// Submissions returns all stored submissions for a batch.
func (s *InMemoryStore) Submissions(batchID uint64) []protocol.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.submissions[batchID]
	out := make([]protocol.Submission, len(subs))
	copy(out, subs)
	return out
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
