package protocol

import (
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
)

// batchDigest computes the commitment digest binding a batch's full
// ordered ciphertext set: every handle in submission order, delta before
// flag, followed by the instance identity, hashed with Keccak-256. Pure
// function of the submission set; no randomness, no wall-clock input.
// Callers hold p.mu.
func (p *Protocol) batchDigest(batchID uint64) [crypto.DigestSize]byte {
	subs := p.submissions[batchID]
	buf := make([]byte, 0, len(subs)*2*crypto.HandleSize+len(p.config.InstanceID))
	for _, s := range subs {
		buf = append(buf, s.DeltaHandle[:]...)
		buf = append(buf, s.FlagHandle[:]...)
	}
	buf = append(buf, p.config.InstanceID[:]...)
	return crypto.Keccak256(buf)
}

// BatchDigest returns the commitment digest for the batch's current
// submission set. Recomputable: identical submission sets always hash
// to identical digests; any appended submission changes the result.
func (p *Protocol) BatchDigest(batchID uint64) [crypto.DigestSize]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batchDigest(batchID)
}

// orderedHandles returns the batch's handles in digest order.
// Callers hold p.mu.
func (p *Protocol) orderedHandles(batchID uint64) []crypto.CiphertextHandle {
	subs := p.submissions[batchID]
	handles := make([]crypto.CiphertextHandle, 0, len(subs)*2)
	for _, s := range subs {
		handles = append(handles, s.DeltaHandle, s.FlagHandle)
	}
	return handles
}
