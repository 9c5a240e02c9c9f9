package oracle

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
)

// Errors for the local oracle.
var (
	ErrUnknownHandle  = errors.New("oracle: unknown ciphertext handle")
	ErrUnknownRequest = errors.New("oracle: unknown request id")
	ErrNoCallback     = errors.New("oracle: no callback configured")
)

// CallbackFunc receives a finished decryption answer. In a deployment
// this is Protocol.HandleDecryptionResult, directly or over HTTP.
type CallbackFunc func(requestID string, cleartexts []byte, proof crypto.Signature) error

// LocalOracle is an in-process decryption oracle. It plays the trusted
// external party: EncryptDelta and EncryptFlag mint opaque handles for
// plaintext values, Decrypt queues a request under a fresh unique id,
// and Deliver pushes the signed answer into the callback. The oracle
// never initiates delivery on its own; the caller controls when (and
// whether) each answer arrives, modeling the unbounded gap between
// request and callback.
type LocalOracle struct {
	mu         sync.Mutex
	signingKey crypto.PrivateKey
	values     map[crypto.CiphertextHandle][]byte
	pending    map[string][]crypto.CiphertextHandle
	callback   CallbackFunc
}

// NewLocalOracle creates an oracle signing its answers with the given
// key.
func NewLocalOracle(signingKey crypto.PrivateKey) *LocalOracle {
	return &LocalOracle{
		signingKey: signingKey,
		values:     make(map[crypto.CiphertextHandle][]byte),
		pending:    make(map[string][]crypto.CiphertextHandle),
	}
}

// PublicKey returns the key the ledger should verify proofs against.
func (o *LocalOracle) PublicKey() (crypto.PublicKey, error) {
	return o.signingKey.PublicKey()
}

// SetCallback sets the sink for delivered answers.
func (o *LocalOracle) SetCallback(cb CallbackFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.callback = cb
}

// EncryptDelta mints a handle for a reputation delta.
func (o *LocalOracle) EncryptDelta(delta int64) (crypto.CiphertextHandle, error) {
	var slot [8]byte
	binary.BigEndian.PutUint64(slot[:], uint64(delta))
	return o.store(slot[:])
}

// EncryptFlag mints a handle for a malicious flag.
func (o *LocalOracle) EncryptFlag(malicious bool) (crypto.CiphertextHandle, error) {
	if malicious {
		return o.store([]byte{1})
	}
	return o.store([]byte{0})
}

func (o *LocalOracle) store(slot []byte) (crypto.CiphertextHandle, error) {
	h, err := crypto.NewRandomHandle()
	if err != nil {
		return crypto.CiphertextHandle{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.values[h] = append([]byte(nil), slot...)
	return h, nil
}

// Decrypt queues a decryption request for the ordered handle list and
// returns a fresh globally unique request id. Every handle must have
// been minted by this oracle.
func (o *LocalOracle) Decrypt(_ context.Context, handles []crypto.CiphertextHandle) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, h := range handles {
		if _, ok := o.values[h]; !ok {
			return "", ErrUnknownHandle
		}
	}

	requestID := uuid.NewString()
	o.pending[requestID] = append([]crypto.CiphertextHandle(nil), handles...)
	return requestID, nil
}

// Pending returns the number of queued requests.
func (o *LocalOracle) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// Deliver builds, signs and delivers the answer for a queued request.
// The request stays queued, so tests can deliver the same answer twice
// to exercise the ledger's replay detection; the ledger, not the
// oracle, enforces at-most-once processing.
func (o *LocalOracle) Deliver(requestID string) error {
	cleartexts, proof, cb, err := o.buildAnswer(requestID)
	if err != nil {
		return err
	}
	if cb == nil {
		return ErrNoCallback
	}
	return cb(requestID, cleartexts, proof)
}

func (o *LocalOracle) buildAnswer(requestID string) ([]byte, crypto.Signature, CallbackFunc, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	handles, ok := o.pending[requestID]
	if !ok {
		return nil, nil, nil, ErrUnknownRequest
	}

	buf := make([]byte, 0, len(handles)*8)
	for _, h := range handles {
		buf = append(buf, o.values[h]...)
	}

	proof, err := crypto.Sign(o.signingKey, protocol.ResultSigningPayload(requestID, buf))
	if err != nil {
		return nil, nil, nil, err
	}
	return buf, proof, o.callback, nil
}
