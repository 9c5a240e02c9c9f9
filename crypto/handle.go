package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// HandleSize is the length of a ciphertext handle in bytes.
const HandleSize = 32

// CiphertextHandle is an opaque 32-byte reference to an encrypted value
// held by the external decryption oracle. The ledger never decodes a
// handle; it only concatenates handles into commitment digests and
// forwards them back to the oracle for decryption.
type CiphertextHandle [HandleSize]byte

// NewHandleFromBytes creates a handle from a byte slice.
func NewHandleFromBytes(data []byte) (CiphertextHandle, error) {
	var h CiphertextHandle
	if len(data) != HandleSize {
		return h, errors.New("invalid ciphertext handle size")
	}
	copy(h[:], data)
	return h, nil
}

// NewHandleFromString creates a handle from a hex-encoded string.
func NewHandleFromString(data string) (CiphertextHandle, error) {
	rawBytes, err := hex.DecodeString(data)
	if err != nil {
		return CiphertextHandle{}, err
	}
	return NewHandleFromBytes(rawBytes)
}

// NewRandomHandle returns a fresh random handle. Used by oracle
// implementations when minting ciphertexts.
func NewRandomHandle() (CiphertextHandle, error) {
	var h CiphertextHandle
	if _, err := rand.Read(h[:]); err != nil {
		return CiphertextHandle{}, err
	}
	return h, nil
}

// Bytes returns a copy of the handle as a byte slice.
func (h CiphertextHandle) Bytes() []byte {
	out := make([]byte, HandleSize)
	copy(out, h[:])
	return out
}

// String returns a hex-encoded representation of the handle.
func (h CiphertextHandle) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalText implements encoding.TextMarshaler so handles serialize as
// hex strings in JSON payloads.
func (h CiphertextHandle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *CiphertextHandle) UnmarshalText(text []byte) error {
	parsed, err := NewHandleFromString(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
