package protocol

import (
	"encoding/binary"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
)

// Cleartext is one decoded submission result: the revealed reputation
// delta and malicious flag.
type Cleartext struct {
	Delta     int64 `json:"delta"`
	Malicious bool  `json:"malicious"`
}

// Wire layout of the oracle's cleartext buffer: per submission, an
// 8-byte big-endian two's-complement delta followed by a 1-byte flag,
// concatenated in submission order.
const (
	deltaSlotSize = 8
	flagSlotSize  = 1
	cleartextSize = deltaSlotSize + flagSlotSize
)

// EncodeCleartexts serializes decoded values into the oracle wire
// layout. Used by oracle implementations when building answers.
func EncodeCleartexts(values []Cleartext) []byte {
	buf := make([]byte, 0, len(values)*cleartextSize)
	for _, v := range values {
		var slot [deltaSlotSize]byte
		binary.BigEndian.PutUint64(slot[:], uint64(v.Delta))
		buf = append(buf, slot[:]...)
		if v.Malicious {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

// DecodeCleartexts parses an oracle cleartext buffer expected to hold
// exactly count submissions. It walks the buffer with a running offset
// and fails rather than truncating: a buffer whose length does not
// match count*9 is rejected with ErrCleartextLength, and a flag byte
// other than 0 or 1 with ErrCleartextFlag.
func DecodeCleartexts(buf []byte, count int) ([]Cleartext, error) {
	if len(buf) != count*cleartextSize {
		return nil, ErrCleartextLength
	}

	values := make([]Cleartext, count)
	offset := 0
	for i := 0; i < count; i++ {
		values[i].Delta = int64(binary.BigEndian.Uint64(buf[offset : offset+deltaSlotSize]))
		offset += deltaSlotSize

		switch buf[offset] {
		case 0:
			values[i].Malicious = false
		case 1:
			values[i].Malicious = true
		default:
			return nil, ErrCleartextFlag
		}
		offset += flagSlotSize
	}
	return values, nil
}

// ResultSigningPayload is the byte string the oracle signs to prove a
// result's authenticity: the Keccak-256 digest of the request id and
// the raw cleartext buffer. Binding the request id prevents an answer
// for one request from being replayed against another.
func ResultSigningPayload(requestID string, cleartexts []byte) []byte {
	digest := crypto.Keccak256([]byte(requestID), cleartexts)
	return digest[:]
}
