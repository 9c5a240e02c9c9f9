package crypto

import "golang.org/x/crypto/sha3"

// DigestSize is the length of a Keccak-256 digest in bytes.
const DigestSize = 32

// Keccak256 returns the Keccak-256 digest of the concatenation of the
// inputs. Used for commitment digests over ordered ciphertext handle
// sets and for oracle proof payloads.
func Keccak256(inputs ...[]byte) [DigestSize]byte {
	d := sha3.NewLegacyKeccak256()
	for _, in := range inputs {
		d.Write(in)
	}
	var out [DigestSize]byte
	copy(out[:], d.Sum(nil))
	return out
}
