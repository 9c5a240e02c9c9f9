package crypto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	data := []byte("confidential batch payload")
	sig, err := Sign(priv, data)
	require.NoError(t, err)
	require.True(t, sig.Verify(pub, data))

	// Mutated data must not verify.
	require.False(t, sig.Verify(pub, append([]byte{0}, data...)))

	// A different key must not verify.
	otherPub, _, err := GenerateKeyPair()
	require.NoError(t, err)
	require.False(t, sig.Verify(otherPub, data))
}

func TestPublicKeyRoundTrip(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	parsed, err := NewPublicKeyFromString(pub.String())
	require.NoError(t, err)
	require.True(t, pub.Equal(parsed))

	derived, err := priv.PublicKey()
	require.NoError(t, err)
	require.True(t, pub.Equal(derived))

	require.False(t, pub.IsZero())
	require.True(t, PublicKey{}.IsZero())
}

func TestHandleRoundTrip(t *testing.T) {
	h, err := NewRandomHandle()
	require.NoError(t, err)

	parsed, err := NewHandleFromString(h.String())
	require.NoError(t, err)
	require.Equal(t, h, parsed)

	_, err = NewHandleFromBytes(make([]byte, HandleSize-1))
	require.Error(t, err)
}

func TestHandleJSON(t *testing.T) {
	h, err := NewRandomHandle()
	require.NoError(t, err)

	encoded, err := json.Marshal(h)
	require.NoError(t, err)
	require.Equal(t, `"`+h.String()+`"`, string(encoded))

	var decoded CiphertextHandle
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, h, decoded)
}

func TestKeccak256(t *testing.T) {
	a := Keccak256([]byte("batch"), []byte("1"))
	b := Keccak256([]byte("batch"), []byte("1"))
	require.Equal(t, a, b)

	c := Keccak256([]byte("batch"), []byte("2"))
	require.NotEqual(t, a, c)

	// Empty input still produces a digest.
	require.NotEqual(t, [DigestSize]byte{}, Keccak256())
}
