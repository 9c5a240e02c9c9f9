package oracle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/oracle"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
)

func newOracle(t *testing.T) (*oracle.LocalOracle, crypto.PublicKey) {
	t.Helper()
	pub, priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return oracle.NewLocalOracle(priv), pub
}

func TestDecryptRejectsUnknownHandle(t *testing.T) {
	orc, _ := newOracle(t)

	known, err := orc.EncryptDelta(1)
	require.NoError(t, err)
	unknown, err := crypto.NewRandomHandle()
	require.NoError(t, err)

	_, err = orc.Decrypt(context.Background(), []crypto.CiphertextHandle{known, unknown})
	require.ErrorIs(t, err, oracle.ErrUnknownHandle)
	require.Equal(t, 0, orc.Pending())
}

func TestDeliverEncodesInHandleOrder(t *testing.T) {
	orc, pub := newOracle(t)

	d1, err := orc.EncryptDelta(-5)
	require.NoError(t, err)
	f1, err := orc.EncryptFlag(true)
	require.NoError(t, err)
	d2, err := orc.EncryptDelta(12)
	require.NoError(t, err)
	f2, err := orc.EncryptFlag(false)
	require.NoError(t, err)

	requestID, err := orc.Decrypt(context.Background(), []crypto.CiphertextHandle{d1, f1, d2, f2})
	require.NoError(t, err)
	require.Equal(t, 1, orc.Pending())

	var gotCleartexts []byte
	var gotProof crypto.Signature
	orc.SetCallback(func(id string, cleartexts []byte, proof crypto.Signature) error {
		require.Equal(t, requestID, id)
		gotCleartexts = cleartexts
		gotProof = proof
		return nil
	})
	require.NoError(t, orc.Deliver(requestID))

	values, err := protocol.DecodeCleartexts(gotCleartexts, 2)
	require.NoError(t, err)
	require.Equal(t, []protocol.Cleartext{
		{Delta: -5, Malicious: true},
		{Delta: 12, Malicious: false},
	}, values)

	require.True(t, gotProof.Verify(pub, protocol.ResultSigningPayload(requestID, gotCleartexts)))
}

func TestDeliverErrors(t *testing.T) {
	orc, _ := newOracle(t)

	require.ErrorIs(t, orc.Deliver("missing"), oracle.ErrUnknownRequest)

	h, err := orc.EncryptDelta(1)
	require.NoError(t, err)
	requestID, err := orc.Decrypt(context.Background(), []crypto.CiphertextHandle{h})
	require.NoError(t, err)

	// No callback configured yet.
	require.ErrorIs(t, orc.Deliver(requestID), oracle.ErrNoCallback)
}

func TestDistinctRequestIDs(t *testing.T) {
	orc, _ := newOracle(t)

	h, err := orc.EncryptDelta(1)
	require.NoError(t, err)

	first, err := orc.Decrypt(context.Background(), []crypto.CiphertextHandle{h})
	require.NoError(t, err)
	second, err := orc.Decrypt(context.Background(), []crypto.CiphertextHandle{h})
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.Equal(t, 2, orc.Pending())
}
