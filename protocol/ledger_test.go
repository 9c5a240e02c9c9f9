package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/testutil"
)

func TestBatchNumbering(t *testing.T) {
	f := testutil.NewFixture(t)

	_, ok := f.Proto.CurrentBatchID()
	require.False(t, ok)

	for want := uint64(1); want <= 3; want++ {
		id := f.OpenBatch(t)
		require.Equal(t, want, id)

		current, ok := f.Proto.CurrentBatchID()
		require.True(t, ok)
		require.Equal(t, want, current)

		_, err := f.Proto.CloseBatch(f.Owner)
		require.NoError(t, err)
	}
	require.Equal(t, 3, f.Proto.BatchCount())
}

func TestCloseBatchLifecycle(t *testing.T) {
	f := testutil.NewFixture(t)

	// Nothing to close yet.
	_, err := f.Proto.CloseBatch(f.Owner)
	require.ErrorIs(t, err, protocol.ErrBatchClosedOrInvalid)

	id := f.OpenBatch(t)
	closed, err := f.Proto.CloseBatch(f.Owner)
	require.NoError(t, err)
	require.Equal(t, id, closed)

	b, ok := f.Proto.Batch(id)
	require.True(t, ok)
	require.False(t, b.Open)

	// Closing an already closed batch fails.
	_, err = f.Proto.CloseBatch(f.Owner)
	require.ErrorIs(t, err, protocol.ErrBatchClosedOrInvalid)

	// Only the owner closes batches.
	f.OpenBatch(t)
	_, err = f.Proto.CloseBatch(f.Provider)
	require.ErrorIs(t, err, protocol.ErrNotOwner)
}

func TestSubmitGapsAndOrder(t *testing.T) {
	f := testutil.NewFixture(t)
	batchID := f.OpenBatch(t)

	for want := 0; want < 4; want++ {
		index := f.SubmitPair(t, batchID, int64(want*10), want%2 == 1)
		require.Equal(t, want, index)
	}

	subs := f.Proto.Submissions(batchID)
	require.Len(t, subs, 4)
	for i, s := range subs {
		require.Equal(t, i, s.Index)
		require.Equal(t, batchID, s.BatchID)
		require.True(t, s.Provider.Equal(f.Provider))
	}

	b, ok := f.Proto.Batch(batchID)
	require.True(t, ok)
	require.Equal(t, 4, b.SubmissionCount)
	require.Equal(t, 4, f.Proto.SubmissionCount(batchID))
}

func TestSubmitRejectsClosedAndUnknownBatches(t *testing.T) {
	f := testutil.NewFixture(t)
	batchID := f.OpenBatch(t)
	_, err := f.Proto.CloseBatch(f.Owner)
	require.NoError(t, err)

	deltaHandle, err := f.Oracle.EncryptDelta(1)
	require.NoError(t, err)
	flagHandle, err := f.Oracle.EncryptFlag(false)
	require.NoError(t, err)

	_, err = f.Proto.Submit(f.Provider, batchID, deltaHandle, flagHandle)
	require.ErrorIs(t, err, protocol.ErrBatchClosedOrInvalid)

	_, err = f.Proto.Submit(f.Provider, 42, deltaHandle, flagHandle)
	require.ErrorIs(t, err, protocol.ErrBatchClosedOrInvalid)

	_, err = f.Proto.Submit(f.Provider, 0, deltaHandle, flagHandle)
	require.ErrorIs(t, err, protocol.ErrBatchClosedOrInvalid)
}

func TestSubmitRequiresProvider(t *testing.T) {
	f := testutil.NewFixture(t)
	batchID := f.OpenBatch(t)

	deltaHandle, err := f.Oracle.EncryptDelta(1)
	require.NoError(t, err)
	flagHandle, err := f.Oracle.EncryptFlag(false)
	require.NoError(t, err)

	// The owner is not implicitly a provider.
	_, err = f.Proto.Submit(f.Owner, batchID, deltaHandle, flagHandle)
	require.ErrorIs(t, err, protocol.ErrNotProvider)

	stranger, _ := testutil.GenerateTestKeyPair(t)
	_, err = f.Proto.Submit(stranger, batchID, deltaHandle, flagHandle)
	require.ErrorIs(t, err, protocol.ErrNotProvider)
}

func TestRevokedProviderSubmissionsSurvive(t *testing.T) {
	f := testutil.NewFixture(t)
	batchID := f.OpenBatch(t)
	f.SubmitPair(t, batchID, 5, false)

	require.NoError(t, f.Proto.RemoveProvider(f.Owner, f.Provider))

	// Existing submissions are untouched, new ones are rejected.
	require.Equal(t, 1, f.Proto.SubmissionCount(batchID))

	deltaHandle, err := f.Oracle.EncryptDelta(6)
	require.NoError(t, err)
	flagHandle, err := f.Oracle.EncryptFlag(false)
	require.NoError(t, err)
	f.Clock.Advance(f.Proto.Cooldown())
	_, err = f.Proto.Submit(f.Provider, batchID, deltaHandle, flagHandle)
	require.ErrorIs(t, err, protocol.ErrNotProvider)
}
