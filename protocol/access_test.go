package protocol_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/testutil"
)

func drainEvents(ch <-chan protocol.Event) []protocol.Event {
	var events []protocol.Event
	for {
		select {
		case ev := <-ch:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestTransferOwnership(t *testing.T) {
	f := testutil.NewFixture(t)
	events := f.Proto.SubscribeEvents(context.Background())

	newOwner, _ := testutil.GenerateTestKeyPair(t)

	// Only the owner may transfer.
	require.ErrorIs(t, f.Proto.TransferOwnership(newOwner, newOwner), protocol.ErrNotOwner)

	// The empty identity is rejected.
	require.ErrorIs(t, f.Proto.TransferOwnership(f.Owner, crypto.PublicKey{}), protocol.ErrZeroIdentity)

	require.NoError(t, f.Proto.TransferOwnership(f.Owner, newOwner))
	require.True(t, f.Proto.Owner().Equal(newOwner))

	// The previous owner has lost its powers.
	require.ErrorIs(t, f.Proto.Pause(f.Owner), protocol.ErrNotOwner)
	require.NoError(t, f.Proto.Pause(newOwner))

	evs := drainEvents(events)
	require.Len(t, evs, 2)
	transferred, ok := evs[0].(protocol.OwnershipTransferred)
	require.True(t, ok)
	require.True(t, transferred.Previous.Equal(f.Owner))
	require.True(t, transferred.Owner.Equal(newOwner))
}

func TestProviderIdempotence(t *testing.T) {
	f := testutil.NewFixture(t)
	events := f.Proto.SubscribeEvents(context.Background())

	p, _ := testutil.GenerateTestKeyPair(t)

	require.NoError(t, f.Proto.AddProvider(f.Owner, p))
	require.True(t, f.Proto.IsProvider(p))

	// Re-adding is a silent no-op and must not emit a second event.
	require.NoError(t, f.Proto.AddProvider(f.Owner, p))
	evs := drainEvents(events)
	require.Len(t, evs, 1)
	require.Equal(t, protocol.EventProviderAdded, evs[0].Kind())

	require.NoError(t, f.Proto.RemoveProvider(f.Owner, p))
	require.False(t, f.Proto.IsProvider(p))

	// Removing a non-provider is a silent no-op.
	require.NoError(t, f.Proto.RemoveProvider(f.Owner, p))
	evs = drainEvents(events)
	require.Len(t, evs, 1)
	require.Equal(t, protocol.EventProviderRemoved, evs[0].Kind())
}

func TestProviderAuthorization(t *testing.T) {
	f := testutil.NewFixture(t)

	p, _ := testutil.GenerateTestKeyPair(t)
	require.ErrorIs(t, f.Proto.AddProvider(p, p), protocol.ErrNotOwner)
	require.ErrorIs(t, f.Proto.RemoveProvider(p, f.Provider), protocol.ErrNotOwner)
	require.ErrorIs(t, f.Proto.AddProvider(f.Owner, crypto.PublicKey{}), protocol.ErrZeroIdentity)
}

func TestRemovingOwnerProviderStatusKeepsOwnership(t *testing.T) {
	f := testutil.NewFixture(t)

	require.NoError(t, f.Proto.AddProvider(f.Owner, f.Owner))
	require.True(t, f.Proto.IsProvider(f.Owner))

	require.NoError(t, f.Proto.RemoveProvider(f.Owner, f.Owner))
	require.False(t, f.Proto.IsProvider(f.Owner))

	// Still the owner.
	require.True(t, f.Proto.Owner().Equal(f.Owner))
	_, err := f.Proto.OpenBatch(f.Owner)
	require.NoError(t, err)
}

func TestPauseUnpause(t *testing.T) {
	f := testutil.NewFixture(t)

	require.ErrorIs(t, f.Proto.Unpause(f.Owner), protocol.ErrNotPaused)

	require.NoError(t, f.Proto.Pause(f.Owner))
	require.True(t, f.Proto.IsPaused())
	require.ErrorIs(t, f.Proto.Pause(f.Owner), protocol.ErrAlreadyPaused)

	// Writes are rejected while paused.
	_, err := f.Proto.OpenBatch(f.Owner)
	require.ErrorIs(t, err, protocol.ErrPaused)
	_, err = f.Proto.CloseBatch(f.Owner)
	require.ErrorIs(t, err, protocol.ErrPaused)

	// Unpause works while paused and restores writes.
	require.NoError(t, f.Proto.Unpause(f.Owner))
	require.False(t, f.Proto.IsPaused())
	_, err = f.Proto.OpenBatch(f.Owner)
	require.NoError(t, err)
}

func TestPauseBlocksSubmitAndRequest(t *testing.T) {
	f := testutil.NewFixture(t)
	batchID := f.OpenBatch(t)
	f.SubmitPair(t, batchID, 1, false)

	require.NoError(t, f.Proto.Pause(f.Owner))

	f.Clock.Advance(f.Proto.Cooldown())
	deltaHandle, err := f.Oracle.EncryptDelta(2)
	require.NoError(t, err)
	flagHandle, err := f.Oracle.EncryptFlag(false)
	require.NoError(t, err)

	_, err = f.Proto.Submit(f.Provider, batchID, deltaHandle, flagHandle)
	require.ErrorIs(t, err, protocol.ErrPaused)

	_, err = f.Proto.RequestDecryption(context.Background(), f.Owner, batchID)
	require.ErrorIs(t, err, protocol.ErrPaused)
}
