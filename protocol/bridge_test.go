package protocol_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/testutil"
)

func TestDecryptionRoundTrip(t *testing.T) {
	f := testutil.NewFixture(t)
	events := f.Proto.SubscribeEvents(context.Background())
	batchID := f.OpenBatch(t)

	f.SubmitPair(t, batchID, 10, false)
	f.SubmitPair(t, batchID, -3, true)
	f.SubmitPair(t, batchID, 0, false)

	requestID := f.RequestDecryption(t, batchID)
	require.Equal(t, 1, f.Proto.PendingRequests())

	require.NoError(t, f.Oracle.Deliver(requestID))

	dctx, ok := f.Proto.Request(requestID)
	require.True(t, ok)
	require.True(t, dctx.Processed)
	require.False(t, dctx.Rejected)
	require.Equal(t, 0, f.Proto.PendingRequests())

	// The completed event carries the decoded values in submission order.
	var completed *protocol.DecryptionCompleted
	for _, ev := range drainEvents(events) {
		if c, ok := ev.(protocol.DecryptionCompleted); ok {
			completed = &c
		}
	}
	require.NotNil(t, completed)
	require.Equal(t, requestID, completed.RequestID)
	require.Equal(t, batchID, completed.BatchID)
	require.Equal(t, []int64{10, -3, 0}, completed.Deltas)
	require.Equal(t, []bool{false, true, false}, completed.MaliciousFlags)
}

func TestDecryptionOfClosedBatch(t *testing.T) {
	f := testutil.NewFixture(t)
	batchID := f.OpenBatch(t)
	f.SubmitPair(t, batchID, 4, false)

	// Closing the batch does not block its decryption.
	_, err := f.Proto.CloseBatch(f.Owner)
	require.NoError(t, err)

	requestID := f.RequestDecryption(t, batchID)
	require.NoError(t, f.Oracle.Deliver(requestID))

	dctx, _ := f.Proto.Request(requestID)
	require.True(t, dctx.Processed)
}

func TestRequestDecryptionGates(t *testing.T) {
	f := testutil.NewFixture(t)

	// Unknown batch and empty batch are both undecryptable.
	_, err := f.Proto.RequestDecryption(context.Background(), f.Owner, 99)
	require.ErrorIs(t, err, protocol.ErrBatchClosedOrInvalid)

	batchID := f.OpenBatch(t)
	_, err = f.Proto.RequestDecryption(context.Background(), f.Owner, batchID)
	require.ErrorIs(t, err, protocol.ErrBatchClosedOrInvalid)

	f.SubmitPair(t, batchID, 1, false)

	// Owner-only.
	_, err = f.Proto.RequestDecryption(context.Background(), f.Provider, batchID)
	require.ErrorIs(t, err, protocol.ErrNotOwner)

	// Subject to the decryption-request cooldown.
	f.RequestDecryption(t, batchID)
	_, err = f.Proto.RequestDecryption(context.Background(), f.Owner, batchID)
	require.ErrorIs(t, err, protocol.ErrCooldownActive)
}

func TestReplayedAnswerRejected(t *testing.T) {
	f := testutil.NewFixture(t)
	batchID := f.OpenBatch(t)
	f.SubmitPair(t, batchID, 1, false)

	requestID := f.RequestDecryption(t, batchID)
	require.NoError(t, f.Oracle.Deliver(requestID))

	// The identical answer delivered again must bounce off the ledger.
	require.ErrorIs(t, f.Oracle.Deliver(requestID), protocol.ErrReplayDetected)

	dctx, _ := f.Proto.Request(requestID)
	require.True(t, dctx.Processed)
	require.False(t, dctx.Rejected)
}

func TestUnknownRequestIDRejected(t *testing.T) {
	f := testutil.NewFixture(t)

	err := f.Proto.HandleDecryptionResult("no-such-request", nil, crypto.Signature{})
	require.ErrorIs(t, err, protocol.ErrReplayDetected)
}

func TestSubmissionAfterRequestInvalidatesAnswer(t *testing.T) {
	f := testutil.NewFixture(t)
	events := f.Proto.SubscribeEvents(context.Background())
	batchID := f.OpenBatch(t)
	f.SubmitPair(t, batchID, 1, false)

	requestID := f.RequestDecryption(t, batchID)

	// A submission lands between dispatch and answer; the frozen digest
	// no longer matches.
	f.SubmitPair(t, batchID, 2, false)

	require.ErrorIs(t, f.Oracle.Deliver(requestID), protocol.ErrStateMismatch)

	dctx, _ := f.Proto.Request(requestID)
	require.True(t, dctx.Rejected)
	require.False(t, dctx.Processed)

	// Rejection is terminal: even a later matching answer is a replay.
	require.ErrorIs(t, f.Oracle.Deliver(requestID), protocol.ErrReplayDetected)

	var rejected *protocol.DecryptionRejected
	for _, ev := range drainEvents(events) {
		if r, ok := ev.(protocol.DecryptionRejected); ok {
			rejected = &r
		}
	}
	require.NotNil(t, rejected)
	require.Equal(t, requestID, rejected.RequestID)
	require.ErrorIs(t, rejected.Reason, protocol.ErrStateMismatch)

	// A fresh request against the current state still works.
	freshID := f.RequestDecryption(t, batchID)
	require.NoError(t, f.Oracle.Deliver(freshID))
}

func TestForgedProofRejected(t *testing.T) {
	f := testutil.NewFixture(t)
	batchID := f.OpenBatch(t)
	f.SubmitPair(t, batchID, 1, false)

	requestID := f.RequestDecryption(t, batchID)

	// An answer signed by anyone but the configured oracle is rejected.
	_, forgerKey := testutil.GenerateTestKeyPair(t)
	buf := protocol.EncodeCleartexts([]protocol.Cleartext{{Delta: 1}})
	forged, err := crypto.Sign(forgerKey, protocol.ResultSigningPayload(requestID, buf))
	require.NoError(t, err)

	err = f.Proto.HandleDecryptionResult(requestID, buf, forged)
	require.ErrorIs(t, err, protocol.ErrInvalidProof)

	dctx, _ := f.Proto.Request(requestID)
	require.True(t, dctx.Rejected)
}

func TestProofBoundToCleartexts(t *testing.T) {
	f := testutil.NewFixture(t)
	batchID := f.OpenBatch(t)
	f.SubmitPair(t, batchID, 1, false)

	requestID := f.RequestDecryption(t, batchID)

	// A valid oracle signature over different cleartexts does not
	// authenticate a tampered buffer.
	honest := protocol.EncodeCleartexts([]protocol.Cleartext{{Delta: 1}})
	proof, err := crypto.Sign(f.OracleKey, protocol.ResultSigningPayload(requestID, honest))
	require.NoError(t, err)

	tampered := protocol.EncodeCleartexts([]protocol.Cleartext{{Delta: 1000}})
	err = f.Proto.HandleDecryptionResult(requestID, tampered, proof)
	require.ErrorIs(t, err, protocol.ErrInvalidProof)
}

func TestMalformedCleartextsRejected(t *testing.T) {
	f := testutil.NewFixture(t)
	batchID := f.OpenBatch(t)
	f.SubmitPair(t, batchID, 1, false)
	f.SubmitPair(t, batchID, 2, false)

	requestID := f.RequestDecryption(t, batchID)

	// The oracle signs a buffer one submission short. The proof checks
	// out, the decode gate does not.
	short := protocol.EncodeCleartexts([]protocol.Cleartext{{Delta: 1}})
	proof, err := crypto.Sign(f.OracleKey, protocol.ResultSigningPayload(requestID, short))
	require.NoError(t, err)

	err = f.Proto.HandleDecryptionResult(requestID, short, proof)
	require.ErrorIs(t, err, protocol.ErrCleartextLength)

	dctx, _ := f.Proto.Request(requestID)
	require.True(t, dctx.Rejected)
	require.ErrorIs(t, f.Oracle.Deliver(requestID), protocol.ErrReplayDetected)
}

func TestConcurrentRequestsForSeparateBatches(t *testing.T) {
	f := testutil.NewFixture(t)

	first := f.OpenBatch(t)
	f.SubmitPair(t, first, 1, false)
	second := f.OpenBatch(t)
	f.SubmitPair(t, second, 2, true)

	firstReq := f.RequestDecryption(t, first)
	secondReq := f.RequestDecryption(t, second)
	require.NotEqual(t, firstReq, secondReq)
	require.Equal(t, 2, f.Proto.PendingRequests())

	// Answers land out of order; each settles its own context.
	require.NoError(t, f.Oracle.Deliver(secondReq))
	require.NoError(t, f.Oracle.Deliver(firstReq))
	require.Equal(t, 0, f.Proto.PendingRequests())
}
