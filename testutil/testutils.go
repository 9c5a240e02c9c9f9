package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/oracle"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
)

// ManualClock is a time source that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock at an arbitrary fixed instant.
func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Unix(1_700_000_000, 0)}
}

// Now returns the clock's current instant.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// GenerateTestKeyPair generates a key pair, failing the test on error.
func GenerateTestKeyPair(t *testing.T) (crypto.PublicKey, crypto.PrivateKey) {
	t.Helper()
	pub, priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return pub, priv
}

// Fixture is a ledger wired to a local oracle with a manual clock and
// one registered provider.
type Fixture struct {
	Proto  *protocol.Protocol
	Oracle *oracle.LocalOracle
	Clock  *ManualClock

	Owner       crypto.PublicKey
	OwnerKey    crypto.PrivateKey
	Provider    crypto.PublicKey
	ProviderKey crypto.PrivateKey
	OracleKey   crypto.PrivateKey
}

// NewFixture builds a ready-to-use ledger: owner configured, one
// provider registered, oracle callback wired to the result handler, and
// a one-minute cooldown under the fixture's manual clock.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()

	ownerPub, ownerPriv := GenerateTestKeyPair(t)
	providerPub, providerPriv := GenerateTestKeyPair(t)
	oraclePub, oraclePriv := GenerateTestKeyPair(t)

	orc := oracle.NewLocalOracle(oraclePriv)
	clock := NewManualClock()

	proto, err := protocol.New(protocol.Config{
		InstanceID:      protocol.DeriveInstanceID("test", ownerPub),
		Owner:           ownerPub,
		OraclePublicKey: oraclePub,
		Cooldown:        time.Minute,
	}, orc)
	require.NoError(t, err)
	proto.SetClock(clock.Now)
	orc.SetCallback(proto.HandleDecryptionResult)

	require.NoError(t, proto.AddProvider(ownerPub, providerPub))

	return &Fixture{
		Proto:       proto,
		Oracle:      orc,
		Clock:       clock,
		Owner:       ownerPub,
		OwnerKey:    ownerPriv,
		Provider:    providerPub,
		ProviderKey: providerPriv,
		OracleKey:   oraclePriv,
	}
}

// OpenBatch opens a batch as the owner, failing the test on error.
func (f *Fixture) OpenBatch(t *testing.T) uint64 {
	t.Helper()
	id, err := f.Proto.OpenBatch(f.Owner)
	require.NoError(t, err)
	return id
}

// SubmitPair encrypts a (delta, malicious) pair through the oracle and
// submits it as the fixture provider, advancing the clock past the
// cooldown first so consecutive calls succeed.
func (f *Fixture) SubmitPair(t *testing.T, batchID uint64, delta int64, malicious bool) int {
	t.Helper()

	f.Clock.Advance(f.Proto.Cooldown())
	deltaHandle, err := f.Oracle.EncryptDelta(delta)
	require.NoError(t, err)
	flagHandle, err := f.Oracle.EncryptFlag(malicious)
	require.NoError(t, err)

	index, err := f.Proto.Submit(f.Provider, batchID, deltaHandle, flagHandle)
	require.NoError(t, err)
	return index
}

// RequestDecryption issues a decryption request as the owner, advancing
// the clock past the cooldown first.
func (f *Fixture) RequestDecryption(t *testing.T, batchID uint64) string {
	t.Helper()

	f.Clock.Advance(f.Proto.Cooldown())
	requestID, err := f.Proto.RequestDecryption(context.Background(), f.Owner, batchID)
	require.NoError(t, err)
	return requestID
}
