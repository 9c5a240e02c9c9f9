package protocol

import (
	"errors"
	"time"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
)

// DefaultCooldown is the initial spacing between rate-limited actions
// when a deployment does not configure its own.
const DefaultCooldown = 30 * time.Second

// Config configures a Protocol instance.
type Config struct {
	// InstanceID is the ledger's stable identity. It is mixed into every
	// commitment digest so a digest frozen by one deployment can never be
	// replayed against another.
	InstanceID [32]byte

	// Owner is the initial owner identity.
	Owner crypto.PublicKey

	// OraclePublicKey verifies the proofs attached to decryption results.
	OraclePublicKey crypto.PublicKey

	// Cooldown is the initial minimum spacing between an actor's
	// successive rate-limited actions. Must be greater than zero.
	Cooldown time.Duration
}

func (c *Config) validate() error {
	if c.Owner.IsZero() {
		return errors.New("protocol: config requires an owner identity")
	}
	if c.OraclePublicKey.IsZero() {
		return errors.New("protocol: config requires the oracle public key")
	}
	if c.Cooldown <= 0 {
		return ErrInvalidCooldown
	}
	return nil
}

// DeriveInstanceID derives a deployment identity from a label and the
// initial owner key. Deterministic, so restarts of the same deployment
// keep their digests comparable.
func DeriveInstanceID(label string, owner crypto.PublicKey) [32]byte {
	return crypto.Keccak256([]byte("aaf/instance/"), []byte(label), owner.Bytes())
}
