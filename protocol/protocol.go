package protocol

import (
	"sync"
	"time"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
)

// actionClass separates cooldown tracking per kind of rate-limited
// action. Submissions and decryption requests do not share state.
type actionClass int

const (
	submitAction actionClass = iota
	decryptAction
)

type cooldownKey struct {
	actor string
	class actionClass
}

// Protocol is the confidential batch-decryption ledger. All state is
// owned by the instance and mutated only through its gated operations;
// every operation runs to completion under one mutex, matching a
// single-writer, one-operation-at-a-time ledger.
type Protocol struct {
	mu     sync.Mutex
	config Config
	oracle DecryptionOracle

	owner     crypto.PublicKey
	providers map[string]crypto.PublicKey
	paused    bool

	cooldown   time.Duration
	lastAction map[cooldownKey]time.Time

	batches     []*Batch
	submissions map[uint64][]Submission
	contexts    map[string]*DecryptionContext

	subscribers []subscriber
	now         func() time.Time
}

// New creates a ledger with the given configuration and oracle.
func New(config Config, oracle DecryptionOracle) (*Protocol, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &Protocol{
		config:      config,
		oracle:      oracle,
		owner:       crypto.NewPublicKeyFromBytes(config.Owner),
		providers:   make(map[string]crypto.PublicKey),
		cooldown:    config.Cooldown,
		lastAction:  make(map[cooldownKey]time.Time),
		submissions: make(map[uint64][]Submission),
		contexts:    make(map[string]*DecryptionContext),
		now:         time.Now,
	}, nil
}

// SetClock overrides the ledger's time source.
// Only used in tests.
func (p *Protocol) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Guard checks. Composable, invoked at the top of each operation;
// callers hold p.mu.

func (p *Protocol) requireOwner(caller crypto.PublicKey) error {
	if !caller.Equal(p.owner) {
		return ErrNotOwner
	}
	return nil
}

func (p *Protocol) requireProvider(caller crypto.PublicKey) error {
	if _, ok := p.providers[caller.String()]; !ok {
		return ErrNotProvider
	}
	return nil
}

func (p *Protocol) requireUnpaused() error {
	if p.paused {
		return ErrPaused
	}
	return nil
}

// checkCooldown verifies the actor's cooldown window has elapsed for
// the given action class. It does not record anything: the timestamp is
// written by recordAction only after the gated action fully succeeds,
// so a rejected call never consumes the caller's window.
func (p *Protocol) checkCooldown(actor crypto.PublicKey, class actionClass) error {
	last, ok := p.lastAction[cooldownKey{actor.String(), class}]
	if ok && p.now().Sub(last) < p.cooldown {
		return ErrCooldownActive
	}
	return nil
}

func (p *Protocol) recordAction(actor crypto.PublicKey, class actionClass) {
	p.lastAction[cooldownKey{actor.String(), class}] = p.now()
}

// TransferOwnership reassigns the owner identity. Owner-only; the empty
// identity is rejected.
func (p *Protocol) TransferOwnership(caller, newOwner crypto.PublicKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOwner(caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return ErrZeroIdentity
	}

	previous := p.owner
	p.owner = crypto.NewPublicKeyFromBytes(newOwner)
	p.emit(OwnershipTransferred{Previous: previous, Owner: p.owner})
	return nil
}

// AddProvider grants submission rights to an identity. Owner-only.
// Adding an existing provider is a silent no-op so the call is safely
// retryable; the added event fires at most once per identity.
func (p *Protocol) AddProvider(caller, provider crypto.PublicKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOwner(caller); err != nil {
		return err
	}
	if provider.IsZero() {
		return ErrZeroIdentity
	}

	key := provider.String()
	if _, ok := p.providers[key]; ok {
		return nil
	}

	p.providers[key] = crypto.NewPublicKeyFromBytes(provider)
	p.emit(ProviderAdded{Provider: p.providers[key]})
	return nil
}

// RemoveProvider revokes submission rights. Owner-only; removing a
// non-provider is a silent no-op. Removing the owner's provider status
// does not touch ownership.
func (p *Protocol) RemoveProvider(caller, provider crypto.PublicKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOwner(caller); err != nil {
		return err
	}

	key := provider.String()
	if _, ok := p.providers[key]; !ok {
		return nil
	}

	delete(p.providers, key)
	p.emit(ProviderRemoved{Provider: crypto.NewPublicKeyFromBytes(provider)})
	return nil
}

// Pause suspends all writes except Unpause. Owner-only.
func (p *Protocol) Pause(caller crypto.PublicKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOwner(caller); err != nil {
		return err
	}
	if p.paused {
		return ErrAlreadyPaused
	}

	p.paused = true
	p.emit(Paused{})
	return nil
}

// Unpause resumes writes. Owner-only.
func (p *Protocol) Unpause(caller crypto.PublicKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOwner(caller); err != nil {
		return err
	}
	if !p.paused {
		return ErrNotPaused
	}

	p.paused = false
	p.emit(Unpaused{})
	return nil
}

// SetCooldown sets the minimum spacing between rate-limited actions.
// Owner-only. Zero is rejected: it would disable rate limiting.
func (p *Protocol) SetCooldown(caller crypto.PublicKey, cooldown time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOwner(caller); err != nil {
		return err
	}
	if cooldown <= 0 {
		return ErrInvalidCooldown
	}

	p.cooldown = cooldown
	p.emit(CooldownChanged{Cooldown: cooldown})
	return nil
}

// Owner returns the current owner identity.
func (p *Protocol) Owner() crypto.PublicKey {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.owner
}

// IsProvider reports whether the identity may submit.
func (p *Protocol) IsProvider(id crypto.PublicKey) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.providers[id.String()]
	return ok
}

// IsPaused reports whether writes are suspended.
func (p *Protocol) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Cooldown returns the configured cooldown window.
func (p *Protocol) Cooldown() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cooldown
}

// InstanceID returns the ledger's stable identity.
func (p *Protocol) InstanceID() [32]byte {
	return p.config.InstanceID
}

// OraclePublicKey returns the key used to verify result proofs.
func (p *Protocol) OraclePublicKey() crypto.PublicKey {
	return p.config.OraclePublicKey
}
