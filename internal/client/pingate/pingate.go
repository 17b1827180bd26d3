// Package pingate guards the hidden drafts behind a 4-digit device PIN.
//
// The gate is NoPinSet until a PIN is stored, then Locked. A correct entry
// unlocks it for the current session only: every Open starts Locked again,
// and Lock relocks explicitly. Wrong entries count attempts and emit a Shake
// signal; there is no lockout or backoff.
package pingate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/cryptox"
)

// PinLength is the exact number of digits in a PIN.
const PinLength = 4

const (
	keySalt     = "pin.salt"
	keyVerifier = "pin.verifier"
	keyPrefix   = "pin."
)

var (
	ErrInvalidPin = fmt.Errorf("pin must be exactly %d digits", PinLength)
	ErrNoPin      = errors.New("no pin set")
	ErrLocked     = errors.New("pin gate is locked")
)

// Store persists the PIN verifier. metadata.Repository satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, prefix string) error
}

type Status int

const (
	NoPinSet Status = iota
	Locked
	Unlocked
)

func (s Status) String() string {
	switch s {
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return "no_pin"
	}
}

// State is the gate status plus the failed attempts since the last lock.
type State struct {
	Status   Status
	Attempts int
}

// Signal is a UI cue emitted by the gate.
type Signal int

const (
	// Shake follows every wrong entry.
	Shake Signal = iota + 1
)

type Gate struct {
	store Store

	mu       sync.Mutex
	state    State
	salt     []byte
	verifier []byte
	signals  chan Signal
}

// Open loads the stored verifier. The gate starts Locked when a PIN exists
// and NoPinSet otherwise, never Unlocked.
func Open(ctx context.Context, store Store) (*Gate, error) {
	salt, err := store.Get(ctx, keySalt)
	if err != nil {
		return nil, err
	}
	verifier, err := store.Get(ctx, keyVerifier)
	if err != nil {
		return nil, err
	}

	g := &Gate{store: store, signals: make(chan Signal, 8)}
	if len(salt) > 0 && len(verifier) > 0 {
		g.salt, g.verifier = salt, verifier
		g.state = State{Status: Locked}
	}
	return g, nil
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Signals delivers Shake cues. Cues are dropped when nobody reads them.
func (g *Gate) Signals() <-chan Signal {
	return g.signals
}

// ValidPin reports whether pin is exactly PinLength ASCII digits.
func ValidPin(pin string) bool {
	if len(pin) != PinLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

// SetPin stores a new PIN. It is allowed when no PIN exists or the gate is
// unlocked; afterwards the gate is Locked.
func (g *Gate) SetPin(ctx context.Context, pin string) error {
	if !ValidPin(pin) {
		return ErrInvalidPin
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Status == Locked {
		return ErrLocked
	}

	salt := cryptox.NewSalt()
	verifier := cryptox.Seal([]byte(pin), salt)
	if err := g.store.Set(ctx, keySalt, salt); err != nil {
		return err
	}
	if err := g.store.Set(ctx, keyVerifier, verifier); err != nil {
		return err
	}

	g.salt, g.verifier = salt, verifier
	g.state = State{Status: Locked}
	return nil
}

// Enter tries candidate against the stored PIN. Input that is not exactly
// PinLength digits is rejected with ErrInvalidPin and does not count as an
// attempt.
func (g *Gate) Enter(candidate string) (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state.Status {
	case NoPinSet:
		return g.state, ErrNoPin
	case Unlocked:
		return g.state, nil
	}
	if !ValidPin(candidate) {
		return g.state, ErrInvalidPin
	}

	if cryptox.Check([]byte(candidate), g.salt, g.verifier) {
		g.state = State{Status: Unlocked}
		return g.state, nil
	}

	g.state.Attempts++
	select {
	case g.signals <- Shake:
	default:
	}
	return g.state, nil
}

// Lock ends the unlocked session and resets the attempt counter.
func (g *Gate) Lock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Status != NoPinSet {
		g.state = State{Status: Locked}
	}
}

// ClearPin forgets the PIN on this device, e.g. when local data is wiped on
// sign-out.
func (g *Gate) ClearPin(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.store.Clear(ctx, keyPrefix); err != nil {
		return err
	}
	g.salt, g.verifier = nil, nil
	g.state = State{Status: NoPinSet}
	return nil
}

// Hidden returns the hidden drafts of ds while unlocked, and nothing
// otherwise.
func (g *Gate) Hidden(ds []models.Draft) []models.Draft {
	if g.State().Status != Unlocked {
		return nil
	}
	out := make([]models.Draft, 0, len(ds))
	for _, d := range ds {
		if d.Hidden {
			out = append(out, d)
		}
	}
	return out
}
