package session

import (
	"context"

	"github.com/hpark-dev/footchess-server/internal/engine"
)

// Store errors. staticErr keeps them comparable without allocation.
type staticErr string

func (e staticErr) Error() string { return string(e) }

const (
	// ErrNotFound means no session exists under the requested ID.
	ErrNotFound = staticErr("game session not found")
	// ErrStale is a precondition failure: someone else wrote first. Callers
	// re-fetch and re-run reconciliation instead of surfacing it.
	ErrStale = staticErr("stale write: session changed concurrently")
	// ErrExists rejects creating a session under a taken ID.
	ErrExists = staticErr("game session already exists")
)

// Precondition is the compare-and-swap contract attached to every write:
// "update only if the server-held record still matches". Nil fields are
// not checked.
type Precondition struct {
	Status     *Status
	Turn       *engine.Player
	HistoryLen *int
}

// Check reports whether the freshest record still satisfies the precondition.
func (p Precondition) Check(g *GameSession) bool {
	if p.Status != nil && g.Status != *p.Status {
		return false
	}
	if p.Turn != nil && (g.State == nil || g.State.Turn != *p.Turn) {
		return false
	}
	if p.HistoryLen != nil && g.HistoryLen() != *p.HistoryLen {
		return false
	}
	return true
}

// StatusIs / TurnIs / HistoryLenIs build the common preconditions.
func StatusIs(s Status) *Status             { return &s }
func TurnIs(p engine.Player) *engine.Player { return &p }
func HistoryLenIs(n int) *int               { return &n }

// UpdateFunc mutates the freshest copy of a session inside the store's
// transaction. Returning an error aborts the write and surfaces the error
// unchanged (e.g. an engine.IllegalMoveError).
type UpdateFunc func(*GameSession) error

// Store is the narrow persistence contract the core writes through.
type Store interface {
	// Fetch returns the authoritative session or ErrNotFound.
	Fetch(ctx context.Context, gameID string) (*GameSession, error)

	// Create persists a brand-new session and indexes its participants.
	Create(ctx context.Context, g *GameSession) error

	// Update re-reads the session inside a transaction, verifies pre, runs
	// mutate on the fresh copy and writes it back atomically. A losing race
	// or failed precondition yields ErrStale; the caller treats that as
	// "someone else moved first", never as a user-facing error.
	Update(ctx context.Context, gameID string, pre Precondition, mutate UpdateFunc) (*GameSession, error)

	// Subscribe registers fn on the session's change feed. Delivery is
	// at-least-once and may arrive out of order relative to history length;
	// receivers run reconciliation. The returned func cancels the
	// subscription.
	Subscribe(ctx context.Context, gameID string, fn func(*GameSession)) (func(), error)

	// ActiveGameIDs lists sessions not yet finished, for the timeout
	// enforcer's scan.
	ActiveGameIDs(ctx context.Context) ([]string, error)

	// ActiveGameByUser returns the most recently updated unfinished session
	// the profile participates in, or nil.
	ActiveGameByUser(ctx context.Context, profileID string) (*GameSession, error)
}
