package session

import (
	"time"

	"github.com/hpark-dev/footchess-server/internal/engine"
)

// Cache is the triple an observer holds about the session it last accepted.
type Cache struct {
	HistoryLen int
	Turn       engine.Player
	Status     Status
}

// CacheOf snapshots a session into the observer-side triple.
func CacheOf(g *GameSession) Cache {
	c := Cache{HistoryLen: g.HistoryLen(), Status: g.Status}
	if g.State != nil {
		c.Turn = g.State.Turn
	}
	return c
}

// PendingMove marks an optimistically applied local move awaiting the
// store's confirmation. It is threaded through Decide as an argument, not
// held as ambient state.
type PendingMove struct {
	Player                 engine.Player
	HistoryLenAtSubmission int
	SubmittedAt            time.Time
}

// Decision of the reconciliation protocol for one candidate state.
type Decision struct {
	Accept bool
	// ConfirmsPending marks the accepted candidate as the store's echo of
	// the observer's own in-flight move.
	ConfirmsPending bool
	Reason          string
}

func accept(reason string) Decision  { return Decision{Accept: true, Reason: reason} }
func discard(reason string) Decision { return Decision{Reason: reason} }

// Decide runs the reconciliation protocol: given the observer's cached
// triple, a candidate state arriving from the feed or a poll, and the
// observer's in-flight move if any, it decides accept or discard. The sole
// invariant: never replace a held state with one of equal-or-lower history
// length unless it is the same move's confirmation or a status change, so
// out-of-order notifications can never visually undo a move. Pure and
// transport-agnostic; feeding the same candidate twice yields the same
// decision.
func Decide(local Cache, candidate *GameSession, pending *PendingMove) Decision {
	if candidate == nil {
		return discard("no candidate")
	}
	candLen := candidate.HistoryLen()
	var candTurn engine.Player
	if candidate.State != nil {
		candTurn = candidate.State.Turn
	}

	if pending != nil {
		postLen := pending.HistoryLenAtSubmission + 1
		switch {
		case candLen > postLen:
			// an opponent or bot move interleaved on top of ours
			return accept("superseded pending move")
		case candLen == postLen && candTurn != pending.Player:
			d := accept("confirms pending move")
			d.ConfirmsPending = true
			return d
		case candLen == postLen:
			return discard("duplicate of pending move")
		default:
			return discard("older than pending move")
		}
	}

	switch {
	case candLen > local.HistoryLen:
		return accept("newer history")
	case candLen == local.HistoryLen && candTurn != local.Turn:
		// a pass: same history, turn flipped
		return accept("turn changed")
	case candLen == local.HistoryLen && candidate.Status != local.Status:
		// waiting -> in_progress, surrender, timeout-driven finish
		return accept("status changed")
	default:
		return discard("not newer")
	}
}
