package session

import (
	"time"

	"github.com/hpark-dev/footchess-server/internal/engine"
)

// Status represents the game session lifecycle.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinished   Status = "FINISHED"
)

const DefaultWinningScore = 3

// GameSession is the authoritative persisted record. Every observer (both
// clients, the bot executor, the timeout enforcer) reads and conditionally
// writes this one value; the store's precondition check is the only mutual
// exclusion in the system.
type GameSession struct {
	ID        string `json:"id"`
	Status    Status `json:"status"`
	Player1ID string `json:"player_1_id"`
	Player2ID string `json:"player_2_id,omitempty"`
	WinnerID  string `json:"winner_id,omitempty"`

	IsBotGame     bool          `json:"is_bot_game,omitempty"`
	BotPlayer     engine.Player `json:"bot_player,omitempty"`
	BotDifficulty string        `json:"bot_difficulty,omitempty"`

	WinningScore   int  `json:"winning_score"`
	TimeoutEnabled bool `json:"timeout_enabled"`

	State *engine.GameState `json:"game_state,omitempty"`

	TurnStartedAt time.Time `json:"turn_started_at,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Normalize default-fills fields that may be absent or zero on a record
// read back from the store.
func (g *GameSession) Normalize() {
	if g.Status == "" {
		g.Status = StatusWaiting
	}
	if g.WinningScore <= 0 {
		g.WinningScore = DefaultWinningScore
	}
	if g.State != nil {
		g.State.Normalize()
	}
}

// HistoryLen is the freshness signal: the count of accepted move records.
func (g *GameSession) HistoryLen() int {
	if g.State == nil {
		return 0
	}
	return len(g.State.History)
}

// SideOf maps a profile ID onto its board side, or "" for non-participants.
func (g *GameSession) SideOf(profileID string) engine.Player {
	if profileID == "" {
		return ""
	}
	switch profileID {
	case g.Player1ID:
		return engine.Home
	case g.Player2ID:
		return engine.Away
	}
	return ""
}

// ProfileOf is the inverse of SideOf.
func (g *GameSession) ProfileOf(p engine.Player) string {
	if p == engine.Home {
		return g.Player1ID
	}
	return g.Player2ID
}

// MaybeFinish transitions the session to finished when a side has reached
// the winning score. Reports whether it transitioned.
func (g *GameSession) MaybeFinish() bool {
	if g.Status != StatusInProgress || g.State == nil {
		return false
	}
	for _, p := range []engine.Player{engine.Home, engine.Away} {
		if g.State.Score.Of(p) >= g.WinningScore {
			g.Status = StatusFinished
			g.WinnerID = g.ProfileOf(p)
			return true
		}
	}
	return false
}

// OpponentOf returns the other participant's profile ID.
func (g *GameSession) OpponentOf(profileID string) string {
	switch profileID {
	case g.Player1ID:
		return g.Player2ID
	case g.Player2ID:
		return g.Player1ID
	}
	return ""
}
