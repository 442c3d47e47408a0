package engine

import "time"

// Player identifies a side of the board.
type Player string

const (
	Home Player = "home"
	Away Player = "away"
)

// Opponent returns the other side.
func (p Player) Opponent() Player {
	if p == Home {
		return Away
	}
	return Home
}

// PieceType is one of the four movement classes.
type PieceType string

const (
	LaneRunner PieceType = "lane_runner"
	Defender   PieceType = "defender"
	Midfielder PieceType = "midfielder"
	Forward    PieceType = "forward"
)

// CanScore reports whether the type may trigger a goal. Defenders never score.
func (t PieceType) CanScore() bool { return t != Defender }

// Piece is immutable once placed; captures delete it, nothing reassigns it.
type Piece struct {
	ID    string    `json:"id"`
	Type  PieceType `json:"type"`
	Owner Player    `json:"owner"`
}

// Position addresses a cell on the 12x8 grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Move is a request; it is not trusted until validated.
type Move struct {
	Player Player   `json:"player"`
	From   Position `json:"from"`
	To     Position `json:"to"`
}

// GoalEvent annotates a MoveRecord that scored.
type GoalEvent struct {
	ScoringPlayer Player `json:"scoring_player"`
}

// MoveRecord is an append-only history entry. History length is the
// authoritative freshness signal for reconciliation.
type MoveRecord struct {
	MoveNumber      int        `json:"move_number"`
	Player          Player     `json:"player"`
	PieceID         string     `json:"piece_id"`
	From            Position   `json:"from"`
	To              Position   `json:"to"`
	CapturedPieceID string     `json:"captured_piece_id,omitempty"`
	Goal            *GoalEvent `json:"goal,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
}

// Score keeps goals per side.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Of returns the score for a side.
func (s Score) Of(p Player) int {
	if p == Home {
		return s.Home
	}
	return s.Away
}

// GameState is the value produced by the rule engine; it is what gets
// persisted and broadcast.
type GameState struct {
	Board          *Board       `json:"board"`
	Turn           Player       `json:"turn"`
	Score          Score        `json:"score"`
	LastMove       *MoveRecord  `json:"last_move,omitempty"`
	History        []MoveRecord `json:"history"`
	StartingPlayer Player       `json:"starting_player"`
}

// MoveOutcome is the result of applying a validated move.
type MoveOutcome struct {
	Next    *GameState
	Capture *Piece
	Goal    *GoalEvent
}

// Clone deep-copies the state so callers can apply moves without mutating
// the source value.
func (s *GameState) Clone() *GameState {
	next := &GameState{
		Board:          s.Board.Clone(),
		Turn:           s.Turn,
		Score:          s.Score,
		StartingPlayer: s.StartingPlayer,
	}
	if s.LastMove != nil {
		lm := *s.LastMove
		next.LastMove = &lm
	}
	next.History = make([]MoveRecord, len(s.History))
	copy(next.History, s.History)
	return next
}

// Normalize default-fills fields that may be absent on a state read back
// from the store.
func (s *GameState) Normalize() {
	if s.Board == nil {
		s.Board = NewBoard()
	}
	if s.Turn == "" {
		s.Turn = s.StartingPlayer
	}
	if s.Turn == "" {
		s.Turn = Home
	}
	if s.StartingPlayer == "" {
		s.StartingPlayer = s.Turn
	}
	if s.History == nil {
		s.History = []MoveRecord{}
	}
}
