package fcdto

import "time"

type ScoreView struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

type PieceView struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Owner string `json:"owner"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
}

type MoveView struct {
	Player  string `json:"player"`
	FromRow int    `json:"from_row"`
	FromCol int    `json:"from_col"`
	ToRow   int    `json:"to_row"`
	ToCol   int    `json:"to_col"`
}

// GameView is the client-facing snapshot of one game. MoveCount doubles as
// the freshness marker: a view with a higher count supersedes a lower one.
type GameView struct {
	GameID         string      `json:"game_id"`
	Status         string      `json:"status"`
	Player1ID      string      `json:"player1_id"`
	Player2ID      string      `json:"player2_id,omitempty"`
	WinnerID       string      `json:"winner_id,omitempty"`
	IsBotGame      bool        `json:"is_bot_game"`
	BotDifficulty  string      `json:"bot_difficulty,omitempty"`
	WinningScore   int         `json:"winning_score"`
	TimeoutEnabled bool        `json:"timeout_enabled"`
	Turn           string      `json:"turn,omitempty"`
	StartingPlayer string      `json:"starting_player,omitempty"`
	Score          ScoreView   `json:"score"`
	MoveCount      int         `json:"move_count"`
	Pieces         []PieceView `json:"pieces,omitempty"`
	LastMove       *MoveView   `json:"last_move,omitempty"`
	TurnStartedAt  *time.Time  `json:"turn_started_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
