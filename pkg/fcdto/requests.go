package fcdto

type CreateGameRequest struct {
	BotGame        bool   `json:"bot_game"`
	BotDifficulty  string `json:"bot_difficulty,omitempty"`
	WinningScore   int    `json:"winning_score,omitempty"`
	TimeoutEnabled bool   `json:"timeout_enabled"`
}

type MoveRequest struct {
	FromRow int `json:"from_row"`
	FromCol int `json:"from_col"`
	ToRow   int `json:"to_row"`
	ToCol   int `json:"to_col"`
}

type GameResponse struct {
	Game *GameView `json:"game"`
}

// GameEvent is pushed on the websocket feed whenever the game record
// changes: moves, passes, joins and finishes all arrive as fresh snapshots.
type GameEvent struct {
	Type string    `json:"type"`
	Game *GameView `json:"game"`
}
