package gateway

import (
	"github.com/hpark-dev/footchess-server/internal/engine"
	"github.com/hpark-dev/footchess-server/internal/session"
	"github.com/hpark-dev/footchess-server/pkg/fcdto"
)

// toView flattens the server-held record into the wire snapshot.
func toView(g *session.GameSession) *fcdto.GameView {
	if g == nil {
		return nil
	}
	v := &fcdto.GameView{
		GameID:         g.ID,
		Status:         string(g.Status),
		Player1ID:      g.Player1ID,
		Player2ID:      g.Player2ID,
		WinnerID:       g.WinnerID,
		IsBotGame:      g.IsBotGame,
		BotDifficulty:  g.BotDifficulty,
		WinningScore:   g.WinningScore,
		TimeoutEnabled: g.TimeoutEnabled,
		MoveCount:      g.HistoryLen(),
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
	if !g.TurnStartedAt.IsZero() {
		ts := g.TurnStartedAt
		v.TurnStartedAt = &ts
	}
	if g.State == nil {
		return v
	}
	v.Turn = string(g.State.Turn)
	v.StartingPlayer = string(g.State.StartingPlayer)
	v.Score = fcdto.ScoreView{Home: g.State.Score.Home, Away: g.State.Score.Away}
	v.Pieces = pieceViews(g.State.Board)
	if rec := g.State.LastMove; rec != nil {
		v.LastMove = &fcdto.MoveView{
			Player:  string(rec.Player),
			FromRow: rec.From.Row,
			FromCol: rec.From.Col,
			ToRow:   rec.To.Row,
			ToCol:   rec.To.Col,
		}
	}
	return v
}

func pieceViews(b *engine.Board) []fcdto.PieceView {
	if b == nil {
		return nil
	}
	var out []fcdto.PieceView
	for r := 0; r < engine.Rows; r++ {
		for c := 0; c < engine.Cols; c++ {
			if pc := b.Grid[r][c]; pc != nil {
				out = append(out, fcdto.PieceView{
					ID:    pc.ID,
					Type:  string(pc.Type),
					Owner: string(pc.Owner),
					Row:   r,
					Col:   c,
				})
			}
		}
	}
	return out
}
