package match

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/hpark-dev/footchess-server/internal/session"
)

// Repository archives finished games in Postgres. The Redis record expires;
// this is the durable copy.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts a finished game so a replayed archive trigger cannot
// duplicate rows.
func (r *Repository) SaveResult(ctx context.Context, g *session.GameSession) error {
	if r == nil || r.db == nil || g == nil {
		return nil
	}
	if g.Status != session.StatusFinished {
		return nil
	}

	var scoreHome, scoreAway, moveCount int
	var historyRaw []byte
	if g.State != nil {
		scoreHome = g.State.Score.Home
		scoreAway = g.State.Score.Away
		moveCount = len(g.State.History)
		historyRaw, _ = json.Marshal(g.State.History)
	}
	duration := g.UpdatedAt.Sub(g.CreatedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := `INSERT INTO footchess_games (
	    game_id, player_1_id, player_2_id, winner_id,
	    score_home, score_away, move_count, history,
	    is_bot_game, bot_difficulty, winning_score,
	    started_at, ended_at, duration_ms
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
	  ) ON CONFLICT (game_id) DO UPDATE SET
	    winner_id=EXCLUDED.winner_id,
	    score_home=EXCLUDED.score_home,
	    score_away=EXCLUDED.score_away,
	    move_count=EXCLUDED.move_count,
	    history=EXCLUDED.history,
	    ended_at=EXCLUDED.ended_at,
	    duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		g.ID, g.Player1ID, g.Player2ID, g.WinnerID,
		scoreHome, scoreAway, moveCount, string(historyRaw),
		g.IsBotGame, g.BotDifficulty, g.WinningScore,
		g.CreatedAt, g.UpdatedAt, duration,
	)
	return err
}
