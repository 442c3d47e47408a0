// Package match drives the session lifecycle: create/join, human moves,
// surrender, timeout passes and result archival. Every mutation goes
// through the store's conditional write so concurrent observers can never
// overwrite a newer state with a stale one.
package match

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hpark-dev/footchess-server/internal/engine"
	"github.com/hpark-dev/footchess-server/internal/obslog"
	"github.com/hpark-dev/footchess-server/internal/session"
)

// BotProfileID seats the server-side bot as a regular participant.
const BotProfileID = "bot"

type staticErr string

func (e staticErr) Error() string { return string(e) }

const (
	ErrNotParticipant  = staticErr("profile is not a participant of this game")
	ErrAlreadyInGame   = staticErr("profile already participates in this game")
	ErrPlayerBusy      = staticErr("profile already has an unfinished game")
	ErrGameNotJoinable = staticErr("game is not accepting a second player")
	ErrGameNotActive   = staticErr("game is not in progress")
)

// TurnTaker is the bot executor hook; nil disables bot games.
type TurnTaker interface {
	TakeTurns(ctx context.Context, gameID string)
}

type Config struct {
	WinningScore        int
	TurnTimeout         time.Duration
	TimeoutScanInterval time.Duration
	BotDefaultLevel     string
}

func (c *Config) normalize() {
	if c.WinningScore <= 0 {
		c.WinningScore = session.DefaultWinningScore
	}
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = 60 * time.Second
	}
	if c.TimeoutScanInterval <= 0 {
		c.TimeoutScanInterval = 5 * time.Second
	}
	if c.BotDefaultLevel == "" {
		c.BotDefaultLevel = "normal"
	}
}

type Manager struct {
	store session.Store
	repo  *Repository
	bots  TurnTaker
	cfg   Config
}

func NewManager(store session.Store, cfg Config) *Manager {
	cfg.normalize()
	return &Manager{store: store, cfg: cfg}
}

// AttachRepository wires a database repository for archiving finished games.
func (m *Manager) AttachRepository(r *Repository) {
	if m != nil {
		m.repo = r
	}
}

// AttachBots wires the bot executor.
func (m *Manager) AttachBots(b TurnTaker) {
	if m != nil {
		m.bots = b
	}
}

type CreateOptions struct {
	BotGame        bool
	BotDifficulty  string
	WinningScore   int
	TimeoutEnabled bool
}

// CreateGame opens a session. Human games start waiting for a second
// participant; bot games seat the bot immediately and go in progress.
func (m *Manager) CreateGame(ctx context.Context, creatorID string, opts CreateOptions) (*session.GameSession, error) {
	if creatorID == "" {
		return nil, ErrNotParticipant
	}
	if busy, err := m.store.ActiveGameByUser(ctx, creatorID); err != nil {
		return nil, err
	} else if busy != nil {
		return nil, ErrPlayerBusy
	}

	now := time.Now().UTC()
	g := &session.GameSession{
		ID:             uuid.NewString(),
		Status:         session.StatusWaiting,
		Player1ID:      creatorID,
		WinningScore:   opts.WinningScore,
		TimeoutEnabled: opts.TimeoutEnabled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if g.WinningScore <= 0 {
		g.WinningScore = m.cfg.WinningScore
	}
	if opts.BotGame {
		difficulty := opts.BotDifficulty
		if difficulty == "" {
			difficulty = m.cfg.BotDefaultLevel
		}
		g.Player2ID = BotProfileID
		g.IsBotGame = true
		g.BotPlayer = engine.Away
		g.BotDifficulty = difficulty
		g.Status = session.StatusInProgress
		g.State = engine.NewInitialState(engine.DrawStartingPlayer())
		g.TurnStartedAt = now
	}

	if err := m.store.Create(ctx, g); err != nil {
		return nil, err
	}
	obslog.L().Info("game_create",
		zap.String("game_id", g.ID),
		zap.String("creator", creatorID),
		zap.Bool("bot_game", g.IsBotGame),
		zap.String("status", string(g.Status)),
	)

	m.maybeKickBot(ctx, g)
	return m.store.Fetch(ctx, g.ID)
}

// Join seats the second participant and starts the game. The starting side
// is drawn here and recorded on the state.
func (m *Manager) Join(ctx context.Context, gameID, profileID string) (*session.GameSession, error) {
	if profileID == "" {
		return nil, ErrNotParticipant
	}
	pre := session.Precondition{Status: session.StatusIs(session.StatusWaiting)}
	g, err := m.store.Update(ctx, gameID, pre, func(cur *session.GameSession) error {
		if cur.Player1ID == profileID {
			return ErrAlreadyInGame
		}
		if cur.Player2ID != "" {
			return ErrGameNotJoinable
		}
		cur.Player2ID = profileID
		cur.Status = session.StatusInProgress
		cur.State = engine.NewInitialState(engine.DrawStartingPlayer())
		cur.TurnStartedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		if errors.Is(err, session.ErrStale) {
			// either already started or a concurrent join won
			return nil, ErrGameNotJoinable
		}
		return nil, err
	}
	obslog.L().Info("game_join",
		zap.String("game_id", g.ID),
		zap.String("profile", profileID),
		zap.String("starting_player", string(g.State.StartingPlayer)),
	)
	return g, nil
}

// Fetch exposes the authoritative record for read access.
func (m *Manager) Fetch(ctx context.Context, gameID string) (*session.GameSession, error) {
	return m.store.Fetch(ctx, gameID)
}

// PlayMove validates and applies a move for the acting profile. The write
// carries a history-length precondition, so a concurrent move loses with
// ErrStale instead of forking the turn sequence.
func (m *Manager) PlayMove(ctx context.Context, gameID, profileID string, from, to engine.Position) (*session.GameSession, error) {
	g, err := m.store.Fetch(ctx, gameID)
	if err != nil {
		return nil, err
	}
	side := g.SideOf(profileID)
	if side == "" {
		return nil, ErrNotParticipant
	}
	if g.Status != session.StatusInProgress {
		return nil, ErrGameNotActive
	}
	oldLen := g.HistoryLen()
	mv := engine.Move{Player: side, From: from, To: to}

	pre := session.Precondition{
		Status:     session.StatusIs(session.StatusInProgress),
		HistoryLen: session.HistoryLenIs(oldLen),
	}
	updated, err := m.store.Update(ctx, gameID, pre, func(cur *session.GameSession) error {
		if cur.SideOf(profileID) != side {
			return ErrNotParticipant
		}
		out, aerr := engine.ApplyMove(cur.State, mv)
		if aerr != nil {
			return aerr
		}
		cur.State = out.Next
		if cur.MaybeFinish() {
			cur.TurnStartedAt = time.Time{}
		} else {
			cur.TurnStartedAt = time.Now().UTC()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	obslog.L().Info("game_move",
		zap.String("game_id", gameID),
		zap.String("profile", profileID),
		zap.String("player", string(side)),
		zap.Int("history_len", updated.HistoryLen()),
		zap.String("status", string(updated.Status)),
	)
	m.afterWrite(ctx, updated)
	return updated, nil
}

// Surrender ends the game immediately in favor of the opponent, regardless
// of turn or score. Racing finishers resolve through the precondition: the
// loser's write is a stale no-op, never a double finish.
func (m *Manager) Surrender(ctx context.Context, gameID, profileID string) (*session.GameSession, error) {
	pre := session.Precondition{Status: session.StatusIs(session.StatusInProgress)}
	g, err := m.store.Update(ctx, gameID, pre, func(cur *session.GameSession) error {
		if cur.SideOf(profileID) == "" {
			return ErrNotParticipant
		}
		cur.Status = session.StatusFinished
		cur.WinnerID = cur.OpponentOf(profileID)
		cur.TurnStartedAt = time.Time{}
		return nil
	})
	if err != nil {
		if errors.Is(err, session.ErrStale) {
			return nil, ErrGameNotActive
		}
		return nil, err
	}
	obslog.L().Info("game_surrender",
		zap.String("game_id", gameID),
		zap.String("surrendered_by", profileID),
		zap.String("winner", g.WinnerID),
	)
	m.archiveIfFinished(ctx, g)
	return g, nil
}

// ForcePass flips the turn without a move record. expect pins the side and
// history length the pass was decided on; "it already changed" and
// "already finished" come back as stale and are no-ops, not errors.
func (m *Manager) ForcePass(ctx context.Context, gameID string, expect engine.Player, historyLen int) (*session.GameSession, error) {
	pre := session.Precondition{
		Status:     session.StatusIs(session.StatusInProgress),
		Turn:       session.TurnIs(expect),
		HistoryLen: session.HistoryLenIs(historyLen),
	}
	g, err := m.store.Update(ctx, gameID, pre, func(cur *session.GameSession) error {
		cur.State = engine.Pass(cur.State)
		cur.TurnStartedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		if errors.Is(err, session.ErrStale) || errors.Is(err, session.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	obslog.L().Info("turn_pass",
		zap.String("game_id", gameID),
		zap.String("passed_player", string(expect)),
		zap.String("turn", string(g.State.Turn)),
	)
	m.afterWrite(ctx, g)
	return g, nil
}

// afterWrite archives terminal sessions and hands the turn to the bot when
// it is now on the move.
func (m *Manager) afterWrite(ctx context.Context, g *session.GameSession) {
	if g.Status == session.StatusFinished {
		m.archiveIfFinished(ctx, g)
		return
	}
	m.maybeKickBot(ctx, g)
}

func (m *Manager) maybeKickBot(ctx context.Context, g *session.GameSession) {
	if m.bots == nil || !g.IsBotGame || g.Status != session.StatusInProgress {
		return
	}
	if g.State == nil || g.State.Turn != g.BotPlayer {
		return
	}
	m.bots.TakeTurns(ctx, g.ID)
	if updated, err := m.store.Fetch(ctx, g.ID); err == nil && updated.Status == session.StatusFinished {
		m.archiveIfFinished(ctx, updated)
	}
}

func (m *Manager) archiveIfFinished(ctx context.Context, g *session.GameSession) {
	if m.repo == nil || g == nil || g.Status != session.StatusFinished {
		return
	}
	if err := m.repo.SaveResult(ctx, g); err != nil {
		obslog.L().Error("game_archive_error", zap.String("game_id", g.ID), zap.Error(err))
		return
	}
	obslog.L().Info("game_archive", zap.String("game_id", g.ID), zap.String("winner", g.WinnerID))
}
