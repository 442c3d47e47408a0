package bot

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hpark-dev/footchess-server/internal/engine"
	"github.com/hpark-dev/footchess-server/internal/obslog"
	"github.com/hpark-dev/footchess-server/internal/session"
)

// DefaultMaxChainedMoves bounds one invocation of the executor. A normal
// move always flips the turn away from the bot, so the bound only matters
// if turn handling ever regressed.
const DefaultMaxChainedMoves = 4

// AdvisoryScorer is the optional external suggestion service. It must
// return a member of legal or nil; anything else is treated as nil. It is
// never authoritative: on error or timeout the heuristic choice stands.
type AdvisoryScorer interface {
	Suggest(ctx context.Context, state *engine.GameState, legal []engine.Move, acting engine.Player) (*engine.Move, error)
}

type Executor struct {
	store           session.Store
	advisory        AdvisoryScorer
	maxChained      int
	advisoryTimeout time.Duration

	randMu sync.Mutex
	rand   *rand.Rand
}

type Option func(*Executor)

func WithAdvisory(a AdvisoryScorer, timeout time.Duration) Option {
	return func(e *Executor) {
		e.advisory = a
		if timeout > 0 {
			e.advisoryTimeout = timeout
		}
	}
}

func WithMaxChainedMoves(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxChained = n
		}
	}
}

func NewExecutor(store session.Store, opts ...Option) *Executor {
	e := &Executor{
		store:           store,
		maxChained:      DefaultMaxChainedMoves,
		advisoryTimeout: 3 * time.Second,
		rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TakeTurns runs the bounded fetch -> decide -> apply -> persist loop for
// one triggering event. Stale writes and store failures abort the
// invocation silently; the next relevant change re-invokes the executor.
func (e *Executor) TakeTurns(ctx context.Context, gameID string) {
	for i := 0; i < e.maxChained; i++ {
		g, err := e.store.Fetch(ctx, gameID)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				obslog.L().Warn("bot_fetch_error", zap.String("game_id", gameID), zap.Error(err))
			}
			return
		}
		if g.Status != session.StatusInProgress || !g.IsBotGame || g.State == nil || g.State.Turn != g.BotPlayer {
			return
		}

		botPlayer := g.BotPlayer
		histLen := g.HistoryLen()
		pre := session.Precondition{
			Status:     session.StatusIs(session.StatusInProgress),
			Turn:       session.TurnIs(botPlayer),
			HistoryLen: session.HistoryLenIs(histLen),
		}

		legal := engine.LegalMoves(g.State, botPlayer)
		if len(legal) == 0 {
			// forced pass: turn flips, no MoveRecord
			_, err := e.store.Update(ctx, gameID, pre, func(cur *session.GameSession) error {
				cur.State = engine.Pass(cur.State)
				cur.TurnStartedAt = time.Now().UTC()
				return nil
			})
			if err != nil && !errors.Is(err, session.ErrStale) {
				obslog.L().Warn("bot_pass_error", zap.String("game_id", gameID), zap.Error(err))
			}
			obslog.L().Info("bot_pass", zap.String("game_id", gameID), zap.String("bot_player", string(botPlayer)))
			return
		}

		preset := PresetFor(g.BotDifficulty)
		choice := e.chooseMove(g.State, legal, preset)
		choice = e.refineWithAdvisory(ctx, g.State, legal, botPlayer, preset, choice)

		updated, err := e.store.Update(ctx, gameID, pre, func(cur *session.GameSession) error {
			out, aerr := engine.ApplyMove(cur.State, choice)
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
			if errors.Is(err, session.ErrStale) {
				// someone else moved first; the next change feed event
				// will re-invoke us
				obslog.L().Info("bot_move_stale", zap.String("game_id", gameID))
				return
			}
			obslog.L().Warn("bot_move_error", zap.String("game_id", gameID), zap.Error(err))
			return
		}

		obslog.L().Info("bot_move",
			zap.String("game_id", gameID),
			zap.String("bot_player", string(botPlayer)),
			zap.Int("history_len", updated.HistoryLen()),
			zap.String("status", string(updated.Status)),
		)
		if updated.Status != session.StatusInProgress {
			return
		}
		// loop once more: if the turn flipped away, the next iteration
		// aborts at the guard above
	}
}

func (e *Executor) chooseMove(state *engine.GameState, legal []engine.Move, preset Preset) engine.Move {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return ChooseMove(state, legal, preset, e.rand)
}

// refineWithAdvisory lets the external scorer veto the heuristic pick. Any
// failure, timeout or out-of-set suggestion falls open to the heuristic
// choice; the advisory call never blocks move selection.
func (e *Executor) refineWithAdvisory(ctx context.Context, state *engine.GameState, legal []engine.Move, acting engine.Player, preset Preset, heuristic engine.Move) engine.Move {
	if e.advisory == nil || !preset.UseAdvisory {
		return heuristic
	}
	actx, cancel := context.WithTimeout(ctx, e.advisoryTimeout)
	defer cancel()
	sug, err := e.advisory.Suggest(actx, state, legal, acting)
	if err != nil {
		obslog.L().Warn("advisory_unavailable", zap.Error(err))
		return heuristic
	}
	if sug == nil {
		return heuristic
	}
	for _, mv := range legal {
		if mv == *sug {
			return *sug
		}
	}
	obslog.L().Warn("advisory_suggestion_rejected",
		zap.Int("from_row", sug.From.Row), zap.Int("from_col", sug.From.Col),
		zap.Int("to_row", sug.To.Row), zap.Int("to_col", sug.To.Col),
	)
	return heuristic
}
