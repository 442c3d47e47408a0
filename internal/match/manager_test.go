package match

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/hpark-dev/footchess-server/internal/bot"
	"github.com/hpark-dev/footchess-server/internal/engine"
	"github.com/hpark-dev/footchess-server/internal/session"
	"github.com/hpark-dev/footchess-server/internal/session/redisstore"
)

func newTestManager(t *testing.T) (*Manager, *redisstore.Store) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	store, err := redisstore.New(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("redisstore.New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	m := NewManager(store, Config{
		WinningScore:        3,
		TurnTimeout:         50 * time.Millisecond,
		TimeoutScanInterval: 10 * time.Millisecond,
	})
	return m, store
}

func startedGame(t *testing.T, m *Manager) *session.GameSession {
	t.Helper()
	ctx := context.Background()
	g, err := m.CreateGame(ctx, "p1", CreateOptions{})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	g, err = m.Join(ctx, g.ID, "p2")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	return g
}

func TestCreateAndJoinLifecycle(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	g, err := m.CreateGame(ctx, "p1", CreateOptions{TimeoutEnabled: true})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if g.Status != session.StatusWaiting || g.State != nil {
		t.Fatalf("fresh game: status=%s state=%v", g.Status, g.State)
	}

	if _, err := m.Join(ctx, g.ID, "p1"); !errors.Is(err, ErrAlreadyInGame) {
		t.Fatalf("self-join: %v", err)
	}

	joined, err := m.Join(ctx, g.ID, "p2")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if joined.Status != session.StatusInProgress || joined.State == nil {
		t.Fatalf("join did not start the game: %+v", joined)
	}
	if joined.TurnStartedAt.IsZero() {
		t.Fatalf("turn countdown not armed on start")
	}
	if sp := joined.State.StartingPlayer; sp != engine.Home && sp != engine.Away {
		t.Fatalf("starting player not drawn: %q", sp)
	}

	if _, err := m.Join(ctx, g.ID, "p3"); !errors.Is(err, ErrGameNotJoinable) {
		t.Fatalf("third join: %v", err)
	}
}

func TestCreateRejectsBusyPlayer(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	if _, err := m.CreateGame(ctx, "p1", CreateOptions{}); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if _, err := m.CreateGame(ctx, "p1", CreateOptions{}); !errors.Is(err, ErrPlayerBusy) {
		t.Fatalf("second create: %v", err)
	}
}

func TestPlayMoveAppliesAndRejects(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	g := startedGame(t, m)

	mover := g.ProfileOf(g.State.Turn)
	opponent := g.OpponentOf(mover)

	// out-of-turn move is rejected with the engine's reason
	oppMoves := engine.LegalMoves(g.State, g.State.Turn.Opponent())
	_, err := m.PlayMove(ctx, g.ID, opponent, oppMoves[0].From, oppMoves[0].To)
	var ime *engine.IllegalMoveError
	if !errors.As(err, &ime) || ime.Reason != engine.ReasonNotYourTurn {
		t.Fatalf("out-of-turn: %v", err)
	}

	// stranger cannot move at all
	if _, err := m.PlayMove(ctx, g.ID, "stranger", oppMoves[0].From, oppMoves[0].To); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("stranger move: %v", err)
	}

	mv := engine.LegalMoves(g.State, g.State.Turn)[0]
	updated, err := m.PlayMove(ctx, g.ID, mover, mv.From, mv.To)
	if err != nil {
		t.Fatalf("PlayMove: %v", err)
	}
	if updated.HistoryLen() != 1 {
		t.Fatalf("history = %d, want 1", updated.HistoryLen())
	}
	if updated.State.Turn == g.State.Turn {
		t.Fatalf("turn did not flip")
	}
	if updated.TurnStartedAt.IsZero() {
		t.Fatalf("turn countdown not re-armed")
	}
}

func TestPlayMoveEmptyOrigin(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	g := startedGame(t, m)
	mover := g.ProfileOf(g.State.Turn)

	_, err := m.PlayMove(ctx, g.ID, mover, engine.Position{Row: 6, Col: 0}, engine.Position{Row: 7, Col: 0})
	var ime *engine.IllegalMoveError
	if !errors.As(err, &ime) || ime.Reason != engine.ReasonNoPiece {
		t.Fatalf("empty origin: %v", err)
	}
}

// A goal that reaches the winning score finishes the game and names the
// side's profile as winner.
func TestWinningScoreFinishesGame(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	g := startedGame(t, m)

	// rig the position: home forward one step from a goal at match point
	_, err := store.Update(ctx, g.ID, session.Precondition{}, func(cur *session.GameSession) error {
		st := engine.NewInitialState(engine.Home)
		st.Board = &engine.Board{}
		st.Board.Grid[10][4] = &engine.Piece{ID: "home-forward-1", Type: engine.Forward, Owner: engine.Home}
		st.Board.Grid[2][0] = &engine.Piece{ID: "away-defender-1", Type: engine.Defender, Owner: engine.Away}
		st.Score = engine.Score{Home: 2, Away: 0}
		st.Turn = engine.Home
		cur.State = st
		return nil
	})
	if err != nil {
		t.Fatalf("rig state: %v", err)
	}

	updated, err := m.PlayMove(ctx, g.ID, "p1", engine.Position{Row: 10, Col: 4}, engine.Position{Row: 11, Col: 4})
	if err != nil {
		t.Fatalf("PlayMove: %v", err)
	}
	if updated.Status != session.StatusFinished {
		t.Fatalf("status = %s, want finished", updated.Status)
	}
	if updated.WinnerID != "p1" {
		t.Fatalf("winner = %q, want p1", updated.WinnerID)
	}
	if updated.State.Score.Home != 3 {
		t.Fatalf("score = %+v", updated.State.Score)
	}

	// terminal state accepts no further moves
	if _, err := m.PlayMove(ctx, g.ID, "p2", engine.Position{Row: 9, Col: 0}, engine.Position{Row: 8, Col: 0}); !errors.Is(err, ErrGameNotActive) {
		t.Fatalf("move after finish: %v", err)
	}
}

// Surrender finishes immediately for the opponent, independent of score.
func TestSurrenderMidGame(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	g := startedGame(t, m)

	_, err := store.Update(ctx, g.ID, session.Precondition{}, func(cur *session.GameSession) error {
		cur.State.Score = engine.Score{Home: 1, Away: 2}
		return nil
	})
	if err != nil {
		t.Fatalf("rig score: %v", err)
	}

	finished, err := m.Surrender(ctx, g.ID, "p2")
	if err != nil {
		t.Fatalf("Surrender: %v", err)
	}
	if finished.Status != session.StatusFinished || finished.WinnerID != "p1" {
		t.Fatalf("surrender outcome: status=%s winner=%q", finished.Status, finished.WinnerID)
	}
	if finished.State.Score.Away != 2 {
		t.Fatalf("surrender touched the score: %+v", finished.State.Score)
	}

	// second finish trigger is a no-op error, not a double finish
	if _, err := m.Surrender(ctx, g.ID, "p1"); !errors.Is(err, ErrGameNotActive) {
		t.Fatalf("double surrender: %v", err)
	}
}

func TestForcePassSemantics(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	g := startedGame(t, m)
	turn := g.State.Turn

	// wrong expectation is a silent no-op
	skipped, err := m.ForcePass(ctx, g.ID, turn.Opponent(), g.HistoryLen())
	if err != nil || skipped != nil {
		t.Fatalf("mismatched pass: %+v, %v", skipped, err)
	}

	passed, err := m.ForcePass(ctx, g.ID, turn, g.HistoryLen())
	if err != nil {
		t.Fatalf("ForcePass: %v", err)
	}
	if passed.State.Turn != turn.Opponent() {
		t.Fatalf("pass did not flip the turn")
	}
	if passed.HistoryLen() != g.HistoryLen() {
		t.Fatalf("pass appended a move record")
	}

	// replaying the same pass decision is stale and a no-op
	again, err := m.ForcePass(ctx, g.ID, turn, g.HistoryLen())
	if err != nil || again != nil {
		t.Fatalf("replayed pass: %+v, %v", again, err)
	}
}

func TestTimeoutEnforcerForcesPass(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	g, err := m.CreateGame(ctx, "p1", CreateOptions{TimeoutEnabled: true})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if _, err := m.Join(ctx, g.ID, "p2"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	// age the countdown past the 50ms test timeout
	before, _ := store.Update(ctx, g.ID, session.Precondition{}, func(cur *session.GameSession) error {
		cur.TurnStartedAt = time.Now().UTC().Add(-time.Second)
		return nil
	})

	m.enforceTimeouts(ctx)

	after, err := store.Fetch(ctx, g.ID)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if after.State.Turn != before.State.Turn.Opponent() {
		t.Fatalf("timeout did not pass the turn")
	}
	if after.HistoryLen() != 0 {
		t.Fatalf("timeout appended a move record")
	}
	if after.State.Score != before.State.Score {
		t.Fatalf("timeout touched the score")
	}

	// a fresh countdown does not expire
	m.enforceTimeouts(ctx)
	again, _ := store.Fetch(ctx, g.ID)
	if again.State.Turn != after.State.Turn {
		t.Fatalf("enforcer passed a non-expired turn")
	}
}

// A bot game always leaves the human on the move after creation: if the
// draw gave the bot the opening turn, the executor plays it right away.
func TestBotGameLifecycle(t *testing.T) {
	m, store := newTestManager(t)
	m.AttachBots(bot.NewExecutor(store))
	ctx := context.Background()

	g, err := m.CreateGame(ctx, "human", CreateOptions{BotGame: true, BotDifficulty: "normal"})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if !g.IsBotGame || g.Player2ID != BotProfileID || g.Status != session.StatusInProgress {
		t.Fatalf("bot game not seated: %+v", g)
	}
	if g.State.Turn != engine.Home {
		t.Fatalf("human not on the move after create: turn=%s history=%d", g.State.Turn, g.HistoryLen())
	}

	mv := engine.LegalMoves(g.State, engine.Home)[0]
	updated, err := m.PlayMove(ctx, g.ID, "human", mv.From, mv.To)
	if err != nil {
		t.Fatalf("PlayMove: %v", err)
	}
	final, err := store.Fetch(ctx, g.ID)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if final.HistoryLen() != updated.HistoryLen()+1 {
		t.Fatalf("bot did not answer: history=%d", final.HistoryLen())
	}
	if final.State.Turn != engine.Home {
		t.Fatalf("turn not back with the human: %s", final.State.Turn)
	}
}
