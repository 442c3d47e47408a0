package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/hpark-dev/footchess-server/internal/engine"
	"github.com/hpark-dev/footchess-server/internal/match"
	"github.com/hpark-dev/footchess-server/internal/render"
	"github.com/hpark-dev/footchess-server/internal/session"
	"github.com/hpark-dev/footchess-server/internal/session/redisstore"
	"github.com/hpark-dev/footchess-server/pkg/fcdto"
)

func newTestServer(t *testing.T) (*match.Manager, http.Handler) {
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
	m := match.NewManager(store, match.Config{})
	return m, NewServer(m, store, render.NewSVGBoardRenderer())
}

func doJSON(t *testing.T, h http.Handler, method, path, profile string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body := bytes.NewBuffer(nil)
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if profile != "" {
		req.Header.Set(profileHeader, profile)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeGame(t *testing.T, rr *httptest.ResponseRecorder) *fcdto.GameView {
	t.Helper()
	var resp fcdto.GameResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rr.Body.String())
	}
	return resp.Game
}

func TestCreateRequiresProfileHeader(t *testing.T) {
	_, h := newTestServer(t)
	rr := doJSON(t, h, "POST", "/games", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestCreateJoinPlayOverHTTP(t *testing.T) {
	m, h := newTestServer(t)

	rr := doJSON(t, h, "POST", "/games", "p1", fcdto.CreateGameRequest{})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rr.Code, rr.Body.String())
	}
	created := decodeGame(t, rr)
	if created.Status != string(session.StatusWaiting) {
		t.Fatalf("created status = %s", created.Status)
	}

	rr = doJSON(t, h, "POST", "/games/"+created.GameID+"/join", "p2", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("join status = %d: %s", rr.Code, rr.Body.String())
	}
	joined := decodeGame(t, rr)
	if joined.Status != string(session.StatusInProgress) || len(joined.Pieces) != 24 {
		t.Fatalf("joined: status=%s pieces=%d", joined.Status, len(joined.Pieces))
	}

	// pick a legal move from the authoritative record
	g, err := m.Fetch(context.Background(), created.GameID)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	mover := g.ProfileOf(g.State.Turn)
	mv := engine.LegalMoves(g.State, g.State.Turn)[0]

	rr = doJSON(t, h, "POST", "/games/"+created.GameID+"/moves", mover, fcdto.MoveRequest{
		FromRow: mv.From.Row, FromCol: mv.From.Col,
		ToRow: mv.To.Row, ToCol: mv.To.Col,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("move status = %d: %s", rr.Code, rr.Body.String())
	}
	after := decodeGame(t, rr)
	if after.MoveCount != 1 {
		t.Fatalf("move count = %d, want 1", after.MoveCount)
	}
	if after.LastMove == nil || after.LastMove.ToRow != mv.To.Row {
		t.Fatalf("last move not reported: %+v", after.LastMove)
	}
}

func TestIllegalMoveMapsTo422(t *testing.T) {
	m, h := newTestServer(t)
	rr := doJSON(t, h, "POST", "/games", "p1", nil)
	created := decodeGame(t, rr)
	if rr := doJSON(t, h, "POST", "/games/"+created.GameID+"/join", "p2", nil); rr.Code != http.StatusOK {
		t.Fatalf("join: %d", rr.Code)
	}
	g, err := m.Fetch(context.Background(), created.GameID)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	mover := g.ProfileOf(g.State.Turn)

	rr = doJSON(t, h, "POST", "/games/"+created.GameID+"/moves", mover, fcdto.MoveRequest{
		FromRow: 6, FromCol: 0, ToRow: 7, ToCol: 0,
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rr.Code, rr.Body.String())
	}
	var derr fcdto.DomainError
	if err := json.Unmarshal(rr.Body.Bytes(), &derr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if derr.Code != "illegal_move" || derr.Retryable {
		t.Fatalf("error = %+v", derr)
	}
}

func TestUnknownGameIs404(t *testing.T) {
	_, h := newTestServer(t)
	rr := doJSON(t, h, "GET", "/games/nope", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestSurrenderOverHTTP(t *testing.T) {
	_, h := newTestServer(t)
	rr := doJSON(t, h, "POST", "/games", "p1", nil)
	created := decodeGame(t, rr)
	doJSON(t, h, "POST", "/games/"+created.GameID+"/join", "p2", nil)

	rr = doJSON(t, h, "POST", "/games/"+created.GameID+"/surrender", "p1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("surrender status = %d: %s", rr.Code, rr.Body.String())
	}
	g := decodeGame(t, rr)
	if g.Status != string(session.StatusFinished) || g.WinnerID != "p2" {
		t.Fatalf("surrender outcome: %+v", g)
	}

	// spectators are rejected
	rr = doJSON(t, h, "POST", "/games/"+created.GameID+"/surrender", "p3", nil)
	if rr.Code != http.StatusConflict && rr.Code != http.StatusForbidden {
		t.Fatalf("spectator surrender status = %d", rr.Code)
	}
}

func TestBoardImageEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	rr := doJSON(t, h, "POST", "/games", "p1", nil)
	created := decodeGame(t, rr)

	// no board before the game starts
	rr = doJSON(t, h, "GET", "/games/"+created.GameID+"/board.png", "", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("pre-start board status = %d", rr.Code)
	}

	doJSON(t, h, "POST", "/games/"+created.GameID+"/join", "p2", nil)
	rr = doJSON(t, h, "GET", "/games/"+created.GameID+"/board.png", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("board status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("body is not a png")
	}
}
