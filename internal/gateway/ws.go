package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/hpark-dev/footchess-server/internal/obslog"
	"github.com/hpark-dev/footchess-server/internal/session"
	"github.com/hpark-dev/footchess-server/pkg/fcdto"
)

const (
	wsWriteTimeout = 5 * time.Second
	// wsBuffer absorbs notification bursts; the feed is at-least-once, so a
	// dropped slot is recovered by the next write's snapshot.
	wsBuffer = 16
)

// watch upgrades to a websocket and pushes game snapshots as they change.
// The change feed delivers at-least-once and possibly out of order, so each
// candidate runs through the reconciliation decision before it is forwarded;
// the client never sees a snapshot older than one it already has.
func (h *handlers) watch(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	g, err := h.games.Fetch(r.Context(), gameID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.String("game_id", gameID), zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	// CloseRead drains incoming frames and cancels the context when the
	// client goes away.
	ctx := conn.CloseRead(r.Context())

	updates := make(chan *session.GameSession, wsBuffer)
	cancel, err := h.feed.Subscribe(ctx, gameID, func(fresh *session.GameSession) {
		select {
		case updates <- fresh:
		default:
			// full buffer: the freshest snapshot still arrives behind it
		}
	})
	if err != nil {
		obslog.L().Error("ws_subscribe_error", zap.String("game_id", gameID), zap.Error(err))
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cancel()

	if err := h.push(ctx, conn, "snapshot", g); err != nil {
		return
	}
	local := session.CacheOf(g)

	for {
		select {
		case <-ctx.Done():
			return
		case candidate := <-updates:
			d := session.Decide(local, candidate, nil)
			if !d.Accept {
				continue
			}
			local = session.CacheOf(candidate)
			if err := h.push(ctx, conn, "update", candidate); err != nil {
				return
			}
			if candidate.Status == session.StatusFinished {
				conn.Close(websocket.StatusNormalClosure, "game finished")
				return
			}
		}
	}
}

func (h *handlers) push(ctx context.Context, conn *websocket.Conn, kind string, g *session.GameSession) error {
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, fcdto.GameEvent{Type: kind, Game: toView(g)})
}
