package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hpark-dev/footchess-server/internal/engine"
	"github.com/hpark-dev/footchess-server/internal/match"
	"github.com/hpark-dev/footchess-server/internal/obslog"
	"github.com/hpark-dev/footchess-server/internal/render"
	"github.com/hpark-dev/footchess-server/internal/session"
	"github.com/hpark-dev/footchess-server/pkg/fcdto"
)

// profileHeader identifies the authenticated caller. The gateway trusts it;
// authentication itself happens upstream.
const profileHeader = "X-Profile-Id"

type handlers struct {
	games    *match.Manager
	feed     session.Store
	renderer render.BoardRenderer
}

func (h *handlers) profileID(w http.ResponseWriter, r *http.Request) (string, bool) {
	pid := r.Header.Get(profileHeader)
	if pid == "" {
		writeError(w, http.StatusUnauthorized, fcdto.DomainError{
			Code:    "missing_profile",
			Message: "the " + profileHeader + " header is required",
		})
		return "", false
	}
	return pid, true
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	pid, ok := h.profileID(w, r)
	if !ok {
		return
	}
	var req fcdto.CreateGameRequest
	if r.Body != nil {
		// an empty body means a plain human game with defaults
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	g, err := h.games.CreateGame(r.Context(), pid, match.CreateOptions{
		BotGame:        req.BotGame,
		BotDifficulty:  req.BotDifficulty,
		WinningScore:   req.WinningScore,
		TimeoutEnabled: req.TimeoutEnabled,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fcdto.GameResponse{Game: toView(g)})
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	g, err := h.games.Fetch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fcdto.GameResponse{Game: toView(g)})
}

func (h *handlers) join(w http.ResponseWriter, r *http.Request) {
	pid, ok := h.profileID(w, r)
	if !ok {
		return
	}
	g, err := h.games.Join(r.Context(), chi.URLParam(r, "id"), pid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fcdto.GameResponse{Game: toView(g)})
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	pid, ok := h.profileID(w, r)
	if !ok {
		return
	}
	var req fcdto.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fcdto.DomainError{
			Code:    "bad_request",
			Message: "malformed move payload",
		})
		return
	}
	g, err := h.games.PlayMove(r.Context(), chi.URLParam(r, "id"), pid,
		engine.Position{Row: req.FromRow, Col: req.FromCol},
		engine.Position{Row: req.ToRow, Col: req.ToCol},
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fcdto.GameResponse{Game: toView(g)})
}

func (h *handlers) surrender(w http.ResponseWriter, r *http.Request) {
	pid, ok := h.profileID(w, r)
	if !ok {
		return
	}
	g, err := h.games.Surrender(r.Context(), chi.URLParam(r, "id"), pid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fcdto.GameResponse{Game: toView(g)})
}

func (h *handlers) boardImage(w http.ResponseWriter, r *http.Request) {
	g, err := h.games.Fetch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if g.State == nil {
		writeError(w, http.StatusConflict, fcdto.DomainError{
			Code:    "game_not_started",
			Message: "the board exists once both players are seated",
		})
		return
	}
	data, err := h.renderer.RenderPNG(r.Context(), g.State.Board, render.RenderOptions{
		Highlight: g.State.LastMove,
		Score:     g.State.Score,
		Turn:      g.State.Turn,
		Header:    "game " + g.ID,
	})
	if err != nil {
		obslog.L().Error("board_render_error", zap.String("game_id", g.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, fcdto.DomainError{
			Code:    "render_failed",
			Message: "board image could not be produced",
		})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, derr fcdto.DomainError) {
	writeJSON(w, status, derr)
}

// writeDomainError maps service failures onto HTTP statuses. Stale writes
// are retryable; everything else is a terminal answer for this request.
func writeDomainError(w http.ResponseWriter, err error) {
	var ime *engine.IllegalMoveError
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, fcdto.DomainError{
			Code: "game_not_found", Message: err.Error(),
		})
	case errors.Is(err, match.ErrNotParticipant):
		writeError(w, http.StatusForbidden, fcdto.DomainError{
			Code: "not_participant", Message: err.Error(),
		})
	case errors.Is(err, match.ErrAlreadyInGame),
		errors.Is(err, match.ErrPlayerBusy),
		errors.Is(err, match.ErrGameNotJoinable),
		errors.Is(err, match.ErrGameNotActive):
		writeError(w, http.StatusConflict, fcdto.DomainError{
			Code: "conflict", Message: err.Error(),
		})
	case errors.Is(err, session.ErrStale):
		writeError(w, http.StatusConflict, fcdto.DomainError{
			Code: "stale_write", Message: err.Error(), Retryable: true,
		})
	case errors.As(err, &ime):
		writeError(w, http.StatusUnprocessableEntity, fcdto.DomainError{
			Code: "illegal_move", Message: ime.Reason,
		})
	default:
		obslog.L().Error("gateway_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fcdto.DomainError{
			Code: "internal", Message: "internal error",
		})
	}
}
