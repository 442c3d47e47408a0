package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hpark-dev/footchess-server/internal/match"
	"github.com/hpark-dev/footchess-server/internal/render"
	"github.com/hpark-dev/footchess-server/internal/session"
)

// NewServer wires routes and returns an http.Handler.
func NewServer(games *match.Manager, feed session.Store, renderer render.BoardRenderer) http.Handler {
	r := chi.NewRouter()
	h := &handlers{games: games, feed: feed, renderer: renderer}
	r.Post("/games", h.create)
	r.Route("/games/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/join", h.join)
		r.Post("/moves", h.play)
		r.Post("/surrender", h.surrender)
		r.Get("/board.png", h.boardImage)
		r.Get("/ws", h.watch)
	})
	return r
}
