package render

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/hpark-dev/footchess-server/internal/engine"
)

func TestRenderPNGFullBoard(t *testing.T) {
	r := NewSVGBoardRenderer()
	st := engine.NewInitialState(engine.Home)

	data, err := r.RenderPNG(context.Background(), st.Board, RenderOptions{
		Score:  st.Score,
		Turn:   st.Turn,
		Header: "game abc123",
	})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	wantW := engine.Cols*squareSize + sideMargin*2
	wantH := engine.Rows*squareSize + topMargin + bottomMargin
	if b := img.Bounds(); b.Dx() != wantW || b.Dy() != wantH {
		t.Fatalf("image is %dx%d, want %dx%d", b.Dx(), b.Dy(), wantW, wantH)
	}
}

func TestRenderPNGNilBoard(t *testing.T) {
	r := NewSVGBoardRenderer()
	if _, err := r.RenderPNG(context.Background(), nil, RenderOptions{}); err == nil {
		t.Fatalf("expected error for nil board")
	}
}

func TestRenderPNGHighlight(t *testing.T) {
	r := NewSVGBoardRenderer()
	st := engine.NewInitialState(engine.Home)
	rec := &engine.MoveRecord{
		From: engine.Position{Row: 3, Col: 3},
		To:   engine.Position{Row: 5, Col: 3},
	}
	plain, err := r.RenderPNG(context.Background(), st.Board, RenderOptions{})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	marked, err := r.RenderPNG(context.Background(), st.Board, RenderOptions{Highlight: rec})
	if err != nil {
		t.Fatalf("RenderPNG highlight: %v", err)
	}
	if bytes.Equal(plain, marked) {
		t.Fatalf("highlight produced identical image")
	}
}

func TestPieceCacheReuse(t *testing.T) {
	first, err := renderPieceImage(engine.Home, engine.Forward, squareSize)
	if err != nil {
		t.Fatalf("renderPieceImage: %v", err)
	}
	second, err := renderPieceImage(engine.Home, engine.Forward, squareSize)
	if err != nil {
		t.Fatalf("renderPieceImage again: %v", err)
	}
	if first != second {
		t.Fatalf("glyph not served from cache")
	}
}
