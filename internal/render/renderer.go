package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/hpark-dev/footchess-server/internal/engine"
)

// RenderOptions carries the per-snapshot annotations drawn over the pitch.
type RenderOptions struct {
	Highlight *engine.MoveRecord
	Score     engine.Score
	Turn      engine.Player
	Header    string
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board *engine.Board, opts RenderOptions) ([]byte, error)
}

type svgBoardRenderer struct{}

func NewSVGBoardRenderer() BoardRenderer {
	return &svgBoardRenderer{}
}

const (
	squareSize   = 56
	sideMargin   = 28
	topMargin    = 64
	bottomMargin = 28
)

var (
	lightTurf      = color.RGBA{106, 168, 79, 255}
	darkTurf       = color.RGBA{93, 156, 67, 255}
	goalCellColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 90}
	highlightColor = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	lineColor      = color.NRGBA{R: 245, G: 248, B: 245, A: 220}
	hudTextColor   = color.NRGBA{R: 20, G: 28, B: 20, A: 255}
	backdropColor  = color.RGBA{226, 232, 226, 255}
	coordTextColor = color.NRGBA{R: 64, G: 80, B: 64, A: 255}
)

func (r *svgBoardRenderer) RenderPNG(ctx context.Context, board *engine.Board, opts RenderOptions) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}

	totalWidth := engine.Cols*squareSize + sideMargin*2
	totalHeight := engine.Rows*squareSize + topMargin + bottomMargin
	origin := image.Point{X: sideMargin, Y: topMargin}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backdropColor), image.Point{}, imagedraw.Src)

	drawPitch(img, origin)
	drawHighlight(img, origin, opts.Highlight)
	if err := drawPieces(img, board, origin); err != nil {
		return nil, err
	}
	drawCoordinates(img, origin)
	drawHUD(img, opts)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

// drawPitch fills the grid with alternating turf stripes and marks the goal
// cells on both back rows. Row 0 is drawn at the top.
func drawPitch(img *image.RGBA, origin image.Point) {
	for row := 0; row < engine.Rows; row++ {
		for col := 0; col < engine.Cols; col++ {
			clr := lightTurf
			if row%2 == 1 {
				clr = darkTurf
			}
			rect := cellRect(origin, row, col)
			imagedraw.Draw(img, rect, image.NewUniform(clr), image.Point{}, imagedraw.Src)
			if engine.IsGoalCell(engine.Home, engine.Position{Row: row, Col: col}) ||
				engine.IsGoalCell(engine.Away, engine.Position{Row: row, Col: col}) {
				imagedraw.Draw(img, rect, image.NewUniform(goalCellColor), image.Point{}, imagedraw.Over)
			}
		}
	}

	// halfway line between rows 5 and 6
	midY := origin.Y + (engine.Rows/2)*squareSize
	lineRect := image.Rect(origin.X, midY-1, origin.X+engine.Cols*squareSize, midY+1)
	imagedraw.Draw(img, lineRect, image.NewUniform(lineColor), image.Point{}, imagedraw.Over)
}

func drawHighlight(img *image.RGBA, origin image.Point, rec *engine.MoveRecord) {
	if rec == nil {
		return
	}
	for _, pos := range []engine.Position{rec.From, rec.To} {
		rect := cellRect(origin, pos.Row, pos.Col)
		imagedraw.Draw(img, rect, image.NewUniform(highlightColor), image.Point{}, imagedraw.Over)
	}
}

func drawPieces(img *image.RGBA, board *engine.Board, origin image.Point) error {
	for row := 0; row < engine.Rows; row++ {
		for col := 0; col < engine.Cols; col++ {
			piece := board.At(engine.Position{Row: row, Col: col})
			if piece == nil {
				continue
			}
			glyph, err := renderPieceImage(piece.Owner, piece.Type, squareSize)
			if err != nil {
				return err
			}
			rect := cellRect(origin, row, col)
			imagedraw.Draw(img, rect, glyph, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawCoordinates(img *image.RGBA, origin image.Point) {
	face := basicfont.Face7x13
	for row := 0; row < engine.Rows; row++ {
		label := fmt.Sprintf("%d", row)
		y := origin.Y + row*squareSize + squareSize/2 + face.Height/2
		drawText(img, label, sideMargin/2-len(label)*face.Advance/2, y, face, coordTextColor)
	}
	for col := 0; col < engine.Cols; col++ {
		label := fmt.Sprintf("%d", col)
		x := origin.X + col*squareSize + squareSize/2 - face.Advance/2
		y := origin.Y + engine.Rows*squareSize + bottomMargin/2 + face.Height/2
		drawText(img, label, x, y, face, coordTextColor)
	}
}

func drawHUD(img *image.RGBA, opts RenderOptions) {
	face := basicfont.Face7x13
	header := opts.Header
	if header == "" {
		header = "footchess"
	}
	drawText(img, header, sideMargin, topMargin/2-face.Height/2, face, hudTextColor)

	status := fmt.Sprintf("home %d : %d away", opts.Score.Home, opts.Score.Away)
	if opts.Turn != "" {
		status = fmt.Sprintf("%s  |  %s to move", status, opts.Turn)
	}
	drawText(img, status, sideMargin, topMargin/2+face.Height, face, hudTextColor)
}

func drawText(img *image.RGBA, text string, x, y int, face font.Face, clr color.NRGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(clr),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func cellRect(origin image.Point, row, col int) image.Rectangle {
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}
