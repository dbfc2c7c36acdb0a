// Package diagram renders ledger positions as PNG board diagrams, with the
// last move highlighted and study shapes drawn on top.
package diagram

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/chess-vault/internal/chess"
)

type Highlight struct {
	From chess.Square
	To   chess.Square
}

// Shape is an arrow (Orig != Dest) or a ring (Orig == Dest). Brush is one of
// green, red, blue or yellow; anything else draws green.
type Shape struct {
	Orig  chess.Square
	Dest  chess.Square
	Brush string
}

type Options struct {
	Highlight *Highlight
	Shapes    []Shape
	// Flip draws the board from Black's side.
	Flip  bool
	Title string
}

type Renderer interface {
	RenderPNG(ctx context.Context, pos chess.Position, opts Options) ([]byte, error)
}

const (
	squareSize   = 60
	boardSize    = squareSize * 8
	sideMargin   = 24
	topMargin    = 32
	bottomMargin = 24
)

type BoardRenderer struct {
	pieces *pieceCache
}

func NewRenderer() *BoardRenderer {
	return &BoardRenderer{pieces: newPieceCache()}
}

func (r *BoardRenderer) RenderPNG(ctx context.Context, pos chess.Position, opts Options) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	origin := image.Point{X: sideMargin, Y: topMargin}
	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	g := geometry{origin: origin, flip: opts.Flip}
	drawSquares(img, g)
	if opts.Highlight != nil {
		drawSquareOverlay(img, g.rect(opts.Highlight.From), moveHighlightFill)
		drawSquareOverlay(img, g.rect(opts.Highlight.To), moveHighlightFill)
	}
	if err := r.drawPieces(img, pos, g); err != nil {
		return nil, err
	}
	for _, s := range opts.Shapes {
		if s.Orig < 0 || s.Orig > 63 || s.Dest < 0 || s.Dest > 63 {
			continue
		}
		clr := brushColor(s.Brush)
		if s.Orig == s.Dest {
			drawRing(img, g.center(s.Orig), squareSize/2-3, 4, clr)
			continue
		}
		drawArrow(img, g.center(s.Orig), g.center(s.Dest), clr)
	}

	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	drawCoordinates(drawer, g)
	if title := strings.TrimSpace(opts.Title); title != "" {
		titleRect := image.Rect(origin.X, 0, origin.X+boardSize, topMargin)
		drawCenteredString(drawer, titleRect, truncateWithEllipsis(drawer, title, boardSize), titleTextColor)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	backgroundColor     = color.RGBA{38, 36, 33, 255}
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	moveHighlightFill   = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	coordinateTextColor = color.NRGBA{R: 214, G: 214, B: 200, A: 255}
	titleTextColor      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
)

func brushColor(brush string) color.Color {
	switch strings.ToLower(brush) {
	case "red":
		return color.NRGBA{R: 136, G: 32, B: 32, A: 170}
	case "blue":
		return color.NRGBA{R: 0, G: 48, B: 136, A: 170}
	case "yellow":
		return color.NRGBA{R: 230, G: 143, B: 0, A: 170}
	default:
		return color.NRGBA{R: 21, G: 120, B: 27, A: 170}
	}
}

// geometry maps squares to pixels for one orientation.
type geometry struct {
	origin image.Point
	flip   bool
}

func (g geometry) rect(sq chess.Square) image.Rectangle {
	col, row := sq.File(), 7-sq.Rank()
	if g.flip {
		col, row = 7-col, 7-row
	}
	x := g.origin.X + col*squareSize
	y := g.origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func (g geometry) center(sq chess.Square) pointF {
	r := g.rect(sq)
	return pointF{X: float64(r.Min.X) + squareSize/2, Y: float64(r.Min.Y) + squareSize/2}
}

func squareColor(sq chess.Square) color.Color {
	if (sq.File()+sq.Rank())%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func drawSquares(dst imagedraw.Image, g geometry) {
	for sq := chess.Square(0); sq < 64; sq++ {
		imagedraw.Draw(dst, g.rect(sq), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
	}
}

func (r *BoardRenderer) drawPieces(dst imagedraw.Image, pos chess.Position, g geometry) error {
	for sq := chess.Square(0); sq < 64; sq++ {
		piece := pos.PieceAt(sq)
		if piece.IsEmpty() {
			continue
		}
		img, err := r.pieces.image(piece, squareSize)
		if err != nil {
			return err
		}
		imagedraw.Draw(dst, g.rect(sq), img, image.Point{}, imagedraw.Over)
	}
	return nil
}

func drawSquareOverlay(img *image.RGBA, rect image.Rectangle, clr color.Color) {
	imagedraw.Draw(img, rect, image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawCoordinates(drawer *font.Drawer, g geometry) {
	ascent := drawer.Face.Metrics().Ascent.Ceil()
	drawer.Src = image.NewUniform(coordinateTextColor)
	for i := 0; i < 8; i++ {
		rankSq := chess.NewSquare(0, i)
		r := g.rect(rankSq)
		drawCenteredText(drawer, string(rune('1'+i)), g.origin.X-sideMargin/2, r.Min.Y+squareSize/2+ascent/2)

		fileSq := chess.NewSquare(i, 0)
		f := g.rect(fileSq)
		drawCenteredText(drawer, string(rune('a'+i)), f.Min.X+squareSize/2, g.origin.Y+boardSize+ascent+4)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func truncateWithEllipsis(drawer *font.Drawer, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 {
		return trimmed
	}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}
