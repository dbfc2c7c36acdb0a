package diagram

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/park285/chess-vault/internal/chess"
)

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestRenderStartingPosition(t *testing.T) {
	r := NewRenderer()
	data, err := r.RenderPNG(context.Background(), chess.StartingPosition(), Options{Title: "Round 1"})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img := decode(t, data)
	want := image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin)
	if img.Bounds() != want {
		t.Fatalf("bounds = %v, want %v", img.Bounds(), want)
	}
	// one glyph per distinct piece kind and color
	if got := r.pieces.len(); got != 12 {
		t.Fatalf("cached %d glyphs, want 12", got)
	}
}

func TestEmptySquareColors(t *testing.T) {
	pos, err := chess.ParseFEN("4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	r := NewRenderer()

	data, err := r.RenderPNG(context.Background(), pos, Options{})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img := decode(t, data)
	// a1 is dark and sits bottom-left
	if got := rgbaAt(img, sideMargin+2, topMargin+7*squareSize+2); got != darkSquare {
		t.Fatalf("a1 pixel = %v, want %v", got, darkSquare)
	}
	// b1 is light
	if got := rgbaAt(img, sideMargin+squareSize+2, topMargin+7*squareSize+2); got != lightSquare {
		t.Fatalf("b1 pixel = %v, want %v", got, lightSquare)
	}

	data, err = r.RenderPNG(context.Background(), pos, Options{Flip: true})
	if err != nil {
		t.Fatalf("RenderPNG flipped: %v", err)
	}
	img = decode(t, data)
	// flipped, a1 sits top-right
	if got := rgbaAt(img, sideMargin+7*squareSize+2, topMargin+2); got != darkSquare {
		t.Fatalf("flipped a1 pixel = %v, want %v", got, darkSquare)
	}
}

func TestHighlightAndShapesChangePixels(t *testing.T) {
	pos, _, err := chess.StartingPosition().Apply("e4")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	e2 := chess.NewSquare(4, 1)
	e4 := chess.NewSquare(4, 3)
	r := NewRenderer()
	data, err := r.RenderPNG(context.Background(), pos, Options{
		Highlight: &Highlight{From: e2, To: e4},
		Shapes: []Shape{
			{Orig: chess.NewSquare(6, 7), Dest: chess.NewSquare(5, 5), Brush: "red"},
			{Orig: chess.NewSquare(3, 3), Dest: chess.NewSquare(3, 3), Brush: "blue"},
			{Orig: chess.NoSquare, Dest: e4},
		},
	})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img := decode(t, data)
	// e4 is a light square under the highlight overlay
	if got := rgbaAt(img, sideMargin+4*squareSize+2, topMargin+4*squareSize+2); got == lightSquare {
		t.Fatal("e4 corner not highlighted")
	}
}

func TestRenderHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRenderer().RenderPNG(ctx, chess.StartingPosition(), Options{}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestBrushColors(t *testing.T) {
	if brushColor("RED") == brushColor("green") {
		t.Fatal("red and green brushes should differ")
	}
	if brushColor("unknown") != brushColor("green") {
		t.Fatal("unknown brush should fall back to green")
	}
}
