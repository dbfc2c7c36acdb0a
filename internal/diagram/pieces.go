package diagram

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/chess-vault/internal/chess"
)

// Glyph bodies on a 45x45 canvas. %[1]s is the fill, %[2]s the outline.
var pieceGlyphs = map[chess.PieceType]string{
	chess.Pawn: `<circle cx="22.5" cy="14" r="5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M15 36 L30 36 L27 21 L18 21 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	chess.Knight: `<path d="M14 36 H33 L31 26 C31 18 28 11 21 9 L19 6 L17 10 L12 15 L10 22 L14 23 L18 20 L20 24 L14 30 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<circle cx="17" cy="14" r="1.2" fill="%[2]s"/>`,
	chess.Bishop: `<path d="M13 36 H32 L29 32 H16 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M16 32 C14 25 17 18 22.5 12 C28 18 31 25 29 32 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<circle cx="22.5" cy="9" r="2.5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	chess.Rook: `<path d="M11 36 H34 V32 H11 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M14 32 L15 16 H30 L31 32 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M11 16 V10 H15 V12 H20 V10 H25 V12 H30 V10 H34 V16 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	chess.Queen: `<path d="M12 36 H33 L32 32 H13 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M13 32 L9 14 L15 24 L17 11 L22.5 23 L28 11 L30 24 L36 14 L32 32 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<circle cx="9" cy="13" r="2" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<circle cx="17" cy="10" r="2" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<circle cx="28" cy="10" r="2" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<circle cx="36" cy="13" r="2" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	chess.King: `<path d="M12 36 H33 L32 32 H13 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M13 32 C10 24 14 18 22.5 22 C31 18 35 24 32 32 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M21 6 H24 V9 H27 V12 H24 V20 H21 V12 H18 V9 H21 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
}

const glyphDocument = `<svg xmlns="http://www.w3.org/2000/svg" width="45" height="45" viewBox="0 0 45 45">%s</svg>`

func glyphSVG(p chess.Piece) ([]byte, error) {
	body, ok := pieceGlyphs[p.Type()]
	if !ok {
		return nil, fmt.Errorf("no glyph for %v", p.Type())
	}
	fill, outline := "#ffffff", "#1a1a1a"
	if p.Color() == chess.Black {
		fill, outline = "#1a1a1a", "#e8e8e8"
	}
	return []byte(fmt.Sprintf(glyphDocument, fmt.Sprintf(body, fill, outline))), nil
}

type pieceCacheKey struct {
	piece chess.Piece
	size  int
}

// pieceCache holds rasterized glyphs; a renderer reuses them across calls.
type pieceCache struct {
	mu     sync.RWMutex
	images map[pieceCacheKey]image.Image
}

func newPieceCache() *pieceCache {
	return &pieceCache{images: make(map[pieceCacheKey]image.Image)}
}

func (c *pieceCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

func (c *pieceCache) image(piece chess.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: piece, size: size}

	c.mu.RLock()
	if img, ok := c.images[key]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	data, err := glyphSVG(piece)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	c.mu.Lock()
	c.images[key] = img
	c.mu.Unlock()

	return img, nil
}
