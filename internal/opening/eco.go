// Package opening names the opening of a replayed game with the ECO book
// shipped in corentings/chess.
package opening

import (
	"fmt"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"

	"github.com/park285/chess-vault/internal/chess"
)

var (
	bookOnce sync.Once
	book     *opening.BookECO
)

func ecoBook() *opening.BookECO {
	bookOnce.Do(func() {
		book = opening.NewBookECO()
	})
	return book
}

// Label is an ECO classification. The zero value means "unclassified".
type Label struct {
	Code  string
	Title string
}

func (l Label) Empty() bool { return l.Code == "" }

// Classify looks up the deepest ECO entry reached by sans played from the
// standard starting position. Games that start from a custom FEN are never
// classified.
func Classify(root chess.Position, sans []string) (Label, error) {
	if root != chess.StartingPosition() || len(sans) == 0 {
		return Label{}, nil
	}
	g := nchess.NewGame()
	for i, san := range sans {
		if err := g.PushMove(san, nil); err != nil {
			return Label{}, fmt.Errorf("classify ply %d %q: %w", i, san, err)
		}
	}
	b := ecoBook()
	if b == nil {
		return Label{}, nil
	}
	eco := b.Find(g.Moves())
	if eco == nil {
		return Label{}, nil
	}
	return Label{Code: eco.Code(), Title: eco.Title()}, nil
}
