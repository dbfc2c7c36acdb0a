// Package replay turns a move transcript into a validated, position-annotated
// move ledger.
package replay

import (
	"strconv"
	"strings"

	"github.com/park285/chess-vault/internal/chess"
)

// Shape is a board drawing attached to a ledger entry.
type Shape struct {
	Orig  string
	Dest  string
	Brush string
}

// Annotations are owned by collaborators (study UIs); the builder leaves
// them empty.
type Annotations struct {
	Comment  string
	Shapes   []Shape
	Variants [][]Entry
}

// Entry is one applied move with the positions around it.
type Entry struct {
	Seq         int
	ID          string
	Move        chess.Move
	Before      chess.Position
	After       chess.Position
	Annotations Annotations
}

// Ledger is the ordered record of a replayed game.
type Ledger struct {
	ID      string
	Root    chess.Position
	Tags    map[string]string
	Entries []Entry
}

func (l *Ledger) RootFEN() string { return l.Root.FEN() }

func (l *Ledger) Len() int { return len(l.Entries) }

// Final is the position after the last entry, or the root for an empty
// ledger.
func (l *Ledger) Final() chess.Position {
	if len(l.Entries) == 0 {
		return l.Root
	}
	return l.Entries[len(l.Entries)-1].After
}

// PositionAt returns the position after ply moves; ply 0 is the root.
func (l *Ledger) PositionAt(ply int) (chess.Position, bool) {
	switch {
	case ply < 0 || ply > len(l.Entries):
		return chess.Position{}, false
	case ply == 0:
		return l.Root, true
	default:
		return l.Entries[ply-1].After, true
	}
}

// Entry looks up an entry by move id.
func (l *Ledger) Entry(id string) (Entry, bool) {
	for _, e := range l.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func (l *Ledger) SAN() []string {
	out := make([]string, len(l.Entries))
	for i, e := range l.Entries {
		out[i] = e.Move.SAN
	}
	return out
}

// Movetext renders numbered movetext ("1. e4 e5 2. Nf3"), ending with
// result when it is non-empty.
func (l *Ledger) Movetext(result string) string {
	var b strings.Builder
	for i, e := range l.Entries {
		if i > 0 {
			b.WriteByte(' ')
		}
		n := strconv.Itoa(e.Before.FullMoveNumber())
		switch {
		case e.Move.Color == chess.White:
			b.WriteString(n + ". ")
		case i == 0:
			b.WriteString(n + "... ")
		}
		b.WriteString(e.Move.SAN)
	}
	if result != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(result)
	}
	return b.String()
}
