package chess

import "strings"

// MoveFlag is a closed set of situational markers on a move.
type MoveFlag uint16

const (
	FlagCapture MoveFlag = 1 << iota
	FlagKingSideCastle
	FlagQueenSideCastle
	FlagEnPassant
	FlagPromotion
	FlagCheck
	FlagCheckmate
	FlagDoublePush
)

func (f MoveFlag) Has(x MoveFlag) bool { return f&x != 0 }

// Move describes one applied (or applicable) move. Values are produced by
// LegalMoves/Apply and never changed afterwards.
type Move struct {
	Color     Color
	Piece     PieceType
	From      Square
	To        Square
	Promotion PieceType
	Captured  PieceType
	Flags     MoveFlag
	SAN       string
}

func (m Move) IsCastle() bool {
	return m.Flags.Has(FlagKingSideCastle) || m.Flags.Has(FlagQueenSideCastle)
}

// LAN returns the long algebraic form "e2e4" / "e7e8q".
func (m Move) LAN() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoPieceType {
		s += strings.ToLower(m.Promotion.Letter())
	}
	return s
}

// FlagLetters renders the flags in the single-letter convention used by
// chess-study exports: n normal, b double push, e en passant, c capture,
// p promotion, k/q castle sides.
func (m Move) FlagLetters() string {
	var b strings.Builder
	if m.Flags.Has(FlagDoublePush) {
		b.WriteByte('b')
	}
	if m.Flags.Has(FlagEnPassant) {
		b.WriteByte('e')
	} else if m.Flags.Has(FlagCapture) {
		b.WriteByte('c')
	}
	if m.Flags.Has(FlagPromotion) {
		b.WriteByte('p')
	}
	if m.Flags.Has(FlagKingSideCastle) {
		b.WriteByte('k')
	}
	if m.Flags.Has(FlagQueenSideCastle) {
		b.WriteByte('q')
	}
	if b.Len() == 0 {
		return "n"
	}
	return b.String()
}
