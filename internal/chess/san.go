package chess

import (
	"errors"
	"strings"
)

// annotate fills SAN and the check flags of m. legal must be the full legal
// move list of p; it is used for disambiguation.
func (p Position) annotate(m Move, legal []Move) Move {
	var b strings.Builder
	switch {
	case m.Flags.Has(FlagKingSideCastle):
		b.WriteString("O-O")
	case m.Flags.Has(FlagQueenSideCastle):
		b.WriteString("O-O-O")
	default:
		if m.Piece == Pawn {
			if m.Flags.Has(FlagCapture) {
				b.WriteByte(byte('a' + m.From.File()))
			}
		} else {
			b.WriteString(m.Piece.Letter())
			b.WriteString(disambiguation(m, legal))
		}
		if m.Flags.Has(FlagCapture) {
			b.WriteByte('x')
		}
		b.WriteString(m.To.String())
		if m.Promotion != NoPieceType {
			b.WriteByte('=')
			b.WriteString(m.Promotion.Letter())
		}
	}

	next := p.play(m)
	if next.InCheck() {
		m.Flags |= FlagCheck
		if next.hasLegalMove() {
			b.WriteByte('+')
		} else {
			m.Flags |= FlagCheckmate
			b.WriteByte('#')
		}
	}
	m.SAN = b.String()
	return m
}

func disambiguation(m Move, legal []Move) string {
	if m.Piece == King {
		return ""
	}
	sameFile, sameRank, others := false, false, false
	for _, o := range legal {
		if o.Piece != m.Piece || o.To != m.To || o.From == m.From {
			continue
		}
		others = true
		if o.From.File() == m.From.File() {
			sameFile = true
		}
		if o.From.Rank() == m.From.Rank() {
			sameRank = true
		}
	}
	switch {
	case !others:
		return ""
	case !sameFile:
		return string(byte('a' + m.From.File()))
	case !sameRank:
		return string(byte('1' + m.From.Rank()))
	default:
		return m.From.String()
	}
}

// sanToken is the parsed shape of a move token.
type sanToken struct {
	castle    MoveFlag
	piece     PieceType // NoPieceType: any piece (coordinate form like "g1f3")
	fromFile  int       // -1 when absent
	fromRank  int       // -1 when absent
	to        Square
	promotion PieceType
}

var errEmptyToken = errors.New("empty move token")

func parseSAN(token string) (sanToken, error) {
	t := sanToken{fromFile: -1, fromRank: -1, to: NoSquare}
	s := strings.TrimSpace(token)
	s = strings.TrimSuffix(s, "e.p.")
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "+#!?")
	if s == "" {
		return t, errEmptyToken
	}

	switch strings.ReplaceAll(strings.ToUpper(s), "0", "O") {
	case "O-O":
		t.castle = FlagKingSideCastle
		return t, nil
	case "O-O-O":
		t.castle = FlagQueenSideCastle
		return t, nil
	}

	if i := strings.IndexByte(s, '='); i >= 0 {
		if i != len(s)-2 {
			return t, errors.New("malformed promotion suffix")
		}
		t.promotion = promotionPiece(s[i+1])
		if t.promotion == NoPieceType {
			return t, errors.New("invalid promotion piece")
		}
		s = s[:i]
	} else if n := len(s); n >= 3 && s[n-2] >= '1' && s[n-2] <= '8' {
		if pp := promotionPiece(s[n-1]); pp != NoPieceType {
			t.promotion = pp
			s = s[:n-1]
		}
	}

	if len(s) < 2 {
		return t, errors.New("missing destination square")
	}
	to, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return t, err
	}
	t.to = to

	rest := strings.Map(func(r rune) rune {
		if r == 'x' || r == ':' || r == '-' {
			return -1
		}
		return r
	}, s[:len(s)-2])

	t.piece = Pawn
	if rest != "" {
		switch rest[0] {
		case 'N', 'B', 'R', 'Q', 'K', 'P':
			t.piece = pieceTypeFromLetter(rest[0])
			rest = rest[1:]
		}
	}
	for i := 0; i < len(rest); i++ {
		ch := rest[i]
		switch {
		case ch >= 'a' && ch <= 'h' && t.fromFile < 0 && t.fromRank < 0:
			t.fromFile = int(ch - 'a')
		case ch >= '1' && ch <= '8' && t.fromRank < 0:
			t.fromRank = int(ch - '1')
		default:
			return t, errors.New("unexpected character in move token")
		}
	}
	// coordinate notation ("g1f3") names the origin square, not the piece
	if t.piece == Pawn && len(s) >= 4 && t.fromFile >= 0 && t.fromRank >= 0 && !strings.ContainsAny(s[:1], "P") {
		t.piece = NoPieceType
	}
	if t.promotion != NoPieceType && t.piece != Pawn && t.piece != NoPieceType {
		return t, errors.New("only pawns promote")
	}
	return t, nil
}

func promotionPiece(ch byte) PieceType {
	switch ch {
	case 'N', 'n':
		return Knight
	case 'B', 'b':
		return Bishop
	case 'R', 'r':
		return Rook
	case 'Q', 'q':
		return Queen
	default:
		return NoPieceType
	}
}

func (t sanToken) matches(m Move) bool {
	if t.castle != 0 {
		return m.Flags.Has(t.castle)
	}
	if (m.IsCastle() && t.piece != NoPieceType) || m.To != t.to || m.Promotion != t.promotion {
		return false
	}
	if t.piece != NoPieceType && m.Piece != t.piece {
		return false
	}
	// SAN pawn captures always name the origin file
	if t.piece == Pawn && t.fromFile < 0 && m.From.File() != m.To.File() {
		return false
	}
	if t.fromFile >= 0 && m.From.File() != t.fromFile {
		return false
	}
	if t.fromRank >= 0 && m.From.Rank() != t.fromRank {
		return false
	}
	return true
}

// Apply resolves token against the legal moves of p and plays it. It fails
// with *IllegalMoveError when nothing matches and *AmbiguousMoveError when
// the token's disambiguation selects more than one move.
func (p Position) Apply(token string) (Position, Move, error) {
	t, err := parseSAN(token)
	if err != nil {
		return p, Move{}, &IllegalMoveError{Token: token, FEN: p.FEN(), Err: err}
	}
	var found []Move
	for _, m := range p.LegalMoves() {
		if t.matches(m) {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return p, Move{}, &IllegalMoveError{Token: token, FEN: p.FEN()}
	case 1:
		return p.play(found[0]), found[0], nil
	default:
		sans := make([]string, len(found))
		for i, m := range found {
			sans[i] = m.SAN
		}
		return p, Move{}, &AmbiguousMoveError{Token: token, Candidates: sans}
	}
}

// ApplyMove plays a move identified by origin, destination and promotion,
// typically one taken from LegalMoves.
func (p Position) ApplyMove(m Move) (Position, Move, error) {
	for _, lm := range p.LegalMoves() {
		if lm.From == m.From && lm.To == m.To && lm.Promotion == m.Promotion {
			return p.play(lm), lm, nil
		}
	}
	return p, Move{}, &IllegalMoveError{Token: m.LAN(), FEN: p.FEN()}
}
