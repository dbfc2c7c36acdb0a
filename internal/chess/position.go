// Package chess models board positions and applies moves under the full
// rules of chess: castling, en passant, promotion and check legality.
package chess

import (
	"fmt"
	"strings"
)

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// Letter returns the single-letter side code used by FEN ("w"/"b").
func (c Color) Letter() string {
	if c == White {
		return "w"
	}
	return "b"
}

// ParseColor accepts "white"/"black" and the FEN letters, case-insensitively.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return White, fmt.Errorf("unknown color %q", s)
	}
}

// PieceType is the kind of a piece regardless of color.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// Letter returns the upper-case SAN letter ("" for pawns).
func (t PieceType) Letter() string {
	switch t {
	case Knight:
		return "N"
	case Bishop:
		return "B"
	case Rook:
		return "R"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return ""
	}
}

func (t PieceType) String() string {
	switch t {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "none"
	}
}

func pieceTypeFromLetter(r byte) PieceType {
	switch r {
	case 'P', 'p':
		return Pawn
	case 'N', 'n':
		return Knight
	case 'B', 'b':
		return Bishop
	case 'R', 'r':
		return Rook
	case 'Q', 'q':
		return Queen
	case 'K', 'k':
		return King
	default:
		return NoPieceType
	}
}

// Piece packs a color and a type. The zero value is an empty square.
type Piece uint8

const NoPiece Piece = 0

func NewPiece(c Color, t PieceType) Piece {
	if t == NoPieceType {
		return NoPiece
	}
	return Piece(uint8(c)<<3 | uint8(t))
}

func (p Piece) Type() PieceType { return PieceType(p & 7) }
func (p Piece) Color() Color    { return Color(p >> 3) }
func (p Piece) IsEmpty() bool   { return p.Type() == NoPieceType }

// FENLetter returns the FEN letter, upper case for White.
func (p Piece) FENLetter() byte {
	var l byte
	switch p.Type() {
	case Pawn:
		l = 'p'
	case Knight:
		l = 'n'
	case Bishop:
		l = 'b'
	case Rook:
		l = 'r'
	case Queen:
		l = 'q'
	case King:
		l = 'k'
	default:
		return 0
	}
	if p.Color() == White {
		l -= 'a' - 'A'
	}
	return l
}

// Square indexes the board a1=0 .. h8=63.
type Square int8

const NoSquare Square = -1

func NewSquare(file, rank int) Square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare
	}
	return Square(rank*8 + file)
}

func (s Square) File() int { return int(s) % 8 }
func (s Square) Rank() int { return int(s) / 8 }

func (s Square) String() string {
	if s < 0 || s > 63 {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// ParseSquare parses algebraic coordinates like "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, fmt.Errorf("invalid square %q", s)
	}
	return NewSquare(int(s[0]-'a'), int(s[1]-'1')), nil
}

// CastlingRights is a four-flag set.
type CastlingRights uint8

const (
	WhiteKingSide CastlingRights = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide
)

func (c CastlingRights) Has(r CastlingRights) bool { return c&r == r }

func (c CastlingRights) String() string {
	if c == 0 {
		return "-"
	}
	var b strings.Builder
	if c.Has(WhiteKingSide) {
		b.WriteByte('K')
	}
	if c.Has(WhiteQueenSide) {
		b.WriteByte('Q')
	}
	if c.Has(BlackKingSide) {
		b.WriteByte('k')
	}
	if c.Has(BlackQueenSide) {
		b.WriteByte('q')
	}
	return b.String()
}

// Position is one board state plus game-state flags. It is a value: every
// operation that changes the game returns a new Position.
type Position struct {
	board     [64]Piece
	turn      Color
	castling  CastlingRights
	enPassant Square
	halfMove  int
	fullMove  int
}

// StartingFEN is the standard initial array.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var startingPosition = func() Position {
	p, err := ParseFEN(StartingFEN)
	if err != nil {
		panic(err)
	}
	return p
}()

func StartingPosition() Position { return startingPosition }

func (p Position) Turn() Color                    { return p.turn }
func (p Position) CastlingRights() CastlingRights { return p.castling }
func (p Position) EnPassant() Square              { return p.enPassant }
func (p Position) HalfMoveClock() int             { return p.halfMove }
func (p Position) FullMoveNumber() int            { return p.fullMove }

func (p Position) PieceAt(sq Square) Piece {
	if sq < 0 || sq > 63 {
		return NoPiece
	}
	return p.board[sq]
}

func (p Position) kingSquare(c Color) Square {
	k := NewPiece(c, King)
	for sq := Square(0); sq < 64; sq++ {
		if p.board[sq] == k {
			return sq
		}
	}
	return NoSquare
}

func (p Position) String() string { return p.FEN() }
