package chess

import (
	"strconv"
	"strings"
)

// ParseFEN decodes the six-field position encoding.
func ParseFEN(fen string) (Position, error) {
	parts := strings.Fields(fen)
	if len(parts) != 6 {
		return Position{}, formatErrorf(fen, "expected 6 fields, got %d", len(parts))
	}

	var p Position
	if err := decodeBoard(parts[0], &p.board); err != nil {
		err.Input = fen
		return Position{}, err
	}

	switch parts[1] {
	case "w":
		p.turn = White
	case "b":
		p.turn = Black
	default:
		return Position{}, formatErrorf(fen, "side to move must be 'w' or 'b', got %q", parts[1])
	}

	castling, err := decodeCastling(parts[2])
	if err != nil {
		err.Input = fen
		return Position{}, err
	}
	p.castling = castling

	p.enPassant = NoSquare
	if parts[3] != "-" {
		sq, serr := ParseSquare(parts[3])
		if serr != nil {
			return Position{}, formatErrorf(fen, "invalid en-passant square %q", parts[3])
		}
		if (p.turn == White && sq.Rank() != 5) || (p.turn == Black && sq.Rank() != 2) {
			return Position{}, formatErrorf(fen, "en-passant square %s does not fit side to move", sq)
		}
		p.enPassant = sq
	}

	half, herr := strconv.Atoi(parts[4])
	if herr != nil || half < 0 {
		return Position{}, formatErrorf(fen, "invalid half-move clock %q", parts[4])
	}
	full, ferr := strconv.Atoi(parts[5])
	if ferr != nil || full < 1 {
		return Position{}, formatErrorf(fen, "invalid full-move number %q", parts[5])
	}
	p.halfMove = half
	p.fullMove = full

	for _, c := range []Color{White, Black} {
		if n := p.count(NewPiece(c, King)); n != 1 {
			return Position{}, formatErrorf(fen, "%s has %d kings", c, n)
		}
	}
	return p, nil
}

func decodeBoard(field string, board *[64]Piece) *FormatError {
	ranks := strings.Split(field, "/")
	if len(ranks) != 8 {
		return formatErrorf("", "board must have 8 ranks, got %d", len(ranks))
	}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			ch := row[j]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			t := pieceTypeFromLetter(ch)
			if t == NoPieceType {
				return formatErrorf("", "unknown piece letter %q", ch)
			}
			if file > 7 {
				return formatErrorf("", "rank %d has more than 8 squares", rank+1)
			}
			c := White
			if ch >= 'a' {
				c = Black
			}
			board[NewSquare(file, rank)] = NewPiece(c, t)
			file++
		}
		if file != 8 {
			return formatErrorf("", "rank %d decodes to %d squares", rank+1, file)
		}
	}
	return nil
}

func decodeCastling(field string) (CastlingRights, *FormatError) {
	if field == "-" {
		return 0, nil
	}
	var c CastlingRights
	for i := 0; i < len(field); i++ {
		var r CastlingRights
		switch field[i] {
		case 'K':
			r = WhiteKingSide
		case 'Q':
			r = WhiteQueenSide
		case 'k':
			r = BlackKingSide
		case 'q':
			r = BlackQueenSide
		default:
			return 0, formatErrorf("", "invalid castling field %q", field)
		}
		if c.Has(r) {
			return 0, formatErrorf("", "repeated castling flag in %q", field)
		}
		c |= r
	}
	return c, nil
}

// FEN encodes the position; ParseFEN(p.FEN()) == p for every parsed or
// played position.
func (p Position) FEN() string {
	var b strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.board[NewSquare(file, rank)]
			if pc.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteByte(byte('0' + empty))
				empty = 0
			}
			b.WriteByte(pc.FENLetter())
		}
		if empty > 0 {
			b.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			b.WriteByte('/')
		}
	}
	b.WriteByte(' ')
	b.WriteString(p.turn.Letter())
	b.WriteByte(' ')
	b.WriteString(p.castling.String())
	b.WriteByte(' ')
	b.WriteString(p.enPassant.String())
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(p.halfMove))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(p.fullMove))
	return b.String()
}

func (p Position) count(pc Piece) int {
	n := 0
	for _, x := range p.board {
		if x == pc {
			n++
		}
	}
	return n
}
