package chess

type offset struct{ df, dr int }

var (
	knightOffsets = []offset{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = []offset{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookDirs      = []offset{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs    = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	promotionTo   = []PieceType{Queen, Rook, Bishop, Knight}
)

func step(sq Square, o offset) Square {
	return NewSquare(sq.File()+o.df, sq.Rank()+o.dr)
}

func pawnDir(c Color) int {
	if c == White {
		return 1
	}
	return -1
}

// IsAttacked reports whether any piece of color by attacks sq.
func (p Position) IsAttacked(sq Square, by Color) bool {
	// pawns attack diagonally forward, so look one rank "behind" sq from by's view
	for _, df := range []int{-1, 1} {
		from := NewSquare(sq.File()+df, sq.Rank()-pawnDir(by))
		if from != NoSquare && p.board[from] == NewPiece(by, Pawn) {
			return true
		}
	}
	for _, o := range knightOffsets {
		if from := step(sq, o); from != NoSquare && p.board[from] == NewPiece(by, Knight) {
			return true
		}
	}
	for _, o := range kingOffsets {
		if from := step(sq, o); from != NoSquare && p.board[from] == NewPiece(by, King) {
			return true
		}
	}
	if p.slidingAttack(sq, by, rookDirs, Rook) || p.slidingAttack(sq, by, bishopDirs, Bishop) {
		return true
	}
	return false
}

func (p Position) slidingAttack(sq Square, by Color, dirs []offset, kind PieceType) bool {
	for _, d := range dirs {
		for to := step(sq, d); to != NoSquare; to = step(to, d) {
			pc := p.board[to]
			if pc.IsEmpty() {
				continue
			}
			if pc.Color() == by && (pc.Type() == kind || pc.Type() == Queen) {
				return true
			}
			break
		}
	}
	return false
}

// InCheck reports whether the side to move is in check.
func (p Position) InCheck() bool {
	k := p.kingSquare(p.turn)
	return k != NoSquare && p.IsAttacked(k, p.turn.Other())
}

// pseudoMoves generates moves by piece geometry, without the self-check filter
// and without SAN.
func (p Position) pseudoMoves() []Move {
	moves := make([]Move, 0, 48)
	us := p.turn
	for from := Square(0); from < 64; from++ {
		pc := p.board[from]
		if pc.IsEmpty() || pc.Color() != us {
			continue
		}
		switch pc.Type() {
		case Pawn:
			moves = p.pawnMoves(moves, from)
		case Knight:
			moves = p.leaperMoves(moves, from, Knight, knightOffsets)
		case Bishop:
			moves = p.sliderMoves(moves, from, Bishop, bishopDirs)
		case Rook:
			moves = p.sliderMoves(moves, from, Rook, rookDirs)
		case Queen:
			moves = p.sliderMoves(moves, from, Queen, rookDirs)
			moves = p.sliderMoves(moves, from, Queen, bishopDirs)
		case King:
			moves = p.leaperMoves(moves, from, King, kingOffsets)
			moves = p.castleMoves(moves, from)
		}
	}
	return moves
}

func (p Position) addTarget(moves []Move, from, to Square, kind PieceType) []Move {
	target := p.board[to]
	if !target.IsEmpty() && target.Color() == p.turn {
		return moves
	}
	m := Move{Color: p.turn, Piece: kind, From: from, To: to}
	if !target.IsEmpty() {
		m.Flags |= FlagCapture
		m.Captured = target.Type()
	}
	return append(moves, m)
}

func (p Position) leaperMoves(moves []Move, from Square, kind PieceType, offs []offset) []Move {
	for _, o := range offs {
		if to := step(from, o); to != NoSquare {
			moves = p.addTarget(moves, from, to, kind)
		}
	}
	return moves
}

func (p Position) sliderMoves(moves []Move, from Square, kind PieceType, dirs []offset) []Move {
	for _, d := range dirs {
		for to := step(from, d); to != NoSquare; to = step(to, d) {
			moves = p.addTarget(moves, from, to, kind)
			if !p.board[to].IsEmpty() {
				break
			}
		}
	}
	return moves
}

func (p Position) pawnMoves(moves []Move, from Square) []Move {
	us := p.turn
	dir := pawnDir(us)
	startRank, lastRank := 1, 7
	if us == Black {
		startRank, lastRank = 6, 0
	}

	push := func(m Move) []Move {
		if m.To.Rank() != lastRank {
			return append(moves, m)
		}
		for _, t := range promotionTo {
			pm := m
			pm.Promotion = t
			pm.Flags |= FlagPromotion
			moves = append(moves, pm)
		}
		return moves
	}

	one := NewSquare(from.File(), from.Rank()+dir)
	if one != NoSquare && p.board[one].IsEmpty() {
		moves = push(Move{Color: us, Piece: Pawn, From: from, To: one})
		two := NewSquare(from.File(), from.Rank()+2*dir)
		if from.Rank() == startRank && p.board[two].IsEmpty() {
			moves = append(moves, Move{Color: us, Piece: Pawn, From: from, To: two, Flags: FlagDoublePush})
		}
	}

	for _, df := range []int{-1, 1} {
		to := NewSquare(from.File()+df, from.Rank()+dir)
		if to == NoSquare {
			continue
		}
		target := p.board[to]
		if !target.IsEmpty() && target.Color() != us {
			moves = push(Move{Color: us, Piece: Pawn, From: from, To: to, Flags: FlagCapture, Captured: target.Type()})
		} else if to == p.enPassant && target.IsEmpty() && p.board[NewSquare(to.File(), from.Rank())] == NewPiece(us.Other(), Pawn) {
			moves = append(moves, Move{Color: us, Piece: Pawn, From: from, To: to, Flags: FlagCapture | FlagEnPassant, Captured: Pawn})
		}
	}
	return moves
}

type castleSpec struct {
	right      CastlingRights
	flag       MoveFlag
	kingFrom   Square
	kingTo     Square
	rookFrom   Square
	rookTo     Square
	mustBeFree []Square
	kingPath   []Square
}

var castleSpecs = map[Color][]castleSpec{
	White: {
		{WhiteKingSide, FlagKingSideCastle, 4, 6, 7, 5, []Square{5, 6}, []Square{4, 5, 6}},
		{WhiteQueenSide, FlagQueenSideCastle, 4, 2, 0, 3, []Square{1, 2, 3}, []Square{4, 3, 2}},
	},
	Black: {
		{BlackKingSide, FlagKingSideCastle, 60, 62, 63, 61, []Square{61, 62}, []Square{60, 61, 62}},
		{BlackQueenSide, FlagQueenSideCastle, 60, 58, 56, 59, []Square{57, 58, 59}, []Square{60, 59, 58}},
	},
}

func (p Position) castleMoves(moves []Move, from Square) []Move {
	us := p.turn
	for _, cs := range castleSpecs[us] {
		if !p.castling.Has(cs.right) || from != cs.kingFrom || p.board[cs.rookFrom] != NewPiece(us, Rook) {
			continue
		}
		free := true
		for _, sq := range cs.mustBeFree {
			if !p.board[sq].IsEmpty() {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		safe := true
		for _, sq := range cs.kingPath {
			if p.IsAttacked(sq, us.Other()) {
				safe = false
				break
			}
		}
		if safe {
			moves = append(moves, Move{Color: us, Piece: King, From: cs.kingFrom, To: cs.kingTo, Flags: cs.flag})
		}
	}
	return moves
}

// play applies a pseudo-legal move without validation or SAN.
func (p Position) play(m Move) Position {
	n := p
	us := p.turn
	moving := n.board[m.From]
	n.board[m.From] = NoPiece
	if m.Flags.Has(FlagEnPassant) {
		n.board[NewSquare(m.To.File(), m.From.Rank())] = NoPiece
	}
	if m.Promotion != NoPieceType {
		moving = NewPiece(us, m.Promotion)
	}
	n.board[m.To] = moving
	for _, cs := range castleSpecs[us] {
		if m.Flags.Has(cs.flag) {
			n.board[cs.rookFrom] = NoPiece
			n.board[cs.rookTo] = NewPiece(us, Rook)
		}
	}

	n.castling &^= castlingLostOn(m.From) | castlingLostOn(m.To)

	n.enPassant = NoSquare
	if m.Flags.Has(FlagDoublePush) {
		n.enPassant = NewSquare(m.From.File(), m.From.Rank()+pawnDir(us))
	}

	if m.Piece == Pawn || m.Flags.Has(FlagCapture) {
		n.halfMove = 0
	} else {
		n.halfMove++
	}
	if us == Black {
		n.fullMove++
	}
	n.turn = us.Other()
	return n
}

// castlingLostOn returns the rights removed when a piece leaves or lands on sq.
func castlingLostOn(sq Square) CastlingRights {
	switch sq {
	case 4:
		return WhiteKingSide | WhiteQueenSide
	case 7:
		return WhiteKingSide
	case 0:
		return WhiteQueenSide
	case 60:
		return BlackKingSide | BlackQueenSide
	case 63:
		return BlackKingSide
	case 56:
		return BlackQueenSide
	default:
		return 0
	}
}

// LegalMoves enumerates every legal move for the side to move, each with its
// SAN and check/checkmate flags filled in.
func (p Position) LegalMoves() []Move {
	legal := p.legalWithoutSAN()
	for i := range legal {
		legal[i] = p.annotate(legal[i], legal)
	}
	return legal
}

func (p Position) legalWithoutSAN() []Move {
	pseudo := p.pseudoMoves()
	legal := pseudo[:0]
	for _, m := range pseudo {
		next := p.play(m)
		k := next.kingSquare(p.turn)
		if k != NoSquare && next.IsAttacked(k, next.turn) {
			continue
		}
		legal = append(legal, m)
	}
	return legal
}

func (p Position) hasLegalMove() bool {
	for _, m := range p.pseudoMoves() {
		next := p.play(m)
		k := next.kingSquare(p.turn)
		if k == NoSquare || !next.IsAttacked(k, next.turn) {
			return true
		}
	}
	return false
}

// Status classifies the position for the side to move.
type Status uint8

const (
	StatusOngoing Status = iota
	StatusCheck
	StatusCheckmate
	StatusStalemate
)

func (s Status) String() string {
	switch s {
	case StatusCheck:
		return "check"
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	default:
		return "ongoing"
	}
}

func (p Position) Status() Status {
	check := p.InCheck()
	switch {
	case check && !p.hasLegalMove():
		return StatusCheckmate
	case check:
		return StatusCheck
	case !p.hasLegalMove():
		return StatusStalemate
	default:
		return StatusOngoing
	}
}
