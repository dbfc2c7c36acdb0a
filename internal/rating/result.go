package rating

import (
	"strings"

	"github.com/park285/chess-vault/internal/chess"
)

// Result is the declared outcome of a game.
type Result uint8

const (
	ResultUnknown Result = iota
	ResultWhiteWins
	ResultBlackWins
	ResultDraw
)

// ParseResult recognizes the PGN result tokens. Anything else, including
// "*", is ResultUnknown.
func ParseResult(token string) Result {
	switch strings.TrimSpace(token) {
	case "1-0":
		return ResultWhiteWins
	case "0-1":
		return ResultBlackWins
	case "1/2-1/2", "½-½":
		return ResultDraw
	default:
		return ResultUnknown
	}
}

func (r Result) String() string {
	switch r {
	case ResultWhiteWins:
		return "1-0"
	case ResultBlackWins:
		return "0-1"
	case ResultDraw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// Score is the points earned by subject. Unknown results score zero.
func (r Result) Score(subject chess.Color) float64 {
	switch r.Outcome(subject) {
	case Win:
		return 1
	case Draw:
		return 0.5
	default:
		return 0
	}
}

// Outcome is a result seen from one player's side.
type Outcome uint8

const (
	Unknown Outcome = iota
	Win
	Loss
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "Win"
	case Loss:
		return "Loss"
	case Draw:
		return "Draw"
	default:
		return "Unknown"
	}
}

func (r Result) Outcome(subject chess.Color) Outcome {
	switch r {
	case ResultDraw:
		return Draw
	case ResultWhiteWins:
		if subject == chess.White {
			return Win
		}
		return Loss
	case ResultBlackWins:
		if subject == chess.Black {
			return Win
		}
		return Loss
	default:
		return Unknown
	}
}

// ParseDeclaredResult scores a result token for subject: 1 win, 0.5 draw,
// 0 for a loss or an unrecognized token.
func ParseDeclaredResult(token string, subject chess.Color) float64 {
	return ParseResult(token).Score(subject)
}
