package replay

import (
	"errors"
	"fmt"

	"github.com/park285/chess-vault/internal/chess"
	"github.com/park285/chess-vault/pkg/studydto"
)

var ErrDuplicateMoveID = errors.New("duplicate move id")

// Error reports the first token that could not be applied. Partial holds
// the entries validated before it; it is never a complete game.
type Error struct {
	Index   int
	Token   string
	Err     error
	Partial *Ledger
}

func (e *Error) Error() string {
	return fmt.Sprintf("replay: move %d (%q): %v", e.Index, e.Token, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Kind classifies the failure for logs and metrics.
func (e *Error) Kind() string {
	var (
		ill *chess.IllegalMoveError
		amb *chess.AmbiguousMoveError
		fe  *chess.FormatError
	)
	switch {
	case errors.As(e.Err, &amb):
		return "ambiguous"
	case errors.As(e.Err, &ill):
		return "illegal"
	case errors.As(e.Err, &fe):
		return "format"
	case errors.Is(e.Err, ErrDuplicateMoveID):
		return "duplicate_id"
	default:
		return "other"
	}
}

// Report is the serializable form of e.
func (e *Error) Report() studydto.ReplayError {
	return studydto.ReplayError{Index: e.Index, Token: e.Token, Kind: e.Kind(), Message: e.Error()}
}
