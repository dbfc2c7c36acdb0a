package vault

import (
	"context"
	"errors"

	"github.com/park285/chess-vault/internal/chess"
	"github.com/park285/chess-vault/internal/diagram"
	"github.com/park285/chess-vault/internal/domain"
	"github.com/park285/chess-vault/pkg/studydto"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTournamentExists   = errors.New("tournament already exists")
	ErrTournamentStatus   = errors.New("tournament status does not allow this")
	ErrDuplicateGame      = errors.New("game already logged")
	ErrInvalidTranscript  = errors.New("invalid game transcript")
	ErrLedgerNotFound     = errors.New("ledger not found")
	ErrPlyOutOfRange      = errors.New("ply out of range")
	ErrInvalidInput       = errors.New("invalid input")
)

// Repository persists tournaments and game records. Get returns nil, nil
// for a missing tournament.
type Repository interface {
	CreateTournament(ctx context.Context, t *domain.Tournament) error
	GetTournament(ctx context.Context, name string) (*domain.Tournament, error)
	UpdateTournament(ctx context.Context, t *domain.Tournament) error
	ListTournaments(ctx context.Context) ([]*domain.Tournament, error)
	InsertGame(ctx context.Context, game *domain.GameRecord) error
	ListGames(ctx context.Context) ([]*domain.GameRecord, error)
}

// LedgerStore keeps replayed games in chess-study form. Load returns nil, nil
// for an unknown id and deleting an unknown id is not an error.
type LedgerStore interface {
	SaveLedger(ctx context.Context, id string, study studydto.Study) error
	LoadLedger(ctx context.Context, id string) (*studydto.Study, error)
	DeleteLedger(ctx context.Context, id string) error
}

type PlayerLookup interface {
	Player(ctx context.Context, fideID string) (*domain.Player, error)
}

// GameSource downloads the PGN of an online game by URL.
type GameSource interface {
	FetchPGN(ctx context.Context, gameURL string) (string, error)
}

type DiagramRenderer interface {
	RenderPNG(ctx context.Context, pos chess.Position, opts diagram.Options) ([]byte, error)
}
