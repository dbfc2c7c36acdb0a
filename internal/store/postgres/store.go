// Package postgres keeps tournaments, game records and ledgers in
// PostgreSQL for setups where several machines share one vault history.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/chess-vault/internal/domain"
	"github.com/park285/chess-vault/internal/service/vault"
	"github.com/park285/chess-vault/pkg/studydto"
)

const schema = `
CREATE TABLE IF NOT EXISTS tournaments (
    name                 TEXT PRIMARY KEY,
    status               TEXT NOT NULL,
    date_start           TEXT NOT NULL DEFAULT '',
    location             TEXT NOT NULL DEFAULT '',
    time_control         TEXT NOT NULL DEFAULT '',
    time_control_details TEXT NOT NULL DEFAULT '',
    total_rounds         INTEGER NOT NULL DEFAULT 0,
    link                 TEXT NOT NULL DEFAULT '',
    start_rating         INTEGER NOT NULL DEFAULT 0,
    end_rating           INTEGER NOT NULL DEFAULT 0,
    performance_rating   INTEGER NOT NULL DEFAULT 0,
    score                TEXT NOT NULL DEFAULT '0/0',
    rating_change        DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS games (
    id               TEXT PRIMARY KEY,
    note_key         TEXT NOT NULL UNIQUE,
    tournament       TEXT NOT NULL,
    round            INTEGER NOT NULL,
    result           TEXT NOT NULL,
    my_color         TEXT NOT NULL,
    my_result        TEXT NOT NULL,
    opponent         TEXT NOT NULL,
    opponent_rating  INTEGER NOT NULL DEFAULT 0,
    opponent_fide_id TEXT NOT NULL DEFAULT '',
    game_date        TEXT NOT NULL,
    opening          TEXT NOT NULL DEFAULT '',
    eco              TEXT NOT NULL DEFAULT '',
    ledger_id        TEXT NOT NULL,
    pgn              TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS ledgers (
    id         TEXT PRIMARY KEY,
    study      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

type Store struct {
	db *sql.DB
}

func New(databaseURL string) (*Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const tournamentColumns = `name, status, date_start, location, time_control, time_control_details,
    total_rounds, link, start_rating, end_rating, performance_rating, score, rating_change,
    created_at, updated_at`

func (s *Store) CreateTournament(ctx context.Context, t *domain.Tournament) error {
	if t == nil {
		return fmt.Errorf("nil tournament payload")
	}
	now := time.Now().UTC()
	q := `INSERT INTO tournaments (` + tournamentColumns + `)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)
      ON CONFLICT (name) DO NOTHING`
	res, err := s.db.ExecContext(ctx, q,
		t.Name, string(t.Status), t.DateStart, t.Location, t.TimeControl, t.TimeControlDetails,
		t.TotalRounds, t.Link, t.StartRating, t.EndRating, t.PerformanceRating, t.Score, t.RatingChange,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert tournament %s: %w", t.Name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", vault.ErrTournamentExists, t.Name)
	}
	return nil
}

func (s *Store) GetTournament(ctx context.Context, name string) (*domain.Tournament, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE name = $1`, strings.TrimSpace(name))
	t, err := scanTournament(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (s *Store) UpdateTournament(ctx context.Context, t *domain.Tournament) error {
	if t == nil {
		return fmt.Errorf("nil tournament payload")
	}
	q := `UPDATE tournaments SET
        status=$2, start_rating=$3, end_rating=$4, performance_rating=$5,
        score=$6, rating_change=$7, updated_at=$8
      WHERE name=$1`
	res, err := s.db.ExecContext(ctx, q,
		t.Name, string(t.Status), t.StartRating, t.EndRating, t.PerformanceRating,
		t.Score, t.RatingChange, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update tournament %s: %w", t.Name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", vault.ErrTournamentNotFound, t.Name)
	}
	return nil
}

func (s *Store) ListTournaments(ctx context.Context) ([]*domain.Tournament, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*domain.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTournament(r scanner) (*domain.Tournament, error) {
	var (
		t      domain.Tournament
		status string
	)
	err := r.Scan(&t.Name, &status, &t.DateStart, &t.Location, &t.TimeControl, &t.TimeControlDetails,
		&t.TotalRounds, &t.Link, &t.StartRating, &t.EndRating, &t.PerformanceRating, &t.Score, &t.RatingChange,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TournamentStatus(status)
	return &t, nil
}

const gameColumns = `id, tournament, round, result, my_color, my_result, opponent, opponent_rating,
    opponent_fide_id, game_date, opening, eco, ledger_id, pgn, created_at`

// InsertGame refuses a second game with the same note key.
func (s *Store) InsertGame(ctx context.Context, g *domain.GameRecord) error {
	if g == nil {
		return fmt.Errorf("nil game payload")
	}
	createdAt := g.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	q := `INSERT INTO games (note_key, ` + gameColumns + `)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
      ON CONFLICT DO NOTHING
      RETURNING id`
	var id string
	err := s.db.QueryRowContext(ctx, q,
		g.NoteName(), g.ID, g.Tournament, g.Round, g.Result, g.MyColor, g.MyResult, g.Opponent, g.OpponentRating,
		g.OpponentFIDEID, g.Date, g.Opening, g.ECO, g.LedgerID, g.PGN, createdAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", vault.ErrDuplicateGame, g.NoteName())
	}
	if err != nil {
		return fmt.Errorf("insert game %s: %w", g.NoteName(), err)
	}
	return nil
}

func (s *Store) ListGames(ctx context.Context) ([]*domain.GameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+gameColumns+` FROM games ORDER BY game_date, round`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*domain.GameRecord
	for rows.Next() {
		var g domain.GameRecord
		if err := rows.Scan(&g.ID, &g.Tournament, &g.Round, &g.Result, &g.MyColor, &g.MyResult, &g.Opponent,
			&g.OpponentRating, &g.OpponentFIDEID, &g.Date, &g.Opening, &g.ECO, &g.LedgerID, &g.PGN, &g.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &g)
	}
	return items, rows.Err()
}

func (s *Store) SaveLedger(ctx context.Context, id string, study studydto.Study) error {
	raw, err := json.Marshal(study)
	if err != nil {
		return fmt.Errorf("encode ledger %s: %w", id, err)
	}
	q := `INSERT INTO ledgers (id, study, updated_at) VALUES ($1, $2, now())
      ON CONFLICT (id) DO UPDATE SET study=EXCLUDED.study, updated_at=EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, q, id, string(raw)); err != nil {
		return fmt.Errorf("save ledger %s: %w", id, err)
	}
	return nil
}

func (s *Store) LoadLedger(ctx context.Context, id string) (*studydto.Study, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT study FROM ledgers WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var study studydto.Study
	if err := json.Unmarshal(raw, &study); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", id, err)
	}
	return &study, nil
}

func (s *Store) DeleteLedger(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ledgers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete ledger %s: %w", id, err)
	}
	return nil
}

var (
	_ vault.Repository  = (*Store)(nil)
	_ vault.LedgerStore = (*Store)(nil)
)
