// Package notes stores tournaments, games and replay ledgers as files inside
// an Obsidian vault: markdown notes with YAML frontmatter plus chess-study
// JSON documents.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/chess-vault/internal/domain"
	"github.com/park285/chess-vault/internal/notetmpl"
	"github.com/park285/chess-vault/internal/service/vault"
	"github.com/park285/chess-vault/pkg/studydto"
)

// Layout names the vault root and the folders below it.
type Layout struct {
	VaultDir          string
	GamesFolder       string
	TournamentsFolder string
	StorageDir        string
}

func (l Layout) tournamentsDir() string { return filepath.Join(l.VaultDir, l.TournamentsFolder) }
func (l Layout) gamesDir() string       { return filepath.Join(l.VaultDir, l.GamesFolder) }
func (l Layout) storageDir() string     { return filepath.Join(l.VaultDir, l.StorageDir) }

const (
	noteTypeTournament = "tournament"
	noteTypeGame       = "game"
	tagTournament      = "chess/tournament"
	tagGames           = "chess/games"
)

type tournamentMeta struct {
	Type               string   `yaml:"type"`
	Status             string   `yaml:"status"`
	DateStart          string   `yaml:"date_start"`
	Location           string   `yaml:"location"`
	TimeControl        string   `yaml:"time_control"`
	TimeControlDetails string   `yaml:"time_control_details"`
	TotalRounds        int      `yaml:"total_rounds"`
	StartRating        int      `yaml:"start_rating"`
	EndRating          int      `yaml:"end_rating"`
	PerformanceRating  int      `yaml:"performance_rating"`
	Score              string   `yaml:"score"`
	TournamentLink     string   `yaml:"tournament_link"`
	Tags               []string `yaml:"tags"`
	RatingChange       float64  `yaml:"rating_change"`
}

// tournamentUpdate holds the fields a lifecycle transition may touch.
type tournamentUpdate struct {
	Status            string  `yaml:"status"`
	StartRating       int     `yaml:"start_rating"`
	EndRating         int     `yaml:"end_rating"`
	PerformanceRating int     `yaml:"performance_rating"`
	Score             string  `yaml:"score"`
	RatingChange      float64 `yaml:"rating_change"`
}

type gameMeta struct {
	Type           string   `yaml:"type"`
	Tournament     string   `yaml:"tournament"`
	Round          int      `yaml:"round"`
	Result         string   `yaml:"result"`
	MyColor        string   `yaml:"my_color"`
	MyResult       string   `yaml:"my_result"`
	Opponent       string   `yaml:"opponent"`
	OpponentRating int      `yaml:"opponent_rating"`
	FIDEID         string   `yaml:"fide_id"`
	Date           string   `yaml:"date"`
	Tags           []string `yaml:"tags"`
	Opening        string   `yaml:"opening"`
	ECO            string   `yaml:"eco"`
}

var studyIDLine = regexp.MustCompile(`(?m)^chessStudyId:\s*(\S+)\s*$`)

// Store implements vault.Repository and vault.LedgerStore on top of a vault
// directory. Writes are serialized; Obsidian may edit the same files
// concurrently, so every read goes to disk.
type Store struct {
	layout    Layout
	templates *notetmpl.Catalog
	logger    *zap.Logger

	mu sync.Mutex
}

func New(layout Layout, templates *notetmpl.Catalog, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(layout.VaultDir) == "" {
		return nil, fmt.Errorf("vault dir is required")
	}
	if templates == nil {
		return nil, fmt.Errorf("note templates are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{layout: layout, templates: templates, logger: logger}, nil
}

func checkName(kind, name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: bad %s name %q", vault.ErrInvalidInput, kind, name)
	}
	return nil
}

func (s *Store) tournamentPath(name string) string {
	return filepath.Join(s.layout.tournamentsDir(), name+".md")
}

func (s *Store) CreateTournament(ctx context.Context, t *domain.Tournament) error {
	if t == nil {
		return fmt.Errorf("nil tournament payload")
	}
	if err := checkName("tournament", t.Name); err != nil {
		return err
	}
	meta := tournamentMeta{
		Type:               noteTypeTournament,
		Status:             string(t.Status),
		DateStart:          t.DateStart,
		Location:           t.Location,
		TimeControl:        t.TimeControl,
		TimeControlDetails: t.TimeControlDetails,
		TotalRounds:        t.TotalRounds,
		StartRating:        t.StartRating,
		EndRating:          t.EndRating,
		PerformanceRating:  t.PerformanceRating,
		Score:              t.Score,
		TournamentLink:     t.Link,
		Tags:               []string{tagTournament},
		RatingChange:       t.RatingChange,
	}
	front, err := encodeYAML(meta)
	if err != nil {
		return fmt.Errorf("encode tournament %s: %w", t.Name, err)
	}
	body, err := s.templates.Render(notetmpl.KeyTournamentBody, map[string]any{
		"Name":        t.Name,
		"GamesFolder": s.layout.GamesFolder,
	})
	if err != nil {
		return fmt.Errorf("render tournament %s: %w", t.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = createExclusive(s.tournamentPath(t.Name), joinNote(front, []byte("\n"+body)))
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", vault.ErrTournamentExists, t.Name)
	}
	return err
}

func (s *Store) GetTournament(ctx context.Context, name string) (*domain.Tournament, error) {
	if err := checkName("tournament", name); err != nil {
		return nil, err
	}
	t, err := s.readTournament(s.tournamentPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return t, err
}

func (s *Store) readTournament(path string) (*domain.Tournament, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	front, _, err := splitNote(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var meta tournamentMeta
	if err := decodeYAML(front, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	status := domain.TournamentStatus(meta.Status)
	if status == "" {
		status = domain.TournamentPending
	}
	t := &domain.Tournament{
		Name:               strings.TrimSuffix(filepath.Base(path), ".md"),
		Status:             status,
		DateStart:          meta.DateStart,
		Location:           meta.Location,
		TimeControl:        meta.TimeControl,
		TimeControlDetails: meta.TimeControlDetails,
		TotalRounds:        meta.TotalRounds,
		Link:               meta.TournamentLink,
		StartRating:        meta.StartRating,
		EndRating:          meta.EndRating,
		PerformanceRating:  meta.PerformanceRating,
		Score:              meta.Score,
		RatingChange:       meta.RatingChange,
	}
	if info, err := os.Stat(path); err == nil {
		t.UpdatedAt = info.ModTime()
	}
	return t, nil
}

// UpdateTournament rewrites the lifecycle fields of the note's frontmatter.
// The body and any keys added by hand are preserved.
func (s *Store) UpdateTournament(ctx context.Context, t *domain.Tournament) error {
	if t == nil {
		return fmt.Errorf("nil tournament payload")
	}
	if err := checkName("tournament", t.Name); err != nil {
		return err
	}
	path := s.tournamentPath(t.Name)

	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", vault.ErrTournamentNotFound, t.Name)
	}
	if err != nil {
		return err
	}
	front, body, err := splitNote(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	front, err = mergeFrontmatter(front, tournamentUpdate{
		Status:            string(t.Status),
		StartRating:       t.StartRating,
		EndRating:         t.EndRating,
		PerformanceRating: t.PerformanceRating,
		Score:             t.Score,
		RatingChange:      t.RatingChange,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return writeFile(path, joinNote(front, body))
}

func (s *Store) ListTournaments(ctx context.Context) ([]*domain.Tournament, error) {
	entries, err := os.ReadDir(s.layout.tournamentsDir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	items := make([]*domain.Tournament, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		t, err := s.readTournament(filepath.Join(s.layout.tournamentsDir(), e.Name()))
		if err != nil {
			s.logger.Warn("skip unreadable tournament note", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		items = append(items, t)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (s *Store) InsertGame(ctx context.Context, g *domain.GameRecord) error {
	if g == nil {
		return fmt.Errorf("nil game payload")
	}
	name := g.NoteName()
	meta := gameMeta{
		Type:           noteTypeGame,
		Tournament:     g.Tournament,
		Round:          g.Round,
		Result:         g.Result,
		MyColor:        g.MyColor,
		MyResult:       g.MyResult,
		Opponent:       g.Opponent,
		OpponentRating: g.OpponentRating,
		FIDEID:         g.OpponentFIDEID,
		Date:           g.Date,
		Tags:           []string{tagGames, "chess/" + strings.ToLower(g.MyResult)},
		Opening:        g.Opening,
		ECO:            g.ECO,
	}
	front, err := encodeYAML(meta)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", name, err)
	}
	body, err := s.templates.Render(notetmpl.KeyGameBody, map[string]any{
		"Round":    g.Round,
		"Opponent": g.Opponent,
		"MyResult": g.MyResult,
		"LedgerID": g.LedgerID,
	})
	if err != nil {
		return fmt.Errorf("render game %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = createExclusive(filepath.Join(s.layout.gamesDir(), name+".md"), joinNote(front, []byte("\n"+body)))
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", vault.ErrDuplicateGame, name)
	}
	return err
}

// ListGames reads every game note below the games folder, by date, then
// round. Notes of other types are ignored.
func (s *Store) ListGames(ctx context.Context) ([]*domain.GameRecord, error) {
	root := s.layout.gamesDir()
	var items []*domain.GameRecord
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}
		g, err := readGame(path)
		if err != nil {
			s.logger.Warn("skip unreadable game note", zap.String("file", path), zap.Error(err))
			return nil
		}
		if g != nil {
			items = append(items, g)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date < items[j].Date
		}
		return items[i].Round < items[j].Round
	})
	return items, nil
}

func readGame(path string) (*domain.GameRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	front, body, err := splitNote(raw)
	if err != nil {
		return nil, err
	}
	var meta gameMeta
	if err := decodeYAML(front, &meta); err != nil {
		return nil, err
	}
	if meta.Type != noteTypeGame {
		return nil, nil
	}
	g := &domain.GameRecord{
		Tournament:     meta.Tournament,
		Round:          meta.Round,
		Result:         meta.Result,
		MyColor:        meta.MyColor,
		MyResult:       meta.MyResult,
		Opponent:       meta.Opponent,
		OpponentRating: meta.OpponentRating,
		OpponentFIDEID: meta.FIDEID,
		Date:           meta.Date,
		Opening:        meta.Opening,
		ECO:            meta.ECO,
	}
	if m := studyIDLine.FindSubmatch(body); m != nil {
		g.LedgerID = string(m[1])
		g.ID = g.LedgerID
	}
	if info, err := os.Stat(path); err == nil {
		g.CreatedAt = info.ModTime()
	}
	return g, nil
}

// SaveLedger writes the study document as indented JSON, replacing any
// previous version.
func (s *Store) SaveLedger(ctx context.Context, id string, study studydto.Study) error {
	if err := checkName("ledger", id); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(study, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger %s: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFile(filepath.Join(s.layout.storageDir(), id+".json"), raw)
}

func (s *Store) LoadLedger(ctx context.Context, id string) (*studydto.Study, error) {
	if err := checkName("ledger", id); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(s.layout.storageDir(), id+".json"))
	if errors.Is(err, fs.ErrNotExist) {
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

// DeleteLedger removes the study file. A missing file is not an error.
func (s *Store) DeleteLedger(ctx context.Context, id string) error {
	if err := checkName("ledger", id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(filepath.Join(s.layout.storageDir(), id+".json"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete ledger %s: %w", id, err)
	}
	return nil
}

// WriteRaw stores an arbitrary markdown document at the vault root, used for
// FIDE profile dumps. Existing files are replaced.
func (s *Store) WriteRaw(name string, content []byte) (string, error) {
	if err := checkName("file", name); err != nil {
		return "", err
	}
	path := filepath.Join(s.layout.VaultDir, name)
	s.mu.Lock()
	defer s.mu.Unlock()
	return path, writeFile(path, content)
}

func createExclusive(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeFile replaces path through a temp file and rename.
func writeFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".chessvault-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var (
	_ vault.Repository  = (*Store)(nil)
	_ vault.LedgerStore = (*Store)(nil)
)
