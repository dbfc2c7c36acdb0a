// Package memory is an in-process store used when no vault directory or
// database is configured, and by tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/park285/chess-vault/internal/domain"
	"github.com/park285/chess-vault/internal/service/vault"
	"github.com/park285/chess-vault/pkg/studydto"
)

type Store struct {
	mu sync.RWMutex

	tournaments map[string]*domain.Tournament
	games       []*domain.GameRecord
	gameKeys    map[string]struct{} // note name -> logged
	ledgers     map[string]studydto.Study
}

func New() *Store {
	return &Store{
		tournaments: make(map[string]*domain.Tournament),
		gameKeys:    make(map[string]struct{}),
		ledgers:     make(map[string]studydto.Study),
	}
}

func (m *Store) CreateTournament(ctx context.Context, t *domain.Tournament) error {
	if t == nil {
		return fmt.Errorf("nil tournament payload")
	}
	key := strings.TrimSpace(t.Name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tournaments[key]; exists {
		return fmt.Errorf("%w: %s", vault.ErrTournamentExists, key)
	}
	copy := *t
	m.tournaments[key] = &copy
	return nil
}

func (m *Store) GetTournament(ctx context.Context, name string) (*domain.Tournament, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tournaments[strings.TrimSpace(name)]
	if !ok {
		return nil, nil
	}
	copy := *t
	return &copy, nil
}

func (m *Store) UpdateTournament(ctx context.Context, t *domain.Tournament) error {
	if t == nil {
		return fmt.Errorf("nil tournament payload")
	}
	key := strings.TrimSpace(t.Name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tournaments[key]; !ok {
		return fmt.Errorf("%w: %s", vault.ErrTournamentNotFound, key)
	}
	copy := *t
	m.tournaments[key] = &copy
	return nil
}

func (m *Store) ListTournaments(ctx context.Context) ([]*domain.Tournament, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]*domain.Tournament, 0, len(m.tournaments))
	for _, t := range m.tournaments {
		copy := *t
		items = append(items, &copy)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *Store) InsertGame(ctx context.Context, game *domain.GameRecord) error {
	if game == nil {
		return fmt.Errorf("nil game payload")
	}
	key := game.NoteName()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.gameKeys[key]; exists {
		return fmt.Errorf("%w: %s", vault.ErrDuplicateGame, key)
	}
	copy := *game
	m.gameKeys[key] = struct{}{}
	m.games = append(m.games, &copy)
	return nil
}

// ListGames returns games by date, then round.
func (m *Store) ListGames(ctx context.Context) ([]*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]*domain.GameRecord, len(m.games))
	for i, g := range m.games {
		copy := *g
		items[i] = &copy
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date < items[j].Date
		}
		return items[i].Round < items[j].Round
	})
	return items, nil
}

func (m *Store) SaveLedger(ctx context.Context, id string, study studydto.Study) error {
	m.mu.Lock()
	m.ledgers[id] = study
	m.mu.Unlock()
	return nil
}

func (m *Store) DeleteLedger(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.ledgers, id)
	m.mu.Unlock()
	return nil
}

func (m *Store) LoadLedger(ctx context.Context, id string) (*studydto.Study, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.ledgers[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}
