// Package ledgercache puts a Redis read-through cache in front of a
// vault.LedgerStore. Replayed ledgers never change once written, so cached
// copies only expire to bound memory.
package ledgercache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/chess-vault/internal/metrics"
	"github.com/park285/chess-vault/internal/service/vault"
	"github.com/park285/chess-vault/pkg/studydto"
)

const DefaultTTL = 24 * time.Hour

type Store struct {
	next    vault.LedgerStore
	rdb     *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New wraps next. A ttl of zero uses DefaultTTL.
func New(next vault.LedgerStore, rdb *redis.Client, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{next: next, rdb: rdb, ttl: ttl, metrics: m, logger: logger}
}

func (s *Store) key(id string) string { return "ledger:" + strings.TrimSpace(id) }

// SaveLedger writes through to the backing store first; the cache entry is
// refreshed only after that succeeds.
func (s *Store) SaveLedger(ctx context.Context, id string, study studydto.Study) error {
	if err := s.next.SaveLedger(ctx, id, study); err != nil {
		return err
	}
	s.put(ctx, id, &study)
	return nil
}

// LoadLedger serves from Redis when possible. Redis failures fall back to the
// backing store.
func (s *Store) LoadLedger(ctx context.Context, id string) (*studydto.Study, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	switch {
	case err == nil:
		var study studydto.Study
		if jerr := json.Unmarshal(raw, &study); jerr == nil {
			s.metrics.LedgerCache(true)
			return &study, nil
		}
		s.logger.Warn("drop corrupt cached ledger", zap.String("ledger_id", id))
		_ = s.rdb.Del(ctx, s.key(id)).Err()
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("ledger cache read failed", zap.String("ledger_id", id), zap.Error(err))
	}
	s.metrics.LedgerCache(false)

	study, err := s.next.LoadLedger(ctx, id)
	if err != nil || study == nil {
		return study, err
	}
	s.put(ctx, id, study)
	return study, nil
}

// DeleteLedger drops the cache entry before deleting from the backing store,
// so a failed backing delete never leaves a cached copy of a removed ledger.
func (s *Store) DeleteLedger(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		s.logger.Warn("ledger cache delete failed", zap.String("ledger_id", id), zap.Error(err))
	}
	return s.next.DeleteLedger(ctx, id)
}

func (s *Store) put(ctx context.Context, id string, study *studydto.Study) {
	raw, err := json.Marshal(study)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, s.key(id), raw, s.ttl).Err(); err != nil {
		s.logger.Warn("ledger cache write failed", zap.String("ledger_id", id), zap.Error(err))
	}
}

var _ vault.LedgerStore = (*Store)(nil)
