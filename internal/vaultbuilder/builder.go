package vaultbuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/chess-vault/internal/config"
	"github.com/park285/chess-vault/internal/diagram"
	"github.com/park285/chess-vault/internal/fide"
	"github.com/park285/chess-vault/internal/lichess"
	"github.com/park285/chess-vault/internal/metrics"
	"github.com/park285/chess-vault/internal/notetmpl"
	"github.com/park285/chess-vault/internal/service/vault"
	"github.com/park285/chess-vault/internal/store/ledgercache"
	"github.com/park285/chess-vault/internal/store/memory"
	"github.com/park285/chess-vault/internal/store/notes"
	"github.com/park285/chess-vault/internal/store/postgres"
	"github.com/park285/chess-vault/internal/webapi"
)

type Deps struct {
	Service  *vault.Service
	FIDE     *fide.Client
	Notes    *notes.Store // nil unless the vault store is selected
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	closers []func() error
}

// Close releases database and Redis connections.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

type store interface {
	vault.Repository
	vault.LedgerStore
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)
	deps := &Deps{Registry: reg, Metrics: m}

	st, err := deps.openStore(cfg, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}

	var ledgers vault.LedgerStore = st
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rdb, err := openRedis(cfg.RedisURL)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, rdb.Close)
		ledgers = ledgercache.New(st, rdb, time.Duration(cfg.LedgerTTLSec)*time.Second, m, logger)
	}

	deps.FIDE = fide.NewClient(webapi.NewClient(cfg.FIDEAPIBaseURL,
		webapi.WithTimeout(time.Duration(cfg.FIDETimeoutSec)*time.Second),
		webapi.WithRetry(2),
	))
	games := lichess.NewClient(webapi.NewClient(lichess.DefaultBaseURL, webapi.WithRetry(2)))

	svc, err := vault.NewService(st, ledgers, diagram.NewRenderer(), vault.Config{
		KFactor:         cfg.KFactor,
		FIDEID:          cfg.FIDEID,
		LichessUsername: cfg.LichessUsername,
	}, logger,
		vault.WithPlayerLookup(deps.FIDE),
		vault.WithGameSource(games),
		vault.WithMetrics(m),
	)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Service = svc
	return deps, nil
}

func (d *Deps) openStore(cfg *config.AppConfig, logger *zap.Logger) (store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StorePostgres:
		pg, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		d.closers = append(d.closers, pg.Close)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	case config.StoreVault, "":
		tmpl, err := notetmpl.New(cfg.TemplateDir)
		if err != nil {
			return nil, fmt.Errorf("load note templates: %w", err)
		}
		ns, err := notes.New(notes.Layout{
			VaultDir:          cfg.VaultDir,
			GamesFolder:       cfg.GamesFolder,
			TournamentsFolder: cfg.TournamentsFolder,
			StorageDir:        cfg.StorageDir,
		}, tmpl, logger)
		if err != nil {
			return nil, err
		}
		d.Notes = ns
		return ns, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func openRedis(raw string) (*redis.Client, error) {
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
