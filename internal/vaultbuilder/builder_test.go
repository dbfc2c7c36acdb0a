package vaultbuilder

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/chess-vault/internal/config"
	"github.com/park285/chess-vault/internal/service/vault"
)

func baseConfig(t *testing.T) *config.AppConfig {
	return &config.AppConfig{
		VaultDir:          t.TempDir(),
		GamesFolder:       "Games",
		TournamentsFolder: "Tournaments",
		StorageDir:        "storage",
		KFactor:           20,
		FIDEAPIBaseURL:    "http://127.0.0.1:1",
		FIDETimeoutSec:    1,
		Store:             config.StoreVault,
	}
}

func TestNewVaultStore(t *testing.T) {
	deps, err := New(baseConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { deps.Close() })
	require.NotNil(t, deps.Service)
	require.NotNil(t, deps.Notes)

	ctx := context.Background()
	_, err = deps.Service.CreateTournament(ctx, vault.TournamentInput{Name: "Club Night", StartRating: ptr(1500)})
	require.NoError(t, err)
	items, err := deps.Service.Tournaments(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Club Night", items[0].Name)
}

func TestNewMemoryStoreWithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := baseConfig(t)
	cfg.Store = config.StoreMemory
	cfg.RedisURL = fmt.Sprintf("redis://%s/0", mr.Addr())
	deps, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { deps.Close() })
	assert.Nil(t, deps.Notes)

	ctx := context.Background()
	_, err = deps.Service.LogGame(ctx, vault.GameInput{Tournament: "Club Night", PGN: "1. e4 e5 2. Nf3 *"})
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys())
}

func TestNewRejectsBadInputs(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)

	cfg := baseConfig(t)
	cfg.Store = "sqlite"
	_, err = New(cfg, nil)
	require.Error(t, err)

	cfg = baseConfig(t)
	cfg.RedisURL = "http://not-redis"
	_, err = New(cfg, nil)
	require.Error(t, err)
}

func ptr(n int) *int { return &n }
