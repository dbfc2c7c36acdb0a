package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/chess-vault/internal/config"
	"github.com/park285/chess-vault/internal/obslog"
	"github.com/park285/chess-vault/internal/service/vault"
	"github.com/park285/chess-vault/internal/vaultbuilder"
)

// app holds what commands share. Dependencies are built on first use so
// pure commands (replay, rating) run without a vault or network.
type app struct {
	stdin io.Reader
	cfg   *config.AppConfig
	deps  *vaultbuilder.Deps
}

func newApp(stdin io.Reader) *app {
	return &app{stdin: stdin}
}

func (a *app) config() (*config.AppConfig, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *app) dependencies() (*vaultbuilder.Deps, error) {
	if a.deps != nil {
		return a.deps, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	deps, err := vaultbuilder.New(cfg, obslog.L())
	if err != nil {
		return nil, err
	}
	a.deps = deps
	return deps, nil
}

func (a *app) service() (*vault.Service, error) {
	deps, err := a.dependencies()
	if err != nil {
		return nil, err
	}
	return deps.Service, nil
}

// finish writes the metrics textfile, when configured, and closes
// connections.
func (a *app) finish() error {
	if a.deps == nil {
		return nil
	}
	defer func() {
		a.deps.Close()
		a.deps = nil
	}()
	if a.cfg == nil || strings.TrimSpace(a.cfg.MetricsFile) == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, a.deps.Registry); err != nil {
		obslog.L().Warn("metrics textfile write failed", zap.String("path", a.cfg.MetricsFile), zap.Error(err))
		return err
	}
	return nil
}

// readInput returns the named file, or stdin for "" and "-".
func (a *app) readInput(path string) (string, error) {
	if path == "" || path == "-" {
		raw, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "chessvault",
		Short:        "Keep a chess tournament journal in an Obsidian vault",
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.finish()
		},
	}
	root.AddCommand(
		newReplayCmd(a),
		newGameCmd(a),
		newTournamentCmd(a),
		newRatingCmd(),
		newFIDECmd(a),
		newDiagramCmd(a),
	)
	return root
}
