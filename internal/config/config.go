package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	StoreVault    = "vault"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type AppConfig struct {
	VaultDir          string `yaml:"vault_dir" validate:"required_if=Store vault"`
	GamesFolder       string `yaml:"games_folder" validate:"required"`
	TournamentsFolder string `yaml:"tournaments_folder" validate:"required"`
	StorageDir        string `yaml:"storage_dir" validate:"required"`

	KFactor float64 `yaml:"k_factor" validate:"gt=0,lte=100"`

	FIDEID         string `yaml:"fide_id" validate:"omitempty,numeric"`
	FIDEAPIBaseURL string `yaml:"fide_api_base_url" validate:"required,url"`
	FIDETimeoutSec int    `yaml:"fide_timeout_sec" validate:"gte=1,lte=120"`

	LichessUsername  string `yaml:"lichess_username"`
	ChessComUsername string `yaml:"chesscom_username"`

	Store       string `yaml:"store" validate:"oneof=vault postgres memory"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=Store postgres"`
	RedisURL    string `yaml:"redis_url"`

	LedgerTTLSec int `yaml:"ledger_ttl_sec" validate:"gte=0"`

	TemplateDir string `yaml:"template_dir"`
	MetricsFile string `yaml:"metrics_file"`
}

var validate = validator.New()

// Load builds the configuration from defaults, an optional YAML file named
// by CHESS_CONFIG_FILE, and finally the environment.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		GamesFolder:       "Games",
		TournamentsFolder: "Tournaments",
		StorageDir:        ".obsidian/plugins/chess-study/storage",
		KFactor:           20,
		FIDEAPIBaseURL:    "https://fide-api.vercel.app",
		FIDETimeoutSec:    10,
		Store:             StoreVault,
	}

	if path := strings.TrimSpace(os.Getenv("CHESS_CONFIG_FILE")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	setString(&cfg.VaultDir, "CHESS_VAULT_DIR")
	setString(&cfg.GamesFolder, "CHESS_GAMES_FOLDER")
	setString(&cfg.TournamentsFolder, "CHESS_TOURNAMENTS_FOLDER")
	setString(&cfg.StorageDir, "CHESS_STORAGE_DIR")
	setString(&cfg.FIDEID, "FIDE_ID")
	setString(&cfg.FIDEAPIBaseURL, "FIDE_API_BASE_URL")
	setString(&cfg.LichessUsername, "LICHESS_USERNAME")
	setString(&cfg.ChessComUsername, "CHESSCOM_USERNAME")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.TemplateDir, "CHESS_TEMPLATE_DIR")
	setString(&cfg.MetricsFile, "CHESS_METRICS_FILE")
	if v := strings.TrimSpace(os.Getenv("CHESS_STORE")); v != "" {
		cfg.Store = strings.ToLower(v)
	}

	if v := strings.TrimSpace(os.Getenv("CHESS_K_FACTOR")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.KFactor = f
		}
	}
	if v := strings.TrimSpace(os.Getenv("FIDE_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FIDETimeoutSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_LEDGER_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.LedgerTTLSec = n
		}
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("invalid config: %s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *AppConfig) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
