package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bonsplit/bonsplit/internal/common"
	"github.com/bonsplit/bonsplit/internal/config"
	"github.com/bonsplit/bonsplit/internal/ledger"
	"github.com/bonsplit/bonsplit/internal/model"
	"github.com/bonsplit/bonsplit/internal/oracle"
	"github.com/bonsplit/bonsplit/internal/split"
	"github.com/bonsplit/bonsplit/internal/storage"
)

func databasePath() (string, error) {
	if dbPath := viper.GetString("database.path"); dbPath != "" {
		return config.ExpandPath(dbPath), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "bonsplit", "bonsplit.db"), nil
}

// openStorage opens the configured database and verifies the schema is
// current, so commands fail with a hint instead of raw SQL errors.
func openStorage() (*storage.SQLiteStorage, error) {
	store, err := openStorageUnchecked()
	if err != nil {
		return nil, err
	}

	version, err := store.SchemaVersion(context.Background())
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if version != storage.ExpectedSchemaVersion {
		_ = store.Close()
		return nil, common.NewUserError(
			fmt.Sprintf("database schema is at version %d, expected %d: run 'bonsplit migrate' first",
				version, storage.ExpectedSchemaVersion),
			common.ErrSchemaOutdated)
	}
	return store, nil
}

// openStorageUnchecked skips the schema check, for commands that run
// the migrations themselves.
func openStorageUnchecked() (*storage.SQLiteStorage, error) {
	dbPath, err := databasePath()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// configuredPersons reads the household members from config.
func configuredPersons() ([]string, error) {
	persons := viper.GetStringSlice("persons")
	if len(persons) < 2 {
		return nil, common.NewUserError(
			"configure at least two persons (persons: [anna, ben] in config.yaml)",
			common.ErrMissingConfig)
	}
	return persons, nil
}

func newAssigner(store *storage.SQLiteStorage) (*split.Assigner, error) {
	persons, err := configuredPersons()
	if err != nil {
		return nil, err
	}
	return split.NewAssigner(store, persons)
}

func newLedger() *ledger.Ledger {
	return ledger.New(viper.GetFloat64("drift.tolerance"))
}

// newCorrector builds the name-correction oracle from config. offline
// forces the lexicon provider regardless of configuration.
func newCorrector(offline bool) (*oracle.Corrector, error) {
	cfg := oracle.Config{
		Provider:   viper.GetString("oracle.provider"),
		APIKey:     viper.GetString("oracle.api_key"),
		Model:      viper.GetString("oracle.model"),
		Timeout:    viper.GetDuration("oracle.timeout"),
		MaxRetries: viper.GetInt("oracle.max_retries"),
		RateLimit:  viper.GetInt("oracle.rate_limit"),
	}
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if offline {
		cfg.Provider = "lexicon"
	}

	return oracle.NewCorrector(cfg, slog.Default())
}

// parseShareArgs turns person=fraction arguments into a share vector.
func parseShareArgs(args []string) (model.ShareVector, error) {
	shares := make(model.ShareVector, len(args))
	for _, arg := range args {
		person, value, found := strings.Cut(arg, "=")
		if !found {
			return nil, fmt.Errorf("expected person=fraction, got %q", arg)
		}
		fraction, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("bad fraction in %q: %w", arg, err)
		}
		shares[strings.TrimSpace(person)] = fraction
	}
	return shares, nil
}
