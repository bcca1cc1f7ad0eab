package main

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"ses-engine/internal/config"
	"ses-engine/internal/events"
	"ses-engine/internal/gemini"
	"ses-engine/internal/pipeline"
	"ses-engine/internal/secrets"
	"ses-engine/internal/store"
)

func openStore(cfg config.Config) (*store.DB, error) {
	dbPath := filepath.Join(cfg.App.DataDir, "ses.db")
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", dbPath, err)
	}
	if err := store.Migrate(db.Pool); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// buildRunner wires the pipeline from the shared config value plus keychain
// secrets. The model client and password are resolved per run so a saved
// config takes effect without a restart.
func buildRunner(cfgVal *atomic.Value, db *store.DB, hub *events.Hub) (*pipeline.Runner, error) {
	// Resolve once up front so a missing secret fails the command, not the
	// first poll tick.
	if _, err := secrets.GetGeminiAPIKey(); err != nil {
		return nil, err
	}
	cfg := cfgVal.Load().(config.Config)
	if cfg.Email.Enabled {
		if _, err := secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(cfg)); err != nil {
			return nil, err
		}
	}

	return &pipeline.Runner{
		DB:     db,
		CfgVal: cfgVal,
		NewGen: func(cfg config.Config) (pipeline.TextGenerator, error) {
			apiKey, err := secrets.GetGeminiAPIKey()
			if err != nil {
				return nil, err
			}
			return gemini.New(gemini.Config{
				APIKey:            apiKey,
				Model:             cfg.Gemini.Model,
				BaseURL:           cfg.Gemini.BaseURL,
				MaxAttempts:       cfg.Gemini.MaxRetries,
				RetryBase:         time.Duration(cfg.Gemini.RetryBaseSeconds) * time.Second,
				RequestsPerSecond: cfg.Gemini.RequestsPerSecond,
			}), nil
		},
		Password: func(cfg config.Config) (string, error) {
			return secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(cfg))
		},
		Hub: hub,
	}, nil
}
