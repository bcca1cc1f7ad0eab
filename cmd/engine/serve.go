package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"ses-engine/internal/config"
	"ses-engine/internal/events"
	"ses-engine/internal/httpapi"
	"ses-engine/internal/poll"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the polling engine with the local HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, userCfgPath, err := loadConfig()
		if err != nil {
			return err
		}

		// One engine per data dir; a second instance would fight over the
		// mailbox \Seen flags and the sqlite writer.
		lock := flock.New(filepath.Join(cfg.App.DataDir, "engine.lock"))
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("lock data dir: %w", err)
		}
		if !locked {
			return fmt.Errorf("another engine instance is already running in %s", cfg.App.DataDir)
		}
		defer func() { _ = lock.Unlock() }()

		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		hub := events.NewHub()

		// Shared with the config handler; PUT /config stores here and the
		// runner loads it fresh on every run.
		var cfgVal atomic.Value
		cfgVal.Store(cfg)

		runner, err := buildRunner(&cfgVal, db, hub)
		if err != nil {
			return err
		}

		poller := poll.New(runner, hub)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		interval := time.Duration(cfg.Polling.IntervalSeconds) * time.Second
		if !cfg.Email.Enabled {
			log.Print("[serve] email disabled; poller runs only on explicit /run triggers")
			interval = 0
		}
		poller.Start(ctx, interval)

		mux := httpapi.NewMux(httpapi.Deps{
			DB:          db.Pool,
			Hub:         hub,
			CfgVal:      &cfgVal,
			Poller:      poller,
			UserCfgPath: userCfgPath,
			LoadCfg: func() (config.Config, error) {
				c, err := config.Load(userCfgPath)
				if err != nil {
					return c, err
				}
				c, res := config.NormalizeAndValidate(c)
				if !res.OK() {
					return c, errors.New("config invalid: " + joinLines(res.Errors))
				}
				return c, nil
			},
		})

		addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		log.Printf("[serve] listening on http://%s (data=%s)", addr, cfg.App.DataDir)

		srv := &http.Server{
			Handler:           httpapi.Chain(mux, httpapi.Cors, httpapi.RequestID, httpapi.Recover, httpapi.AccessLog),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Serve(ln) }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Print("[serve] shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	},
}
