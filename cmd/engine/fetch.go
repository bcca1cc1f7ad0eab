package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and extract unseen emails once, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Email.Enabled {
			return fmt.Errorf("email is disabled in config; enable email.enabled first")
		}

		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		var cfgVal atomic.Value
		cfgVal.Store(cfg)

		runner, err := buildRunner(&cfgVal, db, nil)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Minute)
		defer cancel()

		counts, err := runner.RunOnce(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("fetched:   %d\n", counts.Fetched)
		fmt.Printf("skipped:   %d\n", counts.Skipped)
		fmt.Printf("processed: %d\n", counts.Processed)
		fmt.Printf("failed:    %d\n", counts.Failed)
		fmt.Printf("added:     %d\n", counts.Added)
		return nil
	},
}
