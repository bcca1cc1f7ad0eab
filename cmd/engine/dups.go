package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ses-engine/internal/domain"
	"ses-engine/internal/httpapi"
	"ses-engine/internal/store"
)

var dupsDays int

var dupsCmd = &cobra.Command{
	Use:   "dups",
	Short: "Report near-duplicate listings in the recent window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		days := dupsDays
		if days <= 0 {
			days = cfg.Dedup.WindowDays
		}
		since := time.Now().AddDate(0, 0, -days)

		recs, err := store.ListProjectsSince(cmd.Context(), db.Pool, since, cfg.Dedup.MaxBatch)
		if err != nil {
			return err
		}

		groups := httpapi.GrouperFromConfig(cfg).Group(recs)

		fmt.Printf("scanned %d records from the last %d days\n", len(recs), days)
		if len(groups) == 0 {
			fmt.Println("no duplicate groups found")
			return nil
		}

		for i, g := range groups {
			fmt.Printf("\ngroup %d (%d records)\n", i+1, g.Size())
			printRecord("  seed:  ", g.Seed, 0)
			for _, m := range g.Members {
				printRecord("  dup:   ", m.Record, m.Score)
			}
		}
		return nil
	},
}

func printRecord(prefix string, r domain.ProjectRecord, score float64) {
	desc := r.Description
	if runes := []rune(desc); len(runes) > 40 {
		desc = string(runes[:40]) + "..."
	}
	if score > 0 {
		fmt.Printf("%s%-28s %s %q score=%.2f\n", prefix, r.Key(), r.UnitPrice, desc, score)
		return
	}
	fmt.Printf("%s%-28s %s %q\n", prefix, r.Key(), r.UnitPrice, desc)
}

func init() {
	dupsCmd.Flags().IntVar(&dupsDays, "days", 0, "window in days (default from config)")
}
