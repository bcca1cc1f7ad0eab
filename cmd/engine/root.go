package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ses-engine/internal/config"
)

var (
	flagDataDir string
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "SES solicitation email extraction engine",
	Long: `engine polls an IMAP mailbox for SES solicitation emails, extracts
project listings with a generative model (with a rule-based fallback),
stores them in sqlite, and reports near-duplicate listings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default $SES_DATA_DIR or .)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default <data-dir>/config.yml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(dupsCmd)
	rootCmd.AddCommand(setSecretCmd)
}

func dataDir() string {
	if flagDataDir != "" {
		return flagDataDir
	}
	if d := os.Getenv("SES_DATA_DIR"); d != "" {
		return d
	}
	return "."
}

// loadConfig bootstraps the user config under the data dir and returns the
// normalized result.
func loadConfig() (config.Config, string, error) {
	dir := dataDir()

	userCfgPath := flagConfig
	if userCfgPath == "" {
		defaultCfgPath := filepath.Join("config", "config.yml")
		p, err := config.EnsureUserConfig(dir, defaultCfgPath)
		if err != nil {
			return config.Config{}, "", fmt.Errorf("config bootstrap failed: %w", err)
		}
		userCfgPath = p
	}

	cfg, err := config.Load(userCfgPath)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("config load failed (%s): %w", userCfgPath, err)
	}

	cfg, res := config.NormalizeAndValidate(cfg)
	for _, warn := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warn)
	}
	if !res.OK() {
		return config.Config{}, "", fmt.Errorf("config invalid:\n- %s", joinLines(res.Errors))
	}
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = dir
	}
	return cfg, userCfgPath, nil
}

func joinLines(lines []string) string {
	out := ""
	for i, s := range lines {
		if i > 0 {
			out += "\n- "
		}
		out += s
	}
	return out
}
