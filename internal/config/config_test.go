package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: 9090
email:
  enabled: true
  imap_host: imap.example.com
  username: me@example.com
  search_subject_any: ["案件", " SES ", "案件"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.App.Port)

	cfg, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK(), "errors: %v", res.Errors)

	// Defaults fill in.
	assert.Equal(t, 993, cfg.Email.IMAPPort)
	assert.Equal(t, "INBOX", cfg.Email.Mailbox)
	assert.Equal(t, 300, cfg.Polling.IntervalSeconds)
	assert.Equal(t, 13, cfg.Gemini.RetryBaseSeconds)
	assert.InDelta(t, 0.75, cfg.Dedup.Threshold, 1e-9)
	assert.InDelta(t, 0.5, cfg.Dedup.DescriptionWeight, 1e-9)

	// Subject list is trimmed and deduplicated.
	assert.Equal(t, []string{"案件", "SES"}, cfg.Email.SearchSubjectAny)
}

func TestValidateRequiresIMAPHostWhenEnabled(t *testing.T) {
	var cfg Config
	cfg.Email.Enabled = true
	cfg.Email.Username = "me@example.com"

	_, res := NormalizeAndValidate(cfg)
	require.False(t, res.OK())
	assert.Contains(t, res.Errors[0], "email.imap_host")
}

func TestValidateDedupWeightWarning(t *testing.T) {
	var cfg Config
	cfg.Dedup.DescriptionWeight = 0.5
	cfg.Dedup.SkillsWeight = 0.1
	cfg.Dedup.PriceWeight = 0.1

	_, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[len(res.Warnings)-1], "dedup weights")
}

func TestSaveAtomicRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yml")

	var cfg Config
	cfg.App.Port = 8080
	cfg.Gemini.Prompt = "extract listings from: %s"

	require.NoError(t, SaveAtomic(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	// Second save keeps the previous version as .bak.
	cfg.App.Port = 8081
	require.NoError(t, SaveAtomic(path, cfg))
	_, err = os.Stat(path + ".bak")
	assert.NoError(t, err)
}

func TestEnsureUserConfigSeedsDefault(t *testing.T) {
	dir := t.TempDir()
	def := filepath.Join(dir, "default.yml")
	require.NoError(t, os.WriteFile(def, []byte("app:\n  port: 1234\n"), 0o644))

	dataDir := filepath.Join(dir, "data")
	userPath, err := EnsureUserConfig(dataDir, def)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "config.yml"), userPath)

	cfg, err := Load(userPath)
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.App.Port)

	// Existing user config is left untouched.
	require.NoError(t, os.WriteFile(userPath, []byte("app:\n  port: 5678\n"), 0o644))
	_, err = EnsureUserConfig(dataDir, def)
	require.NoError(t, err)
	cfg, err = Load(userPath)
	require.NoError(t, err)
	assert.Equal(t, 5678, cfg.App.Port)
}
