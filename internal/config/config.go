package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Polling struct {
		IntervalSeconds int `yaml:"interval_seconds"`
		MaxEmails       int `yaml:"max_emails"`
		LookbackDays    int `yaml:"lookback_days"`
	} `yaml:"polling"`

	Email struct {
		Enabled          bool     `yaml:"enabled"`
		IMAPHost         string   `yaml:"imap_host"`
		IMAPPort         int      `yaml:"imap_port"`
		Username         string   `yaml:"username"`
		Mailbox          string   `yaml:"mailbox"`
		SearchSubjectAny []string `yaml:"search_subject_any"`
	} `yaml:"email"`

	Gemini struct {
		Model             string  `yaml:"model"`
		BaseURL           string  `yaml:"base_url"`
		MaxRetries        int     `yaml:"max_retries"`
		RetryBaseSeconds  int     `yaml:"retry_base_seconds"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Concurrency       int     `yaml:"concurrency"`
		Prompt            string  `yaml:"prompt"`
	} `yaml:"gemini"`

	Dedup struct {
		Threshold         float64 `yaml:"threshold"`
		DescriptionWeight float64 `yaml:"description_weight"`
		SkillsWeight      float64 `yaml:"skills_weight"`
		PriceWeight       float64 `yaml:"price_weight"`
		WindowDays        int     `yaml:"window_days"`
		MaxBatch          int     `yaml:"max_batch"`
	} `yaml:"dedup"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
