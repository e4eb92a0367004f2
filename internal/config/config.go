package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Asia/Seoul"
	defaultKeyword  = "sh 공사 마곡 분양"

	configPathEnv      = "KEYWORD_DIGEST_CONFIG"
	openAIKeyEnv       = "OPENAI_API_KEY"
	openAIModelEnv     = "OPENAI_MODEL"
	openAIEndpointEnv  = "OPENAI_ENDPOINT"
	smtpUsernameEnv    = "SMTP_USERNAME"
	smtpAppPasswordEnv = "SMTP_APP_PASSWORD"
	recipientsEnv      = "RECIPIENT_EMAILS"
	dbPathEnv          = "DB_PATH"
)

var defaultRelatedKeywords = []string{
	"마곡",
	"SH",
	"서울주택도시공사",
	"분양",
	"공급",
	"청약",
	"공고",
	"입주자모집",
}

// Config holds every tunable the pipeline needs; loaded once at startup and
// passed explicitly, so no component reads the environment on its own.
type Config struct {
	Timezone string         `yaml:"timezone"`
	Keyword  KeywordConfig  `yaml:"keyword"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Search   SearchConfig   `yaml:"search"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`

	location *time.Location `yaml:"-"`
}

// KeywordConfig drives query expansion and relevance scoring.
type KeywordConfig struct {
	Core    string   `yaml:"core"`
	Related []string `yaml:"related"`
}

// PipelineConfig groups the funnel thresholds and budgets.
type PipelineConfig struct {
	MaxItems            int `yaml:"maxItems"`
	DedupeDays          int `yaml:"dedupeDays"`
	PreScoreThreshold   int `yaml:"preScoreThreshold"`
	FinalScoreThreshold int `yaml:"finalScoreThreshold"`
	FetchTimeoutSeconds int `yaml:"fetchTimeoutSeconds"`
}

// SearchConfig describes how each query is dispatched to the backends.
type SearchConfig struct {
	ResultsPerQuery int    `yaml:"resultsPerQuery"`
	Region          string `yaml:"region"`
}

// OpenAIConfig defines how to contact the summarization API.
type OpenAIConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// SMTPConfig wires authenticated digest delivery.
type SMTPConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	Username    string   `yaml:"username"`
	AppPassword string   `yaml:"appPassword"`
	Sender      string   `yaml:"sender"`
	Recipients  []string `yaml:"recipients"`
}

// DatabaseConfig locates the sqlite sent-history file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig selects the console log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Location resolves the configured timezone; bound during Load.
func (c Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	return time.UTC
}

// FetchTimeout returns the per-URL extraction timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Pipeline.FetchTimeoutSeconds) * time.Second
}

// Load reads YAML configuration (if present), applies environment overrides,
// and validates the result. Invalid or missing required values fail here,
// before any pipeline work begins.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("unknown timezone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	if !filepath.IsAbs(cfg.Database.Path) {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
		cfg.Database.Path = filepath.Join(wd, cfg.Database.Path)
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(openAIKeyEnv)); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(openAIModelEnv)); v != "" {
		c.OpenAI.Model = v
	}
	if v := strings.TrimSpace(os.Getenv(openAIEndpointEnv)); v != "" {
		c.OpenAI.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv(smtpUsernameEnv)); v != "" {
		c.SMTP.Username = v
	}
	if v := strings.TrimSpace(os.Getenv(smtpAppPasswordEnv)); v != "" {
		c.SMTP.AppPassword = v
	}
	if v := strings.TrimSpace(os.Getenv(recipientsEnv)); v != "" {
		c.SMTP.Recipients = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv(dbPathEnv)); v != "" {
		c.Database.Path = v
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Keyword.Core) == "" {
		return fmt.Errorf("keyword.core is required")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("%s is required", openAIKeyEnv)
	}
	if c.SMTP.Username == "" {
		return fmt.Errorf("%s is required", smtpUsernameEnv)
	}
	if c.SMTP.AppPassword == "" {
		return fmt.Errorf("%s is required", smtpAppPasswordEnv)
	}
	if len(c.SMTP.Recipients) == 0 {
		return fmt.Errorf("%s is required", recipientsEnv)
	}
	if c.SMTP.Sender == "" {
		c.SMTP.Sender = c.SMTP.Username
	}
	c.SMTP.Recipients = dedupeList(c.SMTP.Recipients)

	positives := []struct {
		name  string
		value int
	}{
		{"pipeline.maxItems", c.Pipeline.MaxItems},
		{"pipeline.dedupeDays", c.Pipeline.DedupeDays},
		{"pipeline.preScoreThreshold", c.Pipeline.PreScoreThreshold},
		{"pipeline.finalScoreThreshold", c.Pipeline.FinalScoreThreshold},
		{"pipeline.fetchTimeoutSeconds", c.Pipeline.FetchTimeoutSeconds},
		{"search.resultsPerQuery", c.Search.ResultsPerQuery},
		{"smtp.port", c.SMTP.Port},
	}
	for _, p := range positives {
		if p.value < 1 {
			return fmt.Errorf("%s must be >= 1, got %s", p.name, strconv.Itoa(p.value))
		}
	}

	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// dedupeList removes duplicates while keeping first-occurrence order.
func dedupeList(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func defaultConfig() Config {
	return Config{
		Timezone: defaultTimezone,
		Keyword: KeywordConfig{
			Core:    defaultKeyword,
			Related: append([]string{}, defaultRelatedKeywords...),
		},
		Pipeline: PipelineConfig{
			MaxItems:            10,
			DedupeDays:          7,
			PreScoreThreshold:   24,
			FinalScoreThreshold: 36,
			FetchTimeoutSeconds: 15,
		},
		Search: SearchConfig{
			ResultsPerQuery: 20,
			Region:          "kr-kr",
		},
		OpenAI: OpenAIConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4.1-mini",
		},
		SMTP: SMTPConfig{
			Host: "smtp.gmail.com",
			Port: 587,
		},
		Database: DatabaseConfig{Path: filepath.Join("data", "digest.db")},
		Logging:  LoggingConfig{Level: "info"},
	}
}
