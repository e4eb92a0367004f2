package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(openAIKeyEnv, "sk-test")
	t.Setenv(smtpUsernameEnv, "sender@example.com")
	t.Setenv(smtpAppPasswordEnv, "app-password")
	t.Setenv(recipientsEnv, "a@example.com,b@example.com")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(configPathEnv, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Timezone != "Asia/Seoul" {
		t.Fatalf("Timezone = %q, want Asia/Seoul", cfg.Timezone)
	}
	if cfg.Keyword.Core == "" {
		t.Fatal("default core keyword must be set")
	}
	if len(cfg.Keyword.Related) == 0 {
		t.Fatal("default related keywords must be set")
	}
	if cfg.Pipeline.MaxItems != 10 || cfg.Pipeline.DedupeDays != 7 {
		t.Fatalf("unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.PreScoreThreshold != 24 || cfg.Pipeline.FinalScoreThreshold != 36 {
		t.Fatalf("unexpected threshold defaults: %+v", cfg.Pipeline)
	}
	if cfg.SMTP.Sender != "sender@example.com" {
		t.Fatalf("sender should default to the SMTP username, got %q", cfg.SMTP.Sender)
	}
	if !filepath.IsAbs(cfg.Database.Path) {
		t.Fatalf("database path should be absolute, got %q", cfg.Database.Path)
	}
	if cfg.Location().String() != "Asia/Seoul" {
		t.Fatalf("Location = %q, want Asia/Seoul", cfg.Location())
	}
}

func TestLoadMissingAPIKeyFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(openAIKeyEnv, "")
	t.Setenv(configPathEnv, "")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail without an OpenAI API key")
	}
}

func TestLoadMissingRecipientsFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(recipientsEnv, "")
	t.Setenv(configPathEnv, "")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail without recipients")
	}
}

func TestLoadDeduplicatesRecipients(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(recipientsEnv, "a@example.com, a@example.com ,b@example.com")
	t.Setenv(configPathEnv, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.SMTP.Recipients) != 2 {
		t.Fatalf("Recipients = %v, want 2 unique entries", cfg.SMTP.Recipients)
	}
	if cfg.SMTP.Recipients[0] != "a@example.com" || cfg.SMTP.Recipients[1] != "b@example.com" {
		t.Fatalf("Recipients should keep first-occurrence order, got %v", cfg.SMTP.Recipients)
	}
}

func TestLoadYAMLFileAndEnvOverride(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
timezone: UTC
keyword:
  core: "마곡 공급"
pipeline:
  maxItems: 3
openai:
  model: gpt-4o-mini
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(openAIModelEnv, "gpt-4.1-mini")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Timezone != "UTC" {
		t.Fatalf("Timezone = %q, want UTC from file", cfg.Timezone)
	}
	if cfg.Keyword.Core != "마곡 공급" {
		t.Fatalf("Core = %q, want value from file", cfg.Keyword.Core)
	}
	if cfg.Pipeline.MaxItems != 3 {
		t.Fatalf("MaxItems = %d, want 3 from file", cfg.Pipeline.MaxItems)
	}
	if cfg.OpenAI.Model != "gpt-4.1-mini" {
		t.Fatalf("Model = %q, env override must win over the file", cfg.OpenAI.Model)
	}
}

func TestLoadRejectsNonPositiveBudgets(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("pipeline:\n  maxItems: 0\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject maxItems < 1")
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("timezone: Mars/Olympus\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject an unknown timezone")
	}
}
