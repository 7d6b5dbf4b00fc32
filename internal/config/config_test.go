package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GITHUB_TOKEN", "GITHUB_MODELS_URL", "DEFAULT_MODEL", "TOKEN_BUDGET", "PORT"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
port: 9100
debug: true
github-token: "ghp_filetoken"
default-model: "gpt-4o-mini"
token-budget: 4000
model-map:
  - alias: "my-model"
    model: "phi-3-medium-128k-instruct"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Port)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.GitHubToken != "ghp_filetoken" {
		t.Errorf("GitHubToken = %q", cfg.GitHubToken)
	}
	if cfg.DefaultModel != "gpt-4o-mini" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.TokenBudget != 4000 {
		t.Errorf("TokenBudget = %d", cfg.TokenBudget)
	}
	if len(cfg.ModelMap) != 1 || cfg.ModelMap[0].Alias != "my-model" {
		t.Errorf("ModelMap = %v", cfg.ModelMap)
	}
	if cfg.ModelsURL != DefaultModelsURL {
		t.Errorf("ModelsURL = %q, want default", cfg.ModelsURL)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing config file must not be an error, got: %v", err)
	}

	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Port)
	}
	if cfg.ModelsURL != DefaultModelsURL {
		t.Errorf("ModelsURL = %q, want %q", cfg.ModelsURL, DefaultModelsURL)
	}
	if cfg.TokenBudget != DefaultTokenBudget {
		t.Errorf("TokenBudget = %d, want %d", cfg.TokenBudget, DefaultTokenBudget)
	}
	if cfg.DefaultModel == "" {
		t.Error("DefaultModel must have a default")
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "port: [not a number\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("malformed YAML must be an error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
port: 9100
github-token: "ghp_filetoken"
`)
	t.Setenv("GITHUB_TOKEN", "ghp_envtoken")
	t.Setenv("PORT", "9200")
	t.Setenv("TOKEN_BUDGET", "8000")
	t.Setenv("DEFAULT_MODEL", "o1-mini")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.GitHubToken != "ghp_envtoken" {
		t.Errorf("GitHubToken = %q, want environment value", cfg.GitHubToken)
	}
	if cfg.Port != 9200 {
		t.Errorf("Port = %d, want 9200", cfg.Port)
	}
	if cfg.TokenBudget != 8000 {
		t.Errorf("TokenBudget = %d, want 8000", cfg.TokenBudget)
	}
	if cfg.DefaultModel != "o1-mini" {
		t.Errorf("DefaultModel = %q, want o1-mini", cfg.DefaultModel)
	}
}

func TestEnvIgnoresInvalidNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-port")
	t.Setenv("TOKEN_BUDGET", "-5")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want default 8000", cfg.Port)
	}
	if cfg.TokenBudget != DefaultTokenBudget {
		t.Errorf("TokenBudget = %d, want default", cfg.TokenBudget)
	}
}
