// Package config provides configuration management for the GitHub Models proxy.
// It handles loading and parsing the optional YAML configuration file, applies
// environment variable overrides for the settings the original deployment drove
// purely from the environment, and provides structured access to application
// settings such as the server port, upstream endpoint, and token budget.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultModelsURL is the GitHub Models inference endpoint used when no
// override is configured.
const DefaultModelsURL = "https://models.inference.ai.azure.com"

// DefaultTokenBudget is the estimated token ceiling applied to upstream
// requests before truncation heuristics kick in.
const DefaultTokenBudget = 6000

// Config represents the application's configuration, loaded from an optional
// YAML file with environment variable overrides.
type Config struct {
	// Port is the network port on which the API server will listen.
	Port int `yaml:"port"`

	// Debug enables or disables debug-level logging.
	Debug bool `yaml:"debug"`

	// LoggingToFile writes application logs to rotating files instead of stdout.
	LoggingToFile bool `yaml:"logging-to-file"`

	// GitHubToken is the bearer token presented to the GitHub Models endpoint.
	GitHubToken string `yaml:"github-token"`

	// ModelsURL is the base URL of the GitHub Models inference endpoint.
	ModelsURL string `yaml:"models-url"`

	// DefaultModel is the upstream model used when a request names no model at all.
	DefaultModel string `yaml:"default-model"`

	// TokenBudget is the estimated token ceiling for upstream requests.
	TokenBudget int `yaml:"token-budget"`

	// ProxyURL is the URL of an optional proxy server to use for outbound requests.
	ProxyURL string `yaml:"proxy-url"`

	// ModelMap lists additional model routes appended after the built-in table.
	ModelMap []ModelRoute `yaml:"model-map"`
}

// ModelRoute maps a caller-facing model id to the upstream GitHub Models id.
type ModelRoute struct {
	// Alias is the model id clients send in their requests.
	Alias string `yaml:"alias"`

	// Model is the id the upstream endpoint understands.
	Model string `yaml:"model"`
}

// LoadConfig reads a YAML configuration file from the given path, applies
// environment variable overrides and defaults, and returns the result.
// A missing file is not an error; the original deployment ran from
// environment variables alone.
func LoadConfig(configFile string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		if err = yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvOverrides()
	config.applyDefaults()

	return &config, nil
}

// applyEnvOverrides copies settings from the environment over file values.
// The environment wins so that deployments driven by GITHUB_TOKEN and PORT
// keep working with a config file present.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHubToken = v
	}
	if v := os.Getenv("GITHUB_MODELS_URL"); v != "" {
		c.ModelsURL = v
	}
	if v := os.Getenv("DEFAULT_MODEL"); v != "" {
		c.DefaultModel = v
	}
	if v := os.Getenv("TOKEN_BUDGET"); v != "" {
		if budget, err := strconv.Atoi(v); err == nil && budget > 0 {
			c.TokenBudget = budget
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.ModelsURL == "" {
		c.ModelsURL = DefaultModelsURL
	}
	if c.DefaultModel == "" {
		c.DefaultModel = "claude-4.5-opus"
	}
	if c.TokenBudget == 0 {
		c.TokenBudget = DefaultTokenBudget
	}
}
