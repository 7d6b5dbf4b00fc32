package util

import (
	log "github.com/sirupsen/logrus"

	"github.com/openclaw/modelsproxy/internal/config"
)

// SetLogLevel configures the logrus log level based on the configuration.
// It sets the log level to DebugLevel if debug mode is enabled, otherwise to
// InfoLevel, logging the transition when the level actually changes.
func SetLogLevel(cfg *config.Config) {
	currentLevel := log.GetLevel()
	var newLevel log.Level
	if cfg.Debug {
		newLevel = log.DebugLevel
	} else {
		newLevel = log.InfoLevel
	}

	if currentLevel != newLevel {
		log.SetLevel(newLevel)
		log.Infof("log level changed from %s to %s (debug=%t)", currentLevel, newLevel, cfg.Debug)
	}
}

// HideAPIKey obscures a credential for logging, showing only the first and
// last few characters.
func HideAPIKey(apiKey string) string {
	if len(apiKey) > 12 {
		return apiKey[:8] + "..." + apiKey[len(apiKey)-4:]
	} else if len(apiKey) > 4 {
		return apiKey[:2] + "..." + apiKey[len(apiKey)-2:]
	}
	return apiKey
}

// Truncate caps a string at n bytes for log output.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
