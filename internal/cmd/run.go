// Package cmd wires the proxy's pieces together for the server binary: it
// starts the API server, attaches the configuration file watcher, and waits
// for a shutdown signal.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/openclaw/modelsproxy/internal/api"
	"github.com/openclaw/modelsproxy/internal/config"
	"github.com/openclaw/modelsproxy/internal/util"
	"github.com/openclaw/modelsproxy/internal/watcher"
)

const shutdownTimeout = 30 * time.Second

// StartService runs the proxy until it receives SIGINT or SIGTERM. The
// configuration file at configPath is watched for changes and reloaded into
// the running server.
func StartService(cfg *config.Config, configPath string) {
	printBanner(cfg)

	apiServer := api.NewServer(cfg)

	watcherCtx, watcherCancel := context.WithCancel(context.Background())
	defer watcherCancel()

	fileWatcher, err := watcher.NewWatcher(configPath, apiServer.UpdateConfig)
	if err != nil {
		log.Warnf("config hot-reload disabled: %v", err)
	} else if err = fileWatcher.Start(watcherCtx); err != nil {
		log.Warnf("config hot-reload disabled: %v", err)
	} else {
		defer func() {
			_ = fileWatcher.Stop()
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- apiServer.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err = <-serverErr:
		if err != nil {
			log.Fatalf("API server failed to start: %v", err)
		}
	case sig := <-sigChan:
		log.Infof("received %s, shutting down...", sig)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err = apiServer.Stop(ctx); err != nil {
			log.Errorf("error stopping API server: %v", err)
		}
	}
}

// printBanner logs the startup summary: endpoint addresses, token
// fingerprint, and routing defaults.
func printBanner(cfg *config.Config) {
	baseURL := fmt.Sprintf("http://localhost:%d", cfg.Port)

	log.Info("============================================================")
	log.Infof("  GitHub Models Proxy v%s", api.Version)
	log.Info("============================================================")
	log.Infof("  OpenAI endpoint : %s/v1", baseURL)
	log.Infof("  Health check    : %s/health", baseURL)
	log.Infof("  Metrics         : %s/metrics", baseURL)
	log.Infof("  Upstream        : %s", cfg.ModelsURL)
	log.Infof("  Default model   : %s", cfg.DefaultModel)
	log.Infof("  Token budget    : %d", cfg.TokenBudget)
	log.Infof("  GitHub token    : %s", util.HideAPIKey(cfg.GitHubToken))
	log.Info("============================================================")
}
