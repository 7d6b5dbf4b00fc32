// Command server runs the GitHub Models proxy: an OpenAI-compatible HTTP
// server that maps requested model ids onto GitHub Models deployments and
// forwards chat completions to the Azure inference endpoint.
package main

import (
	"flag"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/openclaw/modelsproxy/internal/cmd"
	"github.com/openclaw/modelsproxy/internal/config"
	"github.com/openclaw/modelsproxy/internal/logging"
	"github.com/openclaw/modelsproxy/internal/util"
)

func init() {
	logging.SetupBaseLogger()
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "configuration file path")
	flag.Parse()

	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatalf("failed to get working directory: %v", err)
		}
		configPath = filepath.Join(wd, "config.yaml")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	util.SetLogLevel(cfg)
	if err = logging.ConfigureLogOutput(cfg.LoggingToFile); err != nil {
		log.Fatalf("failed to configure log output: %v", err)
	}

	if cfg.GitHubToken == "" {
		log.Fatal("no GitHub token configured; set GITHUB_TOKEN or github-token in config.yaml")
	}

	cmd.StartService(cfg, configPath)
}
