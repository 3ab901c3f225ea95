package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/api"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/app"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize storage, credentials and checker
	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer a.Close()

	// Initialize handler
	handler := api.NewHandler(a.Checker, a.Storage, cfg.GitLabURL)

	// Setup routes
	router := api.SetupRoutes(handler, a.Logger)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	a.Logger.Info("starting API server",
		"addr", addr,
		"storage", cfg.StorageType,
		"gitlab_url", cfg.GitLabURL,
	)

	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}
