package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"prospect/internal/adapters/foursquare"
	"prospect/internal/adapters/googleplaces"
	httpadapter "prospect/internal/adapters/http"
	"prospect/internal/adapters/pagespeed"
	pg "prospect/internal/adapters/postgres"
	"prospect/internal/config"
	analysissvc "prospect/internal/services/analysis"
	"prospect/internal/services/audit"
	"prospect/internal/services/directory"
	searchsvc "prospect/internal/services/search"
	"prospect/internal/services/website"
	"prospect/internal/workers/rescorer"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Printf("warning: %v", err)
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	cfg.WarnMissingCredentials(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pg.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatalf("migrate error: %v", err)
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db connect error: %v", err)
	}
	defer db.Close()

	// External collaborators
	places := googleplaces.New(cfg.GoogleAPIKey)
	fsq := foursquare.New(cfg.FoursquareAPIKey)
	psi := pagespeed.New(cfg.GoogleAPIKey)

	// Core services
	resolver := directory.New(fsq, logger)
	auditor := audit.New(psi, logger)
	analyzer := website.New(logger)
	analysis := analysissvc.New(db, db, auditor, analyzer, logger)
	search := searchsvc.New(places, resolver, db, db, db, logger)

	srv := httpadapter.New(search, analysis, db, logger)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	if cfg.RescoreEnabled {
		go rescorer.Run(ctx, db, analysis, cfg.RescoreInterval, logger)
		logger.Printf("rescorer started, interval %s", cfg.RescoreInterval)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- http.ListenAndServe(cfg.ListenAddr, r) }()
	logger.Printf("listening on %s", cfg.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Printf("shutting down on %s", sig)
		cancel()
		time.Sleep(300 * time.Millisecond)
	case err := <-errCh:
		logger.Fatal(fmt.Errorf("server error: %w", err))
	}
}
