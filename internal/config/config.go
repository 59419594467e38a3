package config

import (
	"fmt"
	"log"
	"os"
	"time"
)

type Config struct {
	Env              string
	ListenAddr       string
	DatabaseURL      string
	GoogleAPIKey     string
	FoursquareAPIKey string
	RescoreEnabled   bool
	RescoreInterval  time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func Load() (Config, error) {
	cfg := Config{
		Env:              getenv("APP_ENV", "development"),
		ListenAddr:       getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		GoogleAPIKey:     os.Getenv("GOOGLE_API_KEY"),
		FoursquareAPIKey: os.Getenv("FOURSQUARE_API_KEY"),
		RescoreEnabled:   getenvBool("RESCORE_ENABLED", false),
		RescoreInterval:  getenvDuration("RESCORE_INTERVAL", time.Hour),
	}
	// Legacy key name still honoured for older deployments.
	if cfg.GoogleAPIKey == "" {
		cfg.GoogleAPIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		// Not fatal for early local runs; warn via error value so callers can decide.
		return cfg, fmt.Errorf("DATABASE_URL not set")
	}
	return cfg, nil
}

// WarnMissingCredentials logs one startup warning per absent provider key.
// Missing credentials degrade the affected signals to null, they never fail a
// request, so this is the only place they are surfaced.
func (c Config) WarnMissingCredentials(logger *log.Logger) {
	if c.GoogleAPIKey == "" {
		logger.Printf("warning: GOOGLE_API_KEY is not set; place search and PageSpeed audits are disabled")
	}
	if c.FoursquareAPIKey == "" {
		logger.Printf("warning: FOURSQUARE_API_KEY is not set; directory enrichment is disabled")
	}
}
