package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays cfg with values from the process environment,
// after loading a .env file if one exists in the working directory.
//
// Recognized variables:
//
//	MEDDOCS_SERVER     base URL of the backend API
//	MEDDOCS_TIMEOUT    request timeout in seconds
//	MEDDOCS_DB         path to the client sqlite database
//	MEDDOCS_DOWNLOADS  downloads directory
func parseEnv(cfg *Config) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	if v := os.Getenv("MEDDOCS_SERVER"); v != "" {
		cfg.ServerEndpointAddr = v
	}
	if v := os.Getenv("MEDDOCS_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.RequestTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("MEDDOCS_DB"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("MEDDOCS_DOWNLOADS"); v != "" {
		cfg.DownloadsDir = v
	}
}
