package config

import "time"

// Config holds runtime settings for the meddocs CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP API.
//   - RequestTimeout: fixed ceiling applied to every request.
//   - DatabasePath: sqlite file holding the durable session snapshot.
//   - DownloadsDir: where downloaded documents are saved.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	DatabasePath       string
	DownloadsDir       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8000"
	c.RequestTimeout = 30 * time.Second
	c.DatabasePath = "meddocs.db"
	c.DownloadsDir = "downloads"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if a config file is given), the environment (including a
// .env file, if present), and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
