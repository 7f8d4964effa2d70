package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJson(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "conf.json")
	content := `{
		"server_endpoint_addr": "http://api.example.com",
		"request_timeout": "45s",
		"downloads_dir": "/tmp/dl"
	}`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o660))

	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"cmd", "-c", file}

	var cfg Config
	cfg.LoadDefaults()
	parseJson(&cfg)

	assert.Equal(t, "http://api.example.com", cfg.ServerEndpointAddr)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "/tmp/dl", cfg.DownloadsDir)
	assert.Equal(t, "meddocs.db", cfg.DatabasePath, "fields absent from the file keep their defaults")
}

func TestParseJson_NoFlagIsNoop(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"cmd"}

	var cfg Config
	cfg.LoadDefaults()
	parseJson(&cfg)

	assert.Equal(t, "http://127.0.0.1:8000", cfg.ServerEndpointAddr)
}

func TestParseJson_BadFilePanics(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"cmd", "-c", "does-not-exist.json"}

	var cfg Config
	cfg.LoadDefaults()
	require.Panics(t, func() { parseJson(&cfg) })
}
