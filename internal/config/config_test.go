package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ADDR", "ISBN_STORE", "IMAGE_FETCH_CONCURRENCY", "RENDER_DPI", "IMAGE_FETCH_TIMEOUT", "CORS_ORIGINS", "EXPORT_TIMEOUT", "MAX_BODY_BYTES"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StoreSQLite, cfg.ISBNStore)
	assert.Equal(t, 4, cfg.ImageFetchConcurrency)
	assert.Equal(t, 300, cfg.RenderDPI)
	assert.Equal(t, 15*time.Second, cfg.ImageFetchTimeout)
	assert.Equal(t, 5*time.Minute, cfg.ExportTimeout)
	assert.Equal(t, int64(64<<20), cfg.MaxBodyBytes)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ISBN_STORE", "Redis")
	t.Setenv("IMAGE_FETCH_RPS", "2.5")
	t.Setenv("RENDER_DPI", "600")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://studio.example.com")
	t.Setenv("RENDER_FONT_FILE", "/fonts/NotoNaskhArabic.ttf")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.ISBNStore)
	assert.Equal(t, 2.5, cfg.ImageFetchRPS)
	assert.Equal(t, 600, cfg.RenderDPI)
	assert.Equal(t, []string{"https://app.example.com", "https://studio.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "/fonts/NotoNaskhArabic.ttf", cfg.RenderFontFile)
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]string{
		"ISBN_STORE":              "mongo",
		"IMAGE_FETCH_CONCURRENCY": "zero",
		"RENDER_DPI":              "10",
		"IMAGE_FETCH_TIMEOUT":     "soon",
		"MAX_BODY_BYTES":          "0",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, ".env")

	if err := os.WriteFile(p, []byte("DB_DSN=from_file\nLOG_FORMAT=json\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv("DB_DSN", "from_env")
	t.Setenv("LOG_FORMAT", "")
	_ = os.Unsetenv("LOG_FORMAT")

	cwd, _ := os.Getwd()
	_ = os.Chdir(tmp)
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	LoadEnvFiles()

	assert.Equal(t, "from_env", os.Getenv("DB_DSN"))
	assert.Equal(t, "json", os.Getenv("LOG_FORMAT"))
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://***@db:5432/x", RedactDSN("postgres://u:p@db:5432/x"))
	assert.Equal(t, "localhost:6379", RedactDSN("localhost:6379"))
}
