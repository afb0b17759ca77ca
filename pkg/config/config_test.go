package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/viewhost/pkg/config"
	"github.com/aretw0/viewhost/pkg/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewhost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
viewport:
  width: 1280
  height: 800
  is_round: true
theme: light
cache:
  driver: bolt
  path: /tmp/packages.db
  ttl: 1h
`), 0o644))
	t.Setenv("VIEWHOST_MODE", "TV")
	t.Setenv("VIEWHOST_HTTP_ADDR", ":9090")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1280.0, cfg.Viewport.Width)
	assert.Equal(t, 800.0, cfg.Viewport.Height)
	assert.Equal(t, 160.0, cfg.Viewport.DPI, "unset keys keep their default")
	assert.True(t, cfg.Viewport.IsRound)
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, "TV", cfg.Mode)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, config.CacheBolt, cfg.Cache.Driver)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  driver: redis\n"), 0o644))
	_, err = config.Load(path)
	assert.ErrorContains(t, err, "redis_url")
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Driver = "disk"
	assert.ErrorContains(t, cfg.Validate(), "unknown cache driver")

	cfg = config.Default()
	cfg.Viewport.Width = 0
	assert.Error(t, cfg.Validate())
}

func TestApply(t *testing.T) {
	t.Run("size pins bounds", func(t *testing.T) {
		cfg := config.Default()
		require.NoError(t, cfg.Apply(domain.ConfigurationChange{"width": 800, "height": 480, "mode": "AUTO"}))

		assert.Equal(t, config.Viewport{
			Width: 800, Height: 480, MinWidth: 800, MaxWidth: 800, MinHeight: 480, MaxHeight: 480, DPI: 160,
		}, cfg.Viewport)
		assert.Equal(t, "AUTO", cfg.Mode)
	})

	t.Run("size with bounds", func(t *testing.T) {
		cfg := config.Default()
		require.NoError(t, cfg.Apply(domain.ConfigurationChange{
			"width": 800, "height": 480, "minWidth": 400, "maxWidth": 1000, "minHeight": 300, "maxHeight": 600,
		}))
		assert.Equal(t, 400.0, cfg.Viewport.MinWidth)
		assert.Equal(t, 600.0, cfg.Viewport.MaxHeight)
	})

	t.Run("width alone is ignored", func(t *testing.T) {
		cfg := config.Default()
		require.NoError(t, cfg.Apply(domain.ConfigurationChange{"width": 10}))
		assert.Equal(t, 1024.0, cfg.Viewport.Width)
	})

	t.Run("docTheme wins over theme", func(t *testing.T) {
		cfg := config.Default()
		require.NoError(t, cfg.Apply(domain.ConfigurationChange{"theme": "light", "docTheme": "custom"}))
		assert.Equal(t, "custom", cfg.Theme)
	})

	t.Run("invalid", func(t *testing.T) {
		cfg := config.Default()
		assert.Error(t, cfg.Apply(domain.ConfigurationChange{"width": "wide"}))
	})
}

func TestMetrics(t *testing.T) {
	cfg := config.Default()
	m := cfg.Metrics()
	assert.Equal(t, "RECTANGLE", m.Shape)
	assert.False(t, m.AutoSizing)
	assert.Equal(t, "dark", m.Theme)

	cfg.Viewport.IsRound = true
	cfg.Viewport.MinWidth, cfg.Viewport.MaxWidth = 400, 1024
	cfg.Viewport.MinHeight, cfg.Viewport.MaxHeight = 600, 600
	m = cfg.Metrics()
	assert.Equal(t, "ROUND", m.Shape)
	assert.True(t, m.AutoSizing)
	assert.Equal(t, 400.0, m.MinWidth)

	cfg.Viewport.Shape = "OVAL"
	assert.Equal(t, "OVAL", cfg.Metrics().Shape)
}

func TestDocumentConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = map[string]any{"agent": "test"}

	dc := cfg.DocumentConfig()
	assert.Equal(t, 1024.0, dc.Metrics.Width)
	assert.Equal(t, map[string]any{"agent": "test"}, dc.Environment)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, config.Write(&buf, config.Default()))

	path := filepath.Join(t.TempDir(), "dump.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Contains(t, buf.String(), "width: 1024")
}
