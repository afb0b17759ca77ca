package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/viewhost/pkg/domain"
)

func TestConfigurationChange_Merge(t *testing.T) {
	first := domain.ConfigurationChange{
		domain.KeyWidth:       800,
		domain.KeyTheme:       "dark",
		domain.KeyEnvironment: map[string]any{"a": 1, "b": 1},
	}
	second := domain.ConfigurationChange{
		domain.KeyWidth:       1024,
		domain.KeyHeight:      600,
		domain.KeyEnvironment: map[string]any{"b": 2},
	}

	merged := first.Merge(second)

	assert.Equal(t, domain.ConfigurationChange{
		domain.KeyWidth:       1024,
		domain.KeyHeight:      600,
		domain.KeyTheme:       "dark",
		domain.KeyEnvironment: map[string]any{"a": 1, "b": 2},
	}, merged)
	assert.Equal(t, 800, first[domain.KeyWidth], "merge does not mutate the receiver")
}

func TestConfigurationChange_MergeEmpty(t *testing.T) {
	var empty domain.ConfigurationChange
	assert.True(t, empty.IsEmpty())

	merged := empty.Merge(domain.ConfigurationChange{domain.KeyMode: "tv"})
	assert.False(t, merged.IsEmpty())
	assert.Equal(t, "tv", merged[domain.KeyMode])
}

func TestConfigurationChange_Viewport(t *testing.T) {
	change := domain.ConfigurationChange{
		domain.KeyWidth:        "1280",
		domain.KeyHeight:       720,
		domain.KeyFontScale:    1.5,
		domain.KeyScreenReader: true,
		domain.KeyEnvironment:  map[string]any{"x": "y"},
	}

	vp, err := change.Viewport()
	require.NoError(t, err)

	assert.True(t, vp.HasSize())
	assert.False(t, vp.HasBounds())
	assert.Equal(t, 1280.0, vp.Width)
	assert.Equal(t, 1.5, vp.FontScale)
	assert.True(t, vp.ScreenReader)
	assert.Equal(t, map[string]any{"x": "y"}, vp.Environment)

	_, err = domain.ConfigurationChange{domain.KeyHeight: map[string]any{"h": 1}}.Viewport()
	assert.Error(t, err)
}

func TestDocumentConfig_WithEnvironment(t *testing.T) {
	base := domain.DocumentConfig{Environment: map[string]any{"agent": "viewhost", "lang": "en"}}

	cfg := base.WithEnvironment(map[string]any{"lang": "pt"})

	assert.Equal(t, map[string]any{"agent": "viewhost", "lang": "pt"}, cfg.Environment)
	assert.Equal(t, "en", base.Environment["lang"])
}

func TestImportRequest_Key(t *testing.T) {
	assert.Equal(t, "alexa-layouts/1.7.0",
		domain.ImportRequest{Name: "alexa-layouts", Version: "1.7.0", Source: "x"}.Key())
}
