package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/mealmate/internal/domain"
)

func TestLoad(t *testing.T) {
	t.Setenv("MEALMATE_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.DBPath)
	assert.NotEmpty(t, cfg.VisionBackend)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("MEALMATE_CONFIG", "")
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_PATH", "/custom/db.sqlite")
	t.Setenv("VISION_BACKEND", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")
	t.Setenv("SPOONACULAR_API_KEY", "spoon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/db.sqlite", cfg.DBPath)
	assert.Equal(t, BackendClaude, cfg.VisionBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
	assert.Empty(t, cfg.Warnings())
}

func TestLoadFileLayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mealmate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":7000\"\nvision_backend: ollama\nollama_model: bakllava\n"), 0600))
	t.Setenv("MEALMATE_CONFIG", path)
	t.Setenv("OLLAMA_MODEL", "llava-phi3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, BackendOllama, cfg.VisionBackend)
	assert.Equal(t, "llava-phi3", cfg.OllamaModel, "environment wins over the file")
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Setenv("MEALMATE_CONFIG", "")
	t.Setenv("VISION_BACKEND", "tesseract")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("VISION_BACKEND", "openai")
	t.Setenv("MEALMATE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}

func TestWarningsReportMissingKeys(t *testing.T) {
	cfg := defaults()

	warnings := cfg.Warnings()
	require.Len(t, warnings, 2)

	var keys []string
	for _, w := range warnings {
		var cfgErr *domain.ConfigurationError
		require.True(t, errors.As(w, &cfgErr))
		keys = append(keys, cfgErr.Key)
	}
	assert.Equal(t, []string{"OPENAI_API_KEY", "SPOONACULAR_API_KEY"}, keys)

	cfg.VisionBackend = BackendOllama
	assert.Len(t, cfg.Warnings(), 1)
}
