package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.OCR.MaxPages)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, "live", cfg.LLM.Mode)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.Equal(t, 8000, cfg.LLM.MaxInputChars)
	assert.Equal(t, "2024-02-15-preview", cfg.LLM.AzureAPIVersion)
	assert.Equal(t, 1, cfg.Pipeline.StrongThreshold)
	assert.Equal(t, 10, cfg.Pipeline.TotalThreshold)
	assert.False(t, cfg.Pipeline.GateOnClassification)
}

func TestLoadConfigYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
ocr:
  max_pages: 3
llm:
  mode: stub
  provider: openai
  timeout: 10s
pipeline:
  gate_on_classification: true
storage:
  upload_dir: /srv/uploads
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("MAX_PAGES", "5")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.OCR.MaxPages, "env overrides file")
	assert.Equal(t, "stub", cfg.LLM.Mode)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.Pipeline.GateOnClassification)
	assert.Equal(t, "/srv/uploads", cfg.Storage.UploadDir)
	assert.Equal(t, 300, cfg.OCR.DPI, "untouched defaults survive")
}

func TestLoadConfigBadFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, CodeConfig, CodeOf(err))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Mode = "stub"
	require.NoError(t, cfg.Validate())

	cfg.LLM.Mode = "skip"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	cfg = DefaultConfig()
	err = cfg.Validate()
	require.Error(t, err, "live azure without endpoint")

	cfg.LLM.AzureEndpoint = "https://example.openai.azure.com"
	cfg.LLM.AzureDeployment = "gpt4o"
	cfg.LLM.APIKey = "key"
	require.NoError(t, cfg.Validate())

	cfg.Storage.Backend = "s3"
	require.Error(t, cfg.Validate())
	cfg.Storage.Endpoint = "localhost:9000"
	cfg.Storage.Bucket = "referrals"
	require.NoError(t, cfg.Validate())

	cfg.Database.Driver = "mysql"
	require.Error(t, cfg.Validate())
}
