package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfigValidates(t *testing.T) {
	config := NewDefaultConfig()
	require.NoError(t, config.Validate())

	assert.Equal(t, "claude", config.LLM.DefaultProvider)
	assert.Equal(t, 3, config.Pipeline.MaxWorkers)
	assert.Equal(t, 0.75, config.Fusion.SimilarityThreshold)
	assert.Equal(t, 50, config.Clustering.BatchSize)
}

func TestLoadFromFilesOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doceo.toml")
	content := `
[llm]
default_provider = "mock"

[pipeline]
max_workers = 8

[export]
output_dir = "/tmp/out"
formats = ["markdown", "pdf"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "mock", config.LLM.DefaultProvider)
	assert.Equal(t, 8, config.Pipeline.MaxWorkers)
	assert.Equal(t, []string{"markdown", "pdf"}, config.Export.Formats)

	// Untouched sections keep defaults.
	assert.Equal(t, 0.75, config.Fusion.SimilarityThreshold)
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadFromFilesRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doceo.toml")
	content := `
[llm]
default_provider = "unknown-provider"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadFromFiles(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DOCEO_LLM_PROVIDER", "gemini")
	t.Setenv("DOCEO_MAX_WORKERS", "5")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "gemini", config.LLM.DefaultProvider)
	assert.Equal(t, 5, config.Pipeline.MaxWorkers)
}
