package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/trammate/internal/models"
)

func TestDefaultConfigIsValid(t *testing.T) {
	config := NewDefaultConfig()
	assert.NoError(t, config.Validate())

	assert.Equal(t, 900, config.Chunk.Size)
	assert.Equal(t, 150, config.Chunk.Overlap)
	assert.Equal(t, 6, config.Retrieval.TopK)
	assert.Equal(t, 90, config.FAQ.Threshold)
	assert.Equal(t, LLMProviderGemini, config.LLM.DefaultProvider)
	assert.Equal(t, 768, config.Gemini.EmbedDimension)
}

func TestValidateRejectsOverlapAtOrAboveSize(t *testing.T) {
	config := NewDefaultConfig()
	config.Chunk.Overlap = config.Chunk.Size
	assert.ErrorIs(t, config.Validate(), models.ErrInvalidConfig)
}

func TestValidateRejectsFetchKBelowTopK(t *testing.T) {
	config := NewDefaultConfig()
	config.Retrieval.FetchK = config.Retrieval.TopK - 1
	assert.ErrorIs(t, config.Validate(), models.ErrInvalidConfig)
}

func TestValidateTopKBounds(t *testing.T) {
	config := NewDefaultConfig()
	config.Retrieval.TopK = 2
	assert.ErrorIs(t, config.Validate(), models.ErrInvalidConfig)

	config = NewDefaultConfig()
	config.Retrieval.TopK = 13
	config.Retrieval.FetchK = 40
	assert.ErrorIs(t, config.Validate(), models.ErrInvalidConfig)
}

func TestValidateLambdaBounds(t *testing.T) {
	config := NewDefaultConfig()
	config.Retrieval.MMRLambda = 1.5
	assert.ErrorIs(t, config.Validate(), models.ErrInvalidConfig)
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trammate.toml")
	content := `
[server]
port = 9090

[chunk]
size = 500
overlap = 50

[kb]
index_name = "melbourne"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, 500, config.Chunk.Size)
	assert.Equal(t, 50, config.Chunk.Overlap)
	assert.Equal(t, "melbourne", config.KB.IndexName)
	// Untouched sections keep defaults
	assert.Equal(t, 6, config.Retrieval.TopK)
}

func TestLoadFromFileMissingPathUsesDefaults(t *testing.T) {
	config, err := LoadFromFile("")
	require.NoError(t, err)
	assert.Equal(t, 8080, config.Server.Port)
}

func TestLoadFromFileInvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trammate.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chunk]\nsize = 100\noverlap = 100\n"), 0644))

	_, err := LoadFromFile(path)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRAMMATE_SERVER_PORT", "7070")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("TRAMMATE_LOG_LEVEL", "debug")

	config, err := LoadFromFile("")
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "test-key", config.Gemini.APIKey)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, 6060, "0.0.0.0")
	assert.Equal(t, 6060, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)

	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 6060, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}
