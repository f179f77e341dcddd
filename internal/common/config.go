package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/trammate/internal/models"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Storage    StorageConfig    `toml:"storage"`
	KB         KBConfig         `toml:"kb"`
	Chunk      ChunkConfig      `toml:"chunk"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	FAQ        FAQConfig        `toml:"faq"`
	LLM        LLMConfig        `toml:"llm"`
	Gemini     GeminiConfig     `toml:"gemini"`
	Claude     ClaudeConfig     `toml:"claude"`
	Processing ProcessingConfig `toml:"processing"`
	Logging    LoggingConfig    `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path string `toml:"path"` // Database directory path
}

// KBConfig points at the knowledge base inputs
type KBConfig struct {
	Manifest    string `toml:"manifest"`     // Sources manifest (YAML)
	AliasesFile string `toml:"aliases_file"` // Alias table JSON (tolerant of missing/malformed)
	FAQFile     string `toml:"faq_file"`     // Curated FAQ JSON
	IndexName   string `toml:"index_name"`   // Name of the persisted vector index
}

// ChunkConfig controls the character-window chunker
type ChunkConfig struct {
	Size    int `toml:"size" validate:"gt=0"`
	Overlap int `toml:"overlap" validate:"gte=0"`
}

// RetrievalConfig holds defaults for the retrieval pipeline; all of these
// can be overridden per request
type RetrievalConfig struct {
	TopK           int     `toml:"top_k" validate:"gte=3,lte=12"`
	FetchK         int     `toml:"fetch_k" validate:"gt=0"`
	Oversample     int     `toml:"oversample" validate:"gt=0"` // candidate pool when metadata filters apply
	MMRLambda      float32 `toml:"mmr_lambda" validate:"gte=0,lte=1"`
	RequireContext bool    `toml:"require_context"`
}

// FAQConfig controls the deterministic FAQ fast path
type FAQConfig struct {
	Threshold int `toml:"threshold" validate:"gte=0,lte=100"` // fuzzy match cutoff on the 0-100 scale
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"`
}

// GeminiConfig contains Google Gemini API configuration. Gemini is also
// the embedding provider regardless of which provider generates answers.
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`           // Chat model (default: "gemini-2.0-flash")
	EmbedModel     string  `toml:"embed_model"`     // Embedding model (default: "gemini-embedding-001")
	EmbedDimension int     `toml:"embed_dimension"` // Output dimensionality (default: 768)
	Timeout        string  `toml:"timeout"`         // Operation timeout as duration string
	RateLimit      string  `toml:"rate_limit"`      // Minimum interval between API calls
	Temperature    float32 `toml:"temperature" validate:"gte=0,lte=1"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	RateLimit   string  `toml:"rate_limit"`
	Temperature float32 `toml:"temperature" validate:"gte=0,lte=1"`
}

// ProcessingConfig controls the scheduled batch reindex
type ProcessingConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format (with seconds)
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings should be exposed in trammate.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/index",
			},
		},
		KB: KBConfig{
			Manifest:    "./kb.yaml",
			AliasesFile: "./data/curated/aliases.json",
			FAQFile:     "./data/curated/faq.json",
			IndexName:   "kb",
		},
		Chunk: ChunkConfig{
			Size:    900,
			Overlap: 150,
		},
		Retrieval: RetrievalConfig{
			TopK:           6,
			FetchK:         35,
			Oversample:     25,
			MMRLambda:      0.5,
			RequireContext: false,
		},
		FAQ: FAQConfig{
			Threshold: 90,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Gemini: GeminiConfig{
			APIKey:         "", // User must provide API key (no fallback)
			Model:          "gemini-2.0-flash",
			EmbedModel:     "gemini-embedding-001",
			EmbedDimension: 768,
			Timeout:        "2m",
			RateLimit:      "4s", // 15 RPM free tier
			Temperature:    0.2,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-3-5-haiku-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.2,
		},
		Processing: ProcessingConfig{
			Enabled:  false,           // Disabled by default - user must explicitly opt-in
			Schedule: "0 0 */6 * * *", // Every 6 hours (cron format)
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// A missing path loads defaults plus env overrides.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks struct tags plus the cross-field rules the tags cannot
// express. Chunk overlap must stay below size or the offline build would
// never advance.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
	}

	if c.Chunk.Overlap >= c.Chunk.Size {
		return fmt.Errorf("%w: chunk overlap (%d) must be less than chunk size (%d)",
			models.ErrInvalidConfig, c.Chunk.Overlap, c.Chunk.Size)
	}
	if c.Retrieval.FetchK < c.Retrieval.TopK {
		return fmt.Errorf("%w: fetch_k (%d) must be at least top_k (%d)",
			models.ErrInvalidConfig, c.Retrieval.FetchK, c.Retrieval.TopK)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("TRAMMATE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("TRAMMATE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("TRAMMATE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if manifest := os.Getenv("TRAMMATE_KB_MANIFEST"); manifest != "" {
		config.KB.Manifest = manifest
	}

	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("TRAMMATE_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	if level := os.Getenv("TRAMMATE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
