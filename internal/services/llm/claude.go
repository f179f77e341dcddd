package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trammate/internal/common"
	"github.com/ternarybob/trammate/internal/interfaces"
)

// ClaudeService generates answers through the Anthropic API. Embeddings
// stay with Gemini, so this service wraps a GeminiService and overrides
// only the generation methods.
type ClaudeService struct {
	*GeminiService

	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    anthropic.Client
	timeout   time.Duration
	maxTokens int
}

// NewClaudeService creates a Claude-backed generation service on top of
// an existing Gemini embedding service.
func NewClaudeService(config *common.ClaudeConfig, embedder *GeminiService, logger arbor.ILogger) (*ClaudeService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY or claude.api_key in config)")
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	service := &ClaudeService{
		GeminiService: embedder,
		config:        config,
		logger:        logger,
		client:        client,
		timeout:       timeout,
		maxTokens:     maxTokens,
	}

	logger.Info().
		Str("model", config.Model).
		Int("max_tokens", maxTokens).
		Str("timeout", config.Timeout).
		Msg("Claude LLM service initialized")

	return service, nil
}

// Generate produces one full answer in a single call
func (s *ClaudeService) Generate(ctx context.Context, req *interfaces.GenerationRequest) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Messages.New(timeoutCtx, s.messageParams(req))
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}
	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude API")
	}
	return response.String(), nil
}

// GenerateStream streams answer tokens into sink as they arrive
func (s *ClaudeService) GenerateStream(ctx context.Context, req *interfaces.GenerationRequest, sink interfaces.TokenSink) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stream := s.client.Messages.NewStreaming(timeoutCtx, s.messageParams(req))
	emitted := false
	for stream.Next() {
		event := stream.Current()
		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if deltaVariant.Text == "" {
					continue
				}
				if err := sink(deltaVariant.Text); err != nil {
					return fmt.Errorf("stream consumer rejected token: %w", err)
				}
				emitted = true
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("Claude answer stream failed: %w", err)
	}
	if !emitted {
		return fmt.Errorf("no response generated from Claude API")
	}
	return nil
}

func (s *ClaudeService) messageParams(req *interfaces.GenerationRequest) anthropic.MessageNewParams {
	model := req.Model
	if model == "" {
		model = s.config.Model
	}
	temperature := s.config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(s.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(req))),
		},
	}
	if temperature > 0 {
		params.Temperature = anthropic.Float(float64(temperature))
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}
	return params
}

// HealthCheck probes the embedding side; answer generation shares the
// same credential check at construction time.
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	return s.GeminiService.HealthCheck(ctx)
}

// Close releases both the Claude and embedding clients
func (s *ClaudeService) Close() error {
	s.client = anthropic.Client{}
	return s.GeminiService.Close()
}
