package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/trammate/internal/common"
	"github.com/ternarybob/trammate/internal/interfaces"
)

// GeminiService implements the LLMService interface against the Gemini
// API. It provides both embeddings and answer generation; when Claude
// generates answers, this service still supplies the embeddings.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	limiter *rate.Limiter
	retry   *RetryConfig
	timeout time.Duration
}

// NewGeminiService creates a Gemini-backed LLM service. The API key is
// required; model names, timeout, and rate limit come from config with
// defaults applied by the config loader.
func NewGeminiService(config *common.GeminiConfig, logger arbor.ILogger) (*GeminiService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or gemini.api_key in config)")
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}
	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit interval '%s': %w", config.RateLimit, err)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  config,
		logger:  logger,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		retry:   NewDefaultRetryConfig(),
		timeout: timeout,
	}

	logger.Info().
		Str("embed_model", config.EmbedModel).
		Str("chat_model", config.Model).
		Int("embed_dimension", config.EmbedDimension).
		Str("timeout", config.Timeout).
		Msg("Gemini LLM service initialized")

	return service, nil
}

// Embed generates an embedding vector with the configured output
// dimensionality.
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one API call, preserving input order. Rate
// limit errors retry with backoff.
func (s *GeminiService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty for embedding generation")
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	outputDim := int32(s.config.EmbedDimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	var result *genai.EmbedContentResponse
	err := withRetry(ctx, s.retry, s.logger, "embed", func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		var callErr error
		result, callErr = s.client.Models.EmbedContent(timeoutCtx, s.config.EmbedModel, contents, embeddingConfig)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, fmt.Errorf("embedding API returned %d vectors for %d texts", got, len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if len(emb.Values) != s.config.EmbedDimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d",
				s.config.EmbedDimension, len(emb.Values))
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Generate produces one full answer in a single call
func (s *GeminiService) Generate(ctx context.Context, req *interfaces.GenerationRequest) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.client.Models.GenerateContent(timeoutCtx, s.resolveModel(req),
		[]*genai.Content{genai.NewContentFromText(userPrompt(req), genai.RoleUser)},
		s.generateConfig(req))
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no response generated from chat model")
	}

	s.logger.Debug().
		Str("model", s.resolveModel(req)).
		Int("response_length", len(text)).
		Str("duration", time.Since(start).String()).
		Msg("Answer generated")

	return text, nil
}

// GenerateStream streams answer tokens into sink as they arrive
func (s *GeminiService) GenerateStream(ctx context.Context, req *interfaces.GenerationRequest, sink interfaces.TokenSink) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stream := s.client.Models.GenerateContentStream(timeoutCtx, s.resolveModel(req),
		[]*genai.Content{genai.NewContentFromText(userPrompt(req), genai.RoleUser)},
		s.generateConfig(req))

	emitted := false
	for resp, err := range stream {
		if err != nil {
			return fmt.Errorf("answer stream failed: %w", err)
		}
		token := resp.Text()
		if token == "" {
			continue
		}
		if err := sink(token); err != nil {
			return fmt.Errorf("stream consumer rejected token: %w", err)
		}
		emitted = true
	}
	if !emitted {
		return fmt.Errorf("no response generated from chat model")
	}
	return nil
}

func (s *GeminiService) resolveModel(req *interfaces.GenerationRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return s.config.Model
}

func (s *GeminiService) generateConfig(req *interfaces.GenerationRequest) *genai.GenerateContentConfig {
	temperature := s.config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	return config
}

// EmbeddingModel returns the embedding model identifier
func (s *GeminiService) EmbeddingModel() string {
	return s.config.EmbedModel
}

// Dimension returns the embedding dimensionality
func (s *GeminiService) Dimension() int {
	return s.config.EmbedDimension
}

// HealthCheck runs a lightweight embedding probe against the API
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	embedding, err := s.Embed(probeCtx, "health check probe")
	if err != nil {
		return fmt.Errorf("embedding probe failed: %w", err)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("embedding probe returned empty vector")
	}

	s.logger.Debug().Int("embedding_dim", len(embedding)).Msg("Gemini health check passed")
	return nil
}

// Close clears the client reference; genai.Client needs no explicit close
func (s *GeminiService) Close() error {
	s.client = nil
	return nil
}
