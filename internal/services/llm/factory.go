package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trammate/internal/common"
	"github.com/ternarybob/trammate/internal/interfaces"
)

// DetectProvider maps a model name to its provider by prefix. Anything
// that is not a Claude model routes to Gemini.
func DetectProvider(model string) common.LLMProvider {
	if strings.HasPrefix(strings.ToLower(model), "claude") {
		return common.LLMProviderClaude
	}
	return common.LLMProviderGemini
}

// userPrompt composes the grounded question sent to the chat model
func userPrompt(req *interfaces.GenerationRequest) string {
	if req.Context == "" {
		return req.Question
	}
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", req.Context, req.Question)
}

// router satisfies LLMService by dispatching generation to the provider
// the request's model belongs to. Embeddings always come from Gemini so
// index and query vectors stay in the same space.
type router struct {
	*GeminiService

	claude *ClaudeService
	logger arbor.ILogger
}

// NewService builds the LLM service stack from config. Gemini is always
// constructed since it supplies embeddings; Claude is added when an
// Anthropic key is configured. The default provider decides which model
// answers requests that don't name one.
func NewService(config *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	gemini, err := NewGeminiService(&config.Gemini, logger)
	if err != nil {
		return nil, err
	}

	if config.Claude.APIKey == "" {
		if config.LLM.DefaultProvider == common.LLMProviderClaude {
			return nil, fmt.Errorf("default provider is claude but no Anthropic API key is configured")
		}
		return gemini, nil
	}

	claude, err := NewClaudeService(&config.Claude, gemini, logger)
	if err != nil {
		return nil, err
	}

	r := &router{
		GeminiService: gemini,
		claude:        claude,
		logger:        logger,
	}
	if config.LLM.DefaultProvider == common.LLMProviderClaude {
		// Unnamed models route by the default provider's chat model
		return &defaultedRouter{router: r, model: config.Claude.Model}, nil
	}
	return r, nil
}

func (r *router) Generate(ctx context.Context, req *interfaces.GenerationRequest) (string, error) {
	if DetectProvider(req.Model) == common.LLMProviderClaude {
		return r.claude.Generate(ctx, req)
	}
	return r.GeminiService.Generate(ctx, req)
}

func (r *router) GenerateStream(ctx context.Context, req *interfaces.GenerationRequest, sink interfaces.TokenSink) error {
	if DetectProvider(req.Model) == common.LLMProviderClaude {
		return r.claude.GenerateStream(ctx, req, sink)
	}
	return r.GeminiService.GenerateStream(ctx, req, sink)
}

func (r *router) Close() error {
	return r.claude.Close()
}

// defaultedRouter fills empty request models with the default provider's
// chat model before routing.
type defaultedRouter struct {
	*router
	model string
}

func (d *defaultedRouter) Generate(ctx context.Context, req *interfaces.GenerationRequest) (string, error) {
	return d.router.Generate(ctx, d.withDefault(req))
}

func (d *defaultedRouter) GenerateStream(ctx context.Context, req *interfaces.GenerationRequest, sink interfaces.TokenSink) error {
	return d.router.GenerateStream(ctx, d.withDefault(req), sink)
}

func (d *defaultedRouter) withDefault(req *interfaces.GenerationRequest) *interfaces.GenerationRequest {
	if req.Model != "" {
		return req
	}
	filled := *req
	filled.Model = d.model
	return &filled
}
