// -----------------------------------------------------------------------
// Answer orchestration: FAQ fast path, retrieval, grounded generation
// with streaming and a single non-streaming fallback.
// -----------------------------------------------------------------------

package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trammate/internal/common"
	"github.com/ternarybob/trammate/internal/interfaces"
	"github.com/ternarybob/trammate/internal/models"
)

// noContextMessage is the user-facing text for a request stopped by the
// require-context policy.
const noContextMessage = "I couldn't find anything relevant in the knowledge base for that question. " +
	"Try rephrasing it, or ask about routes, stops, ticketing, or the Free Tram Zone."

// Orchestrator runs one question through the full answer pipeline
type Orchestrator struct {
	faq       interfaces.FAQService
	retriever interfaces.RetrieverService
	llm       interfaces.LLMService
	defaults  common.RetrievalConfig
	threshold int
	logger    arbor.ILogger
}

// NewOrchestrator wires the answer pipeline
func NewOrchestrator(faq interfaces.FAQService, retriever interfaces.RetrieverService,
	llm interfaces.LLMService, defaults common.RetrievalConfig, faqThreshold int,
	logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		faq:       faq,
		retriever: retriever,
		llm:       llm,
		defaults:  defaults,
		threshold: faqThreshold,
		logger:    logger,
	}
}

// Ask answers one question. When sink is non-nil, answer tokens stream
// into it as they arrive; the returned Answer always carries the full
// text regardless. A streaming failure triggers exactly one non-streaming
// retry before the request is declared failed.
func (o *Orchestrator) Ask(ctx context.Context, req *models.AskRequest, sink interfaces.TokenSink) *models.Answer {
	requestID := common.NewRequestID()
	log := o.logger.WithCorrelationId(requestID)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return &models.Answer{
			Text:      noContextMessage,
			State:     models.StateNoContext,
			RequestID: requestID,
		}
	}

	// FAQ fast path: a curated answer skips retrieval and generation
	// entirely.
	if text, ok := o.faq.Match(question, o.threshold); ok {
		log.Info().Str("question", question).Msg("Answered from FAQ table")
		answer := text + "\n[faq]"
		if sink != nil {
			if err := sink(answer); err != nil {
				log.Warn().Err(err).Msg("FAQ answer stream rejected")
			}
		}
		return &models.Answer{
			Text:      answer,
			State:     models.StateAnswered,
			Source:    models.SourceFAQ,
			RequestID: requestID,
		}
	}

	chunks, err := o.retriever.Retrieve(ctx, question, interfaces.RetrievalParams{
		TopK:    req.TopK,
		FetchK:  req.FetchK,
		Lambda:  req.Lambda,
		Filters: req.Filters,
	})
	if err != nil {
		log.Error().Err(err).Str("question", question).Msg("Retrieval failed")
		return &models.Answer{
			State:     models.StateFailed,
			RequestID: requestID,
			Err:       err,
		}
	}

	requireContext := o.defaults.RequireContext
	if req.RequireContext != nil {
		requireContext = *req.RequireContext
	}
	if len(chunks) == 0 && requireContext {
		log.Info().Str("question", question).Msg("No relevant context, generation skipped")
		return &models.Answer{
			Text:      noContextMessage,
			State:     models.StateNoContext,
			RequestID: requestID,
			Err:       models.ErrNoRelevantContext,
		}
	}

	genReq := &interfaces.GenerationRequest{
		SystemPrompt: systemPrompt,
		Question:     question,
		Context:      AssembleContext(chunks),
		Model:        req.Model,
		Temperature:  req.Temperature,
	}

	text, err := o.generate(ctx, log, genReq, sink)
	if err != nil {
		log.Error().Err(err).Str("question", question).Msg("Answer generation failed")
		return &models.Answer{
			State:     models.StateFailed,
			Chunks:    answerChunks(req, chunks),
			RequestID: requestID,
			Err:       fmt.Errorf("%w: %w", models.ErrGenerationFailure, err),
		}
	}

	return &models.Answer{
		Text:      text,
		State:     models.StateAnswered,
		Source:    models.SourceGenerated,
		Chunks:    answerChunks(req, chunks),
		RequestID: requestID,
	}
}

// generate produces the answer text, streaming when a sink is present.
// A failed stream gets one non-streaming retry; its full text goes to the
// sink in a single write so the consumer can replace any partial output.
func (o *Orchestrator) generate(ctx context.Context, log arbor.ILogger,
	req *interfaces.GenerationRequest, sink interfaces.TokenSink) (string, error) {
	if sink == nil {
		return o.llm.Generate(ctx, req)
	}

	var assembled strings.Builder
	streamErr := o.llm.GenerateStream(ctx, req, func(token string) error {
		assembled.WriteString(token)
		return sink(token)
	})
	if streamErr == nil {
		return assembled.String(), nil
	}

	log.Warn().Err(streamErr).Msg("Streaming failed, retrying without streaming")
	text, retryErr := o.llm.Generate(ctx, req)
	if retryErr != nil {
		return "", errors.Join(streamErr, retryErr)
	}
	if err := sink(text); err != nil {
		log.Warn().Err(err).Msg("Fallback answer stream rejected")
	}
	return text, nil
}

// answerChunks returns the retrieved chunks only when the request asked
// to see them.
func answerChunks(req *models.AskRequest, chunks []models.Chunk) []models.Chunk {
	if req.ShowChunks {
		return chunks
	}
	return nil
}
