package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/trammate/internal/common"
	"github.com/ternarybob/trammate/internal/interfaces"
	"github.com/ternarybob/trammate/internal/models"
)

type stubFAQ struct {
	answer string
}

func (s *stubFAQ) Match(query string, threshold int) (string, bool) {
	return s.answer, s.answer != ""
}

type stubRetriever struct {
	chunks []models.Chunk
	err    error
	calls  int
}

func (s *stubRetriever) Retrieve(context.Context, string, interfaces.RetrievalParams) ([]models.Chunk, error) {
	s.calls++
	return s.chunks, s.err
}

type stubLLM struct {
	generateText   string
	generateErr    error
	streamTokens   []string
	streamErr      error
	generateCalls  int
	streamCalls    int
	lastGeneration *interfaces.GenerationRequest
}

func (s *stubLLM) Embed(context.Context, string) ([]float32, error) { return nil, nil }
func (s *stubLLM) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, nil
}

func (s *stubLLM) Generate(_ context.Context, req *interfaces.GenerationRequest) (string, error) {
	s.generateCalls++
	s.lastGeneration = req
	return s.generateText, s.generateErr
}

func (s *stubLLM) GenerateStream(_ context.Context, req *interfaces.GenerationRequest, sink interfaces.TokenSink) error {
	s.streamCalls++
	s.lastGeneration = req
	for _, tok := range s.streamTokens {
		if err := sink(tok); err != nil {
			return err
		}
	}
	return s.streamErr
}

func (s *stubLLM) EmbeddingModel() string            { return "test-embed" }
func (s *stubLLM) Dimension() int                    { return 3 }
func (s *stubLLM) HealthCheck(context.Context) error { return nil }
func (s *stubLLM) Close() error                      { return nil }

func testChunks() []models.Chunk {
	return []models.Chunk{
		{Text: "Route 96 runs from East Brunswick to St Kilda Beach.",
			Metadata: map[string]any{models.MetaSource: "routes.csv"}},
		{Text: "The Free Tram Zone covers the CBD grid.",
			Metadata: map[string]any{models.MetaSource: "network.md"}},
	}
}

func newOrchestrator(faq *stubFAQ, ret *stubRetriever, llm *stubLLM, requireContext bool) *Orchestrator {
	defaults := common.RetrievalConfig{TopK: 3, FetchK: 10, Oversample: 5, MMRLambda: 0.5, RequireContext: requireContext}
	return NewOrchestrator(faq, ret, llm, defaults, 90, common.GetLogger())
}

func TestAskFAQShortCircuit(t *testing.T) {
	ret := &stubRetriever{}
	llm := &stubLLM{}
	o := newOrchestrator(&stubFAQ{answer: "Yes, Route 35 is free."}, ret, llm, false)

	var streamed strings.Builder
	ans := o.Ask(context.Background(), &models.AskRequest{Question: "Is the City Circle Tram free?"},
		func(tok string) error { streamed.WriteString(tok); return nil })

	assert.Equal(t, models.StateAnswered, ans.State)
	assert.Equal(t, models.SourceFAQ, ans.Source)
	assert.Contains(t, ans.Text, "[faq]")
	assert.Equal(t, ans.Text, streamed.String())
	assert.NotEmpty(t, ans.RequestID)

	// Neither retrieval nor generation ran
	assert.Zero(t, ret.calls)
	assert.Zero(t, llm.generateCalls)
	assert.Zero(t, llm.streamCalls)
}

func TestAskStreamsGeneratedAnswer(t *testing.T) {
	llm := &stubLLM{streamTokens: []string{"Route 96 ", "runs to ", "St Kilda."}}
	o := newOrchestrator(&stubFAQ{}, &stubRetriever{chunks: testChunks()}, llm, true)

	var streamed strings.Builder
	ans := o.Ask(context.Background(), &models.AskRequest{Question: "Where does route 96 go?"},
		func(tok string) error { streamed.WriteString(tok); return nil })

	assert.Equal(t, models.StateAnswered, ans.State)
	assert.Equal(t, models.SourceGenerated, ans.Source)
	assert.Equal(t, "Route 96 runs to St Kilda.", ans.Text)
	assert.Equal(t, ans.Text, streamed.String())
	assert.Equal(t, 1, llm.streamCalls)
	assert.Zero(t, llm.generateCalls)

	require.NotNil(t, llm.lastGeneration)
	assert.Contains(t, llm.lastGeneration.Context, "[routes.csv]")
	assert.Contains(t, llm.lastGeneration.Context, "[network.md]")
	assert.NotEmpty(t, llm.lastGeneration.SystemPrompt)
}

func TestAskNoSinkUsesNonStreaming(t *testing.T) {
	llm := &stubLLM{generateText: "The zone covers the CBD. [network.md]"}
	o := newOrchestrator(&stubFAQ{}, &stubRetriever{chunks: testChunks()}, llm, true)

	ans := o.Ask(context.Background(), &models.AskRequest{Question: "What does the free zone cover?"}, nil)

	assert.Equal(t, models.StateAnswered, ans.State)
	assert.Equal(t, llm.generateText, ans.Text)
	assert.Equal(t, 1, llm.generateCalls)
	assert.Zero(t, llm.streamCalls)
}

func TestAskNoContextPolicy(t *testing.T) {
	llm := &stubLLM{}
	o := newOrchestrator(&stubFAQ{}, &stubRetriever{}, llm, true)

	ans := o.Ask(context.Background(), &models.AskRequest{Question: "What is the meaning of life?"}, nil)

	assert.Equal(t, models.StateNoContext, ans.State)
	assert.NotEmpty(t, ans.Text)
	assert.ErrorIs(t, ans.Err, models.ErrNoRelevantContext)
	assert.Zero(t, llm.generateCalls, "generation must not run without context")
	assert.Zero(t, llm.streamCalls)
}

func TestAskRequestOverridesRequireContext(t *testing.T) {
	// Config default on, request off: generation runs on the placeholder.
	llm := &stubLLM{generateText: "I don't have information on that."}
	o := newOrchestrator(&stubFAQ{}, &stubRetriever{}, llm, true)

	off := false
	ans := o.Ask(context.Background(), &models.AskRequest{Question: "Anything?", RequireContext: &off}, nil)
	assert.Equal(t, models.StateAnswered, ans.State)
	assert.Equal(t, 1, llm.generateCalls)

	// Config default off, request on: policy stops the request.
	llm = &stubLLM{}
	o = newOrchestrator(&stubFAQ{}, &stubRetriever{}, llm, false)

	on := true
	ans = o.Ask(context.Background(), &models.AskRequest{Question: "Anything?", RequireContext: &on}, nil)
	assert.Equal(t, models.StateNoContext, ans.State)
	assert.Zero(t, llm.generateCalls)
}

func TestAskEmptyRetrievalWithoutPolicyStillGenerates(t *testing.T) {
	llm := &stubLLM{generateText: "I don't have information on that."}
	o := newOrchestrator(&stubFAQ{}, &stubRetriever{}, llm, false)

	ans := o.Ask(context.Background(), &models.AskRequest{Question: "Anything?"}, nil)

	assert.Equal(t, models.StateAnswered, ans.State)
	require.NotNil(t, llm.lastGeneration)
	assert.Equal(t, NoContextPlaceholder, llm.lastGeneration.Context)
}

func TestAskStreamFailureFallsBackOnce(t *testing.T) {
	llm := &stubLLM{
		streamTokens: []string{"partial "},
		streamErr:    errors.New("connection reset"),
		generateText: "Full answer after retry. [routes.csv]",
	}
	o := newOrchestrator(&stubFAQ{}, &stubRetriever{chunks: testChunks()}, llm, true)

	var streamed strings.Builder
	ans := o.Ask(context.Background(), &models.AskRequest{Question: "Where does route 96 go?"},
		func(tok string) error { streamed.WriteString(tok); return nil })

	assert.Equal(t, models.StateAnswered, ans.State)
	assert.Equal(t, llm.generateText, ans.Text)
	assert.Equal(t, 1, llm.streamCalls)
	assert.Equal(t, 1, llm.generateCalls)
	// The fallback's full text reaches the sink after the partial tokens
	assert.True(t, strings.HasSuffix(streamed.String(), llm.generateText))
}

func TestAskStreamAndFallbackFailure(t *testing.T) {
	llm := &stubLLM{
		streamErr:   errors.New("stream died"),
		generateErr: errors.New("api unavailable"),
	}
	o := newOrchestrator(&stubFAQ{}, &stubRetriever{chunks: testChunks()}, llm, true)

	ans := o.Ask(context.Background(), &models.AskRequest{Question: "Where does route 96 go?"},
		func(string) error { return nil })

	assert.Equal(t, models.StateFailed, ans.State)
	assert.Empty(t, ans.Text)
	require.Error(t, ans.Err)
	assert.ErrorIs(t, ans.Err, models.ErrGenerationFailure)
	// Both failures survive in the error chain
	assert.Contains(t, ans.Err.Error(), "stream died")
	assert.Contains(t, ans.Err.Error(), "api unavailable")
	assert.Equal(t, 1, llm.generateCalls, "exactly one non-streaming retry")
}

func TestAskRetrievalFailure(t *testing.T) {
	o := newOrchestrator(&stubFAQ{}, &stubRetriever{err: models.ErrEmbeddingFailure}, &stubLLM{}, true)

	ans := o.Ask(context.Background(), &models.AskRequest{Question: "Anything"}, nil)

	assert.Equal(t, models.StateFailed, ans.State)
	assert.ErrorIs(t, ans.Err, models.ErrEmbeddingFailure)
}

func TestAskEmptyQuestion(t *testing.T) {
	ret := &stubRetriever{}
	o := newOrchestrator(&stubFAQ{}, ret, &stubLLM{}, true)

	ans := o.Ask(context.Background(), &models.AskRequest{Question: "   "}, nil)

	assert.Equal(t, models.StateNoContext, ans.State)
	assert.Zero(t, ret.calls)
}

func TestAskShowChunks(t *testing.T) {
	llm := &stubLLM{generateText: "answer"}
	o := newOrchestrator(&stubFAQ{}, &stubRetriever{chunks: testChunks()}, llm, true)

	withChunks := o.Ask(context.Background(), &models.AskRequest{Question: "q", ShowChunks: true}, nil)
	assert.Len(t, withChunks.Chunks, 2)

	without := o.Ask(context.Background(), &models.AskRequest{Question: "q"}, nil)
	assert.Empty(t, without.Chunks)
}

func TestAssembleContext(t *testing.T) {
	got := AssembleContext(testChunks())
	assert.Equal(t, "Route 96 runs from East Brunswick to St Kilda Beach.\n[routes.csv]\n\n"+
		"The Free Tram Zone covers the CBD grid.\n[network.md]", got)
}

func TestAssembleContextEmpty(t *testing.T) {
	assert.Equal(t, NoContextPlaceholder, AssembleContext(nil))
}

func TestAssembleContextUnknownSource(t *testing.T) {
	got := AssembleContext([]models.Chunk{{Text: "orphan text"}})
	assert.Equal(t, "orphan text\n[unknown]", got)
}
