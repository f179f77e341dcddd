package retriever

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/trammate/internal/common"
	"github.com/ternarybob/trammate/internal/index"
	"github.com/ternarybob/trammate/internal/interfaces"
	"github.com/ternarybob/trammate/internal/models"
	"github.com/ternarybob/trammate/internal/services/alias"
)

type fakeStorage struct {
	manifest *models.IndexManifest
	vectors  []models.IndexedVector
}

func (f *fakeStorage) SaveIndex(manifest *models.IndexManifest, vectors []models.IndexedVector) error {
	f.manifest = manifest
	f.vectors = vectors
	return nil
}

func (f *fakeStorage) LoadIndex(name string) (*models.IndexManifest, []models.IndexedVector, error) {
	if f.manifest == nil || f.manifest.Name != name {
		return nil, nil, fmt.Errorf("index %q not found: %w", name, models.ErrIndexNotFound)
	}
	return f.manifest, f.vectors, nil
}

func (f *fakeStorage) HasIndex(name string) bool {
	return f.manifest != nil && f.manifest.Name == name
}

func (f *fakeStorage) Manifest(name string) (*models.IndexManifest, error) {
	if !f.HasIndex(name) {
		return nil, models.ErrIndexNotFound
	}
	return f.manifest, nil
}

type embedFunc func(text string) ([]float32, error)

// embedOnlyLLM implements just the embedding side; generation methods
// fail loudly if a retrieval test ever reaches them.
type embedOnlyLLM struct {
	embed embedFunc
}

func (m *embedOnlyLLM) Embed(_ context.Context, text string) ([]float32, error) {
	return m.embed(text)
}

func (m *embedOnlyLLM) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.embed(t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *embedOnlyLLM) Generate(context.Context, *interfaces.GenerationRequest) (string, error) {
	return "", errors.New("not implemented")
}

func (m *embedOnlyLLM) GenerateStream(context.Context, *interfaces.GenerationRequest, interfaces.TokenSink) error {
	return errors.New("not implemented")
}

func (m *embedOnlyLLM) EmbeddingModel() string          { return "test-embed" }
func (m *embedOnlyLLM) Dimension() int                  { return 3 }
func (m *embedOnlyLLM) HealthCheck(context.Context) error { return nil }
func (m *embedOnlyLLM) Close() error                    { return nil }

func testDefaults() common.RetrievalConfig {
	return common.RetrievalConfig{TopK: 3, FetchK: 10, Oversample: 5, MMRLambda: 0.5}
}

func passThroughNormalizer(t *testing.T) *alias.Normalizer {
	t.Helper()
	return alias.NewNormalizer(filepath.Join(t.TempDir(), "absent.json"), common.GetLogger())
}

func buildRetriever(t *testing.T, vecs map[string][]float32, embed embedFunc) interfaces.RetrieverService {
	t.Helper()
	storage := &fakeStorage{}
	indexed := make([]models.IndexedVector, 0, len(vecs))
	for _, text := range []string{"a", "b", "c", "d"} {
		v, ok := vecs[text]
		if !ok {
			continue
		}
		indexed = append(indexed, models.IndexedVector{
			ID:     uint64(len(indexed)),
			Vector: index.Normalize(v),
			Chunk: models.Chunk{Text: text, Metadata: map[string]any{
				models.MetaSource: text + ".md",
				models.MetaType:   "md",
			}},
		})
	}
	require.NoError(t, storage.SaveIndex(&models.IndexManifest{
		Name: "kb", Model: "test-embed", Dimension: 3,
	}, indexed))

	cache := index.NewCache(storage, common.GetLogger())
	return NewRetriever(cache, "kb", passThroughNormalizer(t), &embedOnlyLLM{embed: embed}, testDefaults(), common.GetLogger())
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	r := buildRetriever(t, map[string][]float32{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
		"c": {0.9, 0.1, 0},
	}, func(string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	})

	chunks, err := r.Retrieve(context.Background(), "closest to a", interfaces.RetrievalParams{})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "a", chunks[0].Text)
}

func TestRetrieveEmptyQuery(t *testing.T) {
	r := buildRetriever(t, map[string][]float32{"a": {1, 0, 0}}, func(string) ([]float32, error) {
		t.Fatal("embed should not run for an empty query")
		return nil, nil
	})
	chunks, err := r.Retrieve(context.Background(), "   ", interfaces.RetrievalParams{})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	r := buildRetriever(t, map[string][]float32{"a": {1, 0, 0}}, func(string) ([]float32, error) {
		return nil, errors.New("quota exhausted")
	})
	_, err := r.Retrieve(context.Background(), "anything", interfaces.RetrievalParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEmbeddingFailure)
	assert.Contains(t, err.Error(), "quota exhausted")
}

func TestRetrieveMissingIndex(t *testing.T) {
	storage := &fakeStorage{}
	cache := index.NewCache(storage, common.GetLogger())
	r := NewRetriever(cache, "kb", passThroughNormalizer(t),
		&embedOnlyLLM{embed: func(string) ([]float32, error) { return []float32{1, 0, 0}, nil }},
		testDefaults(), common.GetLogger())

	_, err := r.Retrieve(context.Background(), "anything", interfaces.RetrievalParams{})
	assert.ErrorIs(t, err, models.ErrIndexNotFound)
}

func TestRetrieveAppliesFiltersAndTruncates(t *testing.T) {
	r := buildRetriever(t, map[string][]float32{
		"a": {1, 0, 0},
		"b": {0.8, 0.2, 0},
		"c": {0.7, 0.3, 0},
		"d": {0, 1, 0},
	}, func(string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	})

	chunks, err := r.Retrieve(context.Background(), "filtered", interfaces.RetrievalParams{
		TopK: 3,
		Filters: []models.FieldFilter{
			{Key: models.MetaSource, Op: models.FilterNeq, Value: "b.md"},
		},
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(chunks), 3)
	for _, c := range chunks {
		assert.NotEqual(t, "b", c.Text)
	}
}

func TestResolveParamsLambda(t *testing.T) {
	r := &retrieverService{defaults: testDefaults()}

	// unset falls back to the configured default
	_, _, _, lambda := r.resolveParams(interfaces.RetrievalParams{})
	assert.Equal(t, float32(0.5), lambda)

	// zero is a valid setting, not "unset"
	zero := float32(0)
	_, _, _, lambda = r.resolveParams(interfaces.RetrievalParams{Lambda: &zero})
	assert.Zero(t, lambda)

	over := float32(1.5)
	_, _, _, lambda = r.resolveParams(interfaces.RetrievalParams{Lambda: &over})
	assert.Equal(t, float32(1), lambda)
}

func TestRetrieveNormalizesQueryBeforeEmbedding(t *testing.T) {
	dir := t.TempDir()
	aliasPath := filepath.Join(dir, "aliases.json")
	require.NoError(t, os.WriteFile(aliasPath, []byte(`{"free tram zone": ["ftz"]}`), 0644))
	normalizer := alias.NewNormalizer(aliasPath, common.GetLogger())
	require.Equal(t, 1, normalizer.Rules())

	storage := &fakeStorage{}
	require.NoError(t, storage.SaveIndex(&models.IndexManifest{
		Name: "kb", Model: "test-embed", Dimension: 3,
	}, []models.IndexedVector{
		{ID: 0, Vector: index.Normalize([]float32{1, 0, 0}), Chunk: models.Chunk{Text: "zone"}},
	}))
	cache := index.NewCache(storage, common.GetLogger())

	var embedded string
	r := NewRetriever(cache, "kb", normalizer,
		&embedOnlyLLM{embed: func(text string) ([]float32, error) {
			embedded = text
			return []float32{1, 0, 0}, nil
		}},
		testDefaults(), common.GetLogger())

	_, err := r.Retrieve(context.Background(), "Where does the FTZ end?", interfaces.RetrievalParams{})
	require.NoError(t, err)
	assert.Equal(t, "where does the free tram zone end?", embedded)
}

func TestRetrieveClampsTopK(t *testing.T) {
	r := buildRetriever(t, map[string][]float32{
		"a": {1, 0, 0}, "b": {0, 1, 0}, "c": {0, 0, 1}, "d": {1, 1, 0},
	}, func(string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	})

	// top_k of 1 is below the floor; expect 3 back
	chunks, err := r.Retrieve(context.Background(), "anything", interfaces.RetrievalParams{TopK: 1})
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}
