package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/ternarybob/trammate/internal/models"
)

// SearchResult pairs a chunk with its similarity to the query
type SearchResult struct {
	Chunk      models.Chunk
	Similarity float64
}

// VectorIndex holds unit-normalized embeddings in memory. All vectors share
// one dimension; similarity is the dot product, which equals cosine
// similarity for unit vectors.
type VectorIndex struct {
	Manifest *models.IndexManifest
	vectors  []models.IndexedVector
}

// New creates an index over pre-normalized vectors
func New(manifest *models.IndexManifest, vectors []models.IndexedVector) (*VectorIndex, error) {
	if manifest == nil {
		return nil, fmt.Errorf("index manifest is required")
	}
	for i, v := range vectors {
		if len(v.Vector) != manifest.Dimension {
			return nil, fmt.Errorf("vector %d has dimension %d, index expects %d",
				i, len(v.Vector), manifest.Dimension)
		}
	}
	return &VectorIndex{
		Manifest: manifest,
		vectors:  vectors,
	}, nil
}

// Len returns the number of indexed vectors
func (idx *VectorIndex) Len() int {
	return len(idx.vectors)
}

// Normalize scales v to unit length in place and returns it. Zero vectors
// are returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Search returns the k most similar chunks to the query vector, most
// similar first. Ties keep insertion order so results are deterministic.
func (idx *VectorIndex) Search(query []float32, k int) []SearchResult {
	if k <= 0 || len(idx.vectors) == 0 {
		return nil
	}
	if len(query) != idx.Manifest.Dimension {
		return nil
	}

	results := make([]SearchResult, 0, len(idx.vectors))
	for _, v := range idx.vectors {
		results = append(results, SearchResult{
			Chunk:      v.Chunk,
			Similarity: dot(query, v.Vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if k < len(results) {
		results = results[:k]
	}
	return results
}

// SearchMMR selects k chunks balancing query similarity against redundancy
// among the picks. It scores a fetchK-sized candidate pool with
// lambda*sim(query) - (1-lambda)*max sim(already selected), seeding the
// selection with the most similar candidate. lambda=1 reduces to plain
// similarity order; lambda=0 maximizes diversity.
func (idx *VectorIndex) SearchMMR(query []float32, k, fetchK int, lambda float64) []SearchResult {
	if k <= 0 || len(idx.vectors) == 0 {
		return nil
	}
	if fetchK < k {
		fetchK = k
	}
	if len(query) != idx.Manifest.Dimension {
		return nil
	}

	type candidate struct {
		vec []float32
		res SearchResult
	}
	pool := make([]candidate, 0, len(idx.vectors))
	for _, v := range idx.vectors {
		pool = append(pool, candidate{
			vec: v.Vector,
			res: SearchResult{Chunk: v.Chunk, Similarity: dot(query, v.Vector)},
		})
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].res.Similarity > pool[j].res.Similarity
	})
	if fetchK < len(pool) {
		pool = pool[:fetchK]
	}

	selected := make([]candidate, 0, k)
	remaining := make([]candidate, len(pool))
	copy(remaining, pool)

	// The pool is similarity-sorted, so the first candidate seeds the
	// selection.
	selected = append(selected, remaining[0])
	remaining = remaining[1:]

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i, c := range remaining {
			maxSim := math.Inf(-1)
			for _, s := range selected {
				if sim := dot(c.vec, s.vec); sim > maxSim {
					maxSim = sim
				}
			}
			score := lambda*c.res.Similarity - (1-lambda)*maxSim
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	results := make([]SearchResult, 0, len(selected))
	for _, c := range selected {
		results = append(results, c.res)
	}
	return results
}
