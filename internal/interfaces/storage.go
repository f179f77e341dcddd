package interfaces

import "github.com/ternarybob/trammate/internal/models"

// IndexStorage persists a built vector index under a name. The on-disk
// layout is a storage-layer concern; callers only load and save by name.
type IndexStorage interface {
	// SaveIndex replaces the named index wholesale: manifest plus all
	// vectors. There is no incremental update path.
	SaveIndex(manifest *models.IndexManifest, vectors []models.IndexedVector) error

	// LoadIndex returns the manifest and vectors for the named index.
	// A missing index returns models.ErrIndexNotFound with a rebuild
	// hint.
	LoadIndex(name string) (*models.IndexManifest, []models.IndexedVector, error)

	// HasIndex reports whether a manifest exists for the named index.
	HasIndex(name string) bool

	// Manifest returns the manifest for the named index without loading
	// vectors.
	Manifest(name string) (*models.IndexManifest, error)
}
