package badger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/trammate/internal/interfaces"
	"github.com/ternarybob/trammate/internal/models"
)

// vectorRecord is the persisted form of an indexed vector. Records from
// different indexes share one store, so the key carries the index name.
type vectorRecord struct {
	Key      string `badgerhold:"key"`
	Index    string `badgerhold:"index"`
	Position uint64
	Vector   []float32
	Chunk    models.Chunk
}

type indexStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewIndexStorage creates a badger-backed index store
func NewIndexStorage(db *BadgerDB, logger arbor.ILogger) interfaces.IndexStorage {
	return &indexStorage{
		db:     db,
		logger: logger,
	}
}

func vectorKey(index string, position uint64) string {
	return fmt.Sprintf("%s/%012d", index, position)
}

// SaveIndex replaces the stored vectors and manifest for manifest.Name.
// Any previous build of the same index is removed first so a rebuild
// never leaves stale rows behind.
func (s *indexStorage) SaveIndex(manifest *models.IndexManifest, vectors []models.IndexedVector) error {
	if manifest == nil || manifest.Name == "" {
		return fmt.Errorf("index manifest requires a name")
	}

	start := time.Now()

	if err := s.db.Store().DeleteMatching(&vectorRecord{},
		badgerhold.Where("Index").Eq(manifest.Name)); err != nil {
		return fmt.Errorf("failed to clear existing index %s: %w", manifest.Name, err)
	}

	for i, v := range vectors {
		record := vectorRecord{
			Key:      vectorKey(manifest.Name, uint64(i)),
			Index:    manifest.Name,
			Position: uint64(i),
			Vector:   v.Vector,
			Chunk:    v.Chunk,
		}
		if err := s.db.Store().Upsert(record.Key, &record); err != nil {
			return fmt.Errorf("failed to store vector %d of index %s: %w", i, manifest.Name, err)
		}
	}

	manifest.Count = len(vectors)
	if manifest.BuiltAt.IsZero() {
		manifest.BuiltAt = time.Now().UTC()
	}
	if err := s.db.Store().Upsert(manifest.Name, manifest); err != nil {
		return fmt.Errorf("failed to store manifest for index %s: %w", manifest.Name, err)
	}

	s.logger.Info().
		Str("index", manifest.Name).
		Int("vectors", len(vectors)).
		Str("duration", time.Since(start).String()).
		Msg("Index saved")

	return nil
}

// LoadIndex returns the manifest and vectors for the named index in the
// order they were built.
func (s *indexStorage) LoadIndex(name string) (*models.IndexManifest, []models.IndexedVector, error) {
	manifest, err := s.Manifest(name)
	if err != nil {
		return nil, nil, err
	}

	var records []vectorRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("Index").Eq(name)); err != nil {
		return nil, nil, fmt.Errorf("failed to load vectors for index %s: %w", name, err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Position < records[j].Position
	})

	vectors := make([]models.IndexedVector, 0, len(records))
	for _, r := range records {
		vectors = append(vectors, models.IndexedVector{
			ID:     r.Position,
			Vector: r.Vector,
			Chunk:  r.Chunk,
		})
	}

	s.logger.Debug().
		Str("index", name).
		Int("vectors", len(vectors)).
		Msg("Index loaded")

	return manifest, vectors, nil
}

// HasIndex reports whether a manifest exists for the named index
func (s *indexStorage) HasIndex(name string) bool {
	var manifest models.IndexManifest
	err := s.db.Store().Get(name, &manifest)
	return err == nil
}

// Manifest returns the stored manifest for the named index
func (s *indexStorage) Manifest(name string) (*models.IndexManifest, error) {
	var manifest models.IndexManifest
	if err := s.db.Store().Get(name, &manifest); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("index %q not found, run trammate-index to build it: %w",
				name, models.ErrIndexNotFound)
		}
		return nil, fmt.Errorf("failed to load manifest for index %s: %w", name, err)
	}
	return &manifest, nil
}
