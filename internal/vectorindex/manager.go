package vectorindex

import (
	"context"
	"log"

	"wikirag/internal/domain"
)

// upsertBatchSize bounds a single upsert call; the external service
// rejects oversized requests. Batching is not a throughput measure.
const upsertBatchSize = 200

// Service manages named indexes on an external vector service.
type Service interface {
	// EnsureIndex creates the index if absent and returns a data-plane
	// handle plus whether creation occurred. Idempotent.
	EnsureIndex(ctx context.Context, name string, dimension int, metric string) (domain.Index, bool, error)
	// DeleteIndex removes the index. A missing index is not an error.
	DeleteIndex(ctx context.Context, name string) error
}

// Manager drives the lifecycle of one named index: create-if-absent,
// wipe-and-recreate, and bulk upsert in bounded batches.
type Manager struct {
	svc       Service
	name      string
	dimension int
	metric    string
}

func NewManager(svc Service, name string, dimension int) *Manager {
	return &Manager{svc: svc, name: name, dimension: dimension, metric: "cosine"}
}

// Ensure returns a handle to the index, creating it when absent. The
// returned flag tells callers a full (re-)population pass is needed.
func (m *Manager) Ensure(ctx context.Context) (domain.Index, bool, error) {
	return m.svc.EnsureIndex(ctx, m.name, m.dimension, m.metric)
}

// Reset deletes and recreates the index. Deleting an index that does
// not exist is a success, not an error.
func (m *Manager) Reset(ctx context.Context) (domain.Index, error) {
	if err := m.svc.DeleteIndex(ctx, m.name); err != nil {
		return nil, err
	}
	log.Printf("vectorindex: index %q deleted, recreating", m.name)
	idx, _, err := m.svc.EnsureIndex(ctx, m.name, m.dimension, m.metric)
	return idx, err
}

// Upsert writes records in fixed-size batches, including a final
// partial batch. There is no rollback: a failure mid-sequence leaves
// previously sent batches committed (at-least-once, not atomic).
func (m *Manager) Upsert(ctx context.Context, idx domain.Index, records []domain.EmbeddingRecord) error {
	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := idx.Upsert(ctx, records[start:end]); err != nil {
			return err
		}
		log.Printf("vectorindex: upserted %d/%d records", end, len(records))
	}
	return nil
}
