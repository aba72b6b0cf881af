package vectorindex

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikirag/internal/domain"
)

type stubIndex struct {
	batches [][]domain.EmbeddingRecord
}

func (s *stubIndex) Upsert(_ context.Context, records []domain.EmbeddingRecord) error {
	s.batches = append(s.batches, records)
	return nil
}

func (s *stubIndex) Query(context.Context, []float64, int) ([]domain.Match, error) {
	return nil, nil
}

func (s *stubIndex) VectorCount(context.Context) (int, error) {
	total := 0
	for _, b := range s.batches {
		total += len(b)
	}
	return total, nil
}

type stubService struct {
	idx     *stubIndex
	exists  bool
	deletes int
}

func (s *stubService) EnsureIndex(_ context.Context, name string, dimension int, metric string) (domain.Index, bool, error) {
	created := !s.exists
	s.exists = true
	if s.idx == nil {
		s.idx = &stubIndex{}
	}
	return s.idx, created, nil
}

func (s *stubService) DeleteIndex(context.Context, string) error {
	s.deletes++
	s.exists = false
	s.idx = nil
	return nil
}

func makeRecords(n int) []domain.EmbeddingRecord {
	records := make([]domain.EmbeddingRecord, n)
	for i := range records {
		records[i] = domain.EmbeddingRecord{ID: fmt.Sprintf("r%d", i), Values: []float64{1}}
	}
	return records
}

func TestUpsertBatches(t *testing.T) {
	svc := &stubService{}
	m := NewManager(svc, "test1", 1536)
	idx, created, err := m.Ensure(context.Background())
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, m.Upsert(context.Background(), idx, makeRecords(450)))

	require.Len(t, svc.idx.batches, 3)
	assert.Len(t, svc.idx.batches[0], 200)
	assert.Len(t, svc.idx.batches[1], 200)
	assert.Len(t, svc.idx.batches[2], 50)

	count, err := idx.VectorCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 450, count)
}

func TestUpsertEmptyIsNoop(t *testing.T) {
	svc := &stubService{}
	m := NewManager(svc, "test1", 1536)
	idx, _, err := m.Ensure(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Upsert(context.Background(), idx, nil))
	assert.Empty(t, svc.idx.batches)
}

func TestEnsureIdempotent(t *testing.T) {
	svc := &stubService{}
	m := NewManager(svc, "test1", 1536)

	_, created, err := m.Ensure(context.Background())
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = m.Ensure(context.Background())
	require.NoError(t, err)
	assert.False(t, created, "second ensure must not report creation")
}

func TestResetRecreates(t *testing.T) {
	svc := &stubService{}
	m := NewManager(svc, "test1", 1536)

	// Reset against an index that was never created still succeeds.
	idx, err := m.Reset(context.Background())
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, 1, svc.deletes)

	require.NoError(t, m.Upsert(context.Background(), idx, makeRecords(10)))
	idx, err = m.Reset(context.Background())
	require.NoError(t, err)

	count, err := idx.VectorCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count, "reset wipes previously upserted records")
}
