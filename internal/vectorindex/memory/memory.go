package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"wikirag/internal/domain"
)

// Service is an in-process vector index service used for tests and
// local runs without external credentials.
type Service struct {
	mu      sync.Mutex
	indexes map[string]*Index
}

func NewService() *Service {
	return &Service{indexes: make(map[string]*Index)}
}

func (s *Service) EnsureIndex(_ context.Context, name string, dimension int, _ string) (domain.Index, bool, error) {
	if dimension <= 0 {
		return nil, false, errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indexes[name]; ok {
		return idx, false, nil
	}
	idx := NewIndex(dimension)
	s.indexes[name] = idx
	return idx, true, nil
}

func (s *Service) DeleteIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes, name)
	return nil
}

// Index stores records by id and answers queries with brute-force
// cosine similarity.
type Index struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]domain.EmbeddingRecord
}

func NewIndex(dimension int) *Index {
	return &Index{dimension: dimension, records: make(map[string]domain.EmbeddingRecord)}
}

// Upsert overwrites on an existing key.
func (i *Index) Upsert(_ context.Context, records []domain.EmbeddingRecord) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, r := range records {
		if len(r.Values) != i.dimension {
			return errors.New("vector dimension mismatch")
		}
		i.records[r.ID] = r
	}
	return nil
}

func (i *Index) Query(_ context.Context, vector []float64, topK int) ([]domain.Match, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	matches := make([]domain.Match, 0, len(i.records))
	for _, r := range i.records {
		matches = append(matches, domain.Match{ID: r.ID, Score: cosine(r.Values, vector), Metadata: r.Metadata})
	}
	sort.Slice(matches, func(a, b int) bool { return matches[a].Score > matches[b].Score })
	if topK > len(matches) {
		topK = len(matches)
	}
	return matches[:topK], nil
}

func (i *Index) VectorCount(_ context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.records), nil
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for j := 0; j < n; j++ {
		dot += a[j] * b[j]
		na += a[j] * a[j]
		nb += b[j] * b[j]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
