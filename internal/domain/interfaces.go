package domain

import "context"

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Model() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ChatModel generates a completion for a system/user message pair.
type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Index is the external vector index keyed by record ID.
// Upsert overwrites on an existing key.
type Index interface {
	Upsert(ctx context.Context, records []EmbeddingRecord) error
	Query(ctx context.Context, vector []float64, topK int) ([]Match, error)
	VectorCount(ctx context.Context) (int, error)
}

// Chunker splits text into bounded-size pieces for embedding.
type Chunker interface {
	Chunk(text string) []string
}
