package embedding

import (
	"context"
	"fmt"
	"log"

	"wikirag/internal/domain"
)

// DocumentEmbedder reduces a whole document to a single vector: the
// text is chunked to fit the model's input limit, each chunk embedded,
// and the chunk vectors averaged element-wise.
type DocumentEmbedder struct {
	chunker  domain.Chunker
	embedder domain.Embedder
}

func NewDocumentEmbedder(chunker domain.Chunker, embedder domain.Embedder) *DocumentEmbedder {
	return &DocumentEmbedder{chunker: chunker, embedder: embedder}
}

// EmbedDocument returns the mean of all successfully embedded chunk
// vectors. A failed chunk is logged and skipped; if every chunk fails
// the document yields ErrNoEmbedding and must be excluded.
func (d *DocumentEmbedder) EmbedDocument(ctx context.Context, text string) ([]float64, error) {
	chunks := d.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("empty document: %w", domain.ErrNoEmbedding)
	}
	var vectors [][]float64
	for i, chunk := range chunks {
		vec, err := d.embedder.Embed(ctx, chunk)
		if err != nil {
			log.Printf("embedding: chunk %d/%d failed: %v", i+1, len(chunks), err)
			continue
		}
		vectors = append(vectors, vec)
	}
	if len(vectors) == 0 {
		return nil, domain.ErrNoEmbedding
	}
	return mean(vectors), nil
}

// EmbedCorpus embeds every corpus row. Rows whose document yields no
// vector are dropped, never upserted; the pipeline continues.
func (d *DocumentEmbedder) EmbedCorpus(ctx context.Context, rows []domain.CorpusRow) ([]domain.EmbeddingRecord, error) {
	records := make([]domain.EmbeddingRecord, 0, len(rows))
	for i, row := range rows {
		vec, err := d.EmbedDocument(ctx, row.Metadata.Text)
		if err != nil {
			log.Printf("embedding: dropping row %s: %v", row.ID, err)
			continue
		}
		records = append(records, domain.EmbeddingRecord{
			ID:       row.ID,
			Values:   vec,
			Metadata: row.Metadata,
		})
		if (i+1)%100 == 0 {
			log.Printf("embedding: processed %d/%d rows", i+1, len(rows))
		}
	}
	return records, nil
}

// mean is the element-wise arithmetic mean. Vectors from the same
// model always share a length.
func mean(vectors [][]float64) []float64 {
	out := make([]float64, len(vectors[0]))
	for _, vec := range vectors {
		for i, v := range vec {
			out[i] += v
		}
	}
	n := float64(len(vectors))
	for i := range out {
		out[i] /= n
	}
	return out
}
