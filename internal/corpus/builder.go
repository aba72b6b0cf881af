package corpus

import (
	"fmt"
	"log"
	"strings"

	"wikirag/internal/domain"
)

// Builder assembles content records into corpus rows ready for
// embedding and indexing.
type Builder struct {
	baseURL  string
	spaceKey string
}

func NewBuilder(baseURL, spaceKey string) *Builder {
	return &Builder{baseURL: strings.TrimRight(baseURL, "/"), spaceKey: spaceKey}
}

// Build drops internal-only and empty-content records and constructs
// the per-row metadata. Every surviving row has non-empty content and
// metadata whose page_id equals the row's id. A record without an ID
// fails the whole build with ErrDataShape.
func (b *Builder) Build(records []domain.ContentRecord) ([]domain.CorpusRow, error) {
	rows := make([]domain.CorpusRow, 0, len(records))
	dropped := 0
	for _, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("record %q has no id: %w", rec.Title, domain.ErrDataShape)
		}
		if rec.IsInternal || rec.Content == "" {
			dropped++
			continue
		}
		rows = append(rows, domain.CorpusRow{
			ID:      rec.ID,
			Source:  b.resolveTinyLink(rec.TinyLink),
			Content: rec.Content,
			Title:   rec.Title,
			Metadata: domain.Metadata{
				Source: b.PageURL(rec.ID),
				Text:   rec.Content,
				PageID: rec.ID,
				Title:  rec.Title,
			},
		})
	}
	log.Printf("corpus: kept %d rows, dropped %d (internal or empty)", len(rows), dropped)
	return rows, nil
}

// PageURL builds the canonical URL of a page from the configured base
// and space.
func (b *Builder) PageURL(pageID string) string {
	return fmt.Sprintf("%s/spaces/%s/pages/%s", b.baseURL, b.spaceKey, pageID)
}

func (b *Builder) resolveTinyLink(tiny string) string {
	if strings.HasPrefix(tiny, "/") {
		return b.baseURL + tiny
	}
	return tiny
}
