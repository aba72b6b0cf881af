package confluence

import (
	"context"
	"html"
	"log"
	"regexp"
	"strings"

	"wikirag/internal/domain"
)

// Extractor turns discovered pages into content records: raw storage
// markup fetched and stripped to plain text, plus the internal-only
// classification flag.
type Extractor struct {
	client *Client
	// failOpen controls the label-fetch failure policy: when true a
	// page whose label fetch fails is treated as not internal, when
	// false it is flagged internal and filtered out downstream. The
	// failure is logged either way.
	failOpen bool
}

func NewExtractor(client *Client, labelsFailOpen bool) *Extractor {
	return &Extractor{client: client, failOpen: labelsFailOpen}
}

// FetchLabels reports whether the page carries the "internal_only"
// classification tag. Absence of the tag is false.
func (e *Extractor) FetchLabels(ctx context.Context, pageID string) (bool, error) {
	labels, err := e.client.getLabels(ctx, pageID)
	if err != nil {
		return false, err
	}
	for _, l := range labels.Results {
		if l.Name == "internal_only" {
			return true, nil
		}
	}
	return false, nil
}

// FetchMarkup returns the page's raw storage-format markup.
func (e *Extractor) FetchMarkup(ctx context.Context, pageID string) (string, error) {
	p, err := e.client.getPage(ctx, pageID, "body.storage")
	if err != nil {
		return "", err
	}
	if p.Body == nil {
		return "", nil
	}
	return p.Body.Storage.Value, nil
}

// Enrich fetches labels and content for each page record. A failed
// fetch never aborts the loop; the affected page keeps empty content
// (and is dropped by the corpus builder).
func (e *Extractor) Enrich(ctx context.Context, records []domain.PageRecord) []domain.ContentRecord {
	out := make([]domain.ContentRecord, 0, len(records))
	for i, rec := range records {
		cr := domain.ContentRecord{PageRecord: rec}

		internal, err := e.FetchLabels(ctx, rec.ID)
		if err != nil {
			log.Printf("extractor: label fetch failed for page %s: %v", rec.ID, err)
			cr.IsInternal = !e.failOpen
		} else {
			cr.IsInternal = internal
		}

		if !cr.IsInternal {
			markup, err := e.FetchMarkup(ctx, rec.ID)
			if err != nil {
				log.Printf("extractor: content fetch failed for page %s: %v", rec.ID, err)
			} else {
				cr.Content = ExtractText(markup)
			}
		}

		out = append(out, cr)
		if (i+1)%50 == 0 {
			log.Printf("extractor: processed %d/%d pages", i+1, len(records))
		}
	}
	return out
}

// Pre-compiled expressions for markup stripping.
var (
	scriptTag    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag  = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	allTags      = regexp.MustCompile(`<[^>]+>`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// ExtractText strips non-content elements from storage markup and
// normalises the visible text: tags become single-space separators and
// whitespace runs collapse to one space. An empty result is a valid
// outcome, not an error.
func ExtractText(markup string) string {
	text := scriptTag.ReplaceAllString(markup, " ")
	text = styleTag.ReplaceAllString(text, " ")
	text = noscriptTag.ReplaceAllString(text, " ")
	text = htmlComments.ReplaceAllString(text, " ")
	text = allTags.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
