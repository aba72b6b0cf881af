package confluence

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikirag/internal/domain"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"plain markup", "<p>Hello <b>world</b></p>", "Hello world"},
		{"script stripped", `<p>Keep</p><script type="text/javascript">drop();</script>`, "Keep"},
		{"style stripped", "<style>p { color: red }</style><p>Keep</p>", "Keep"},
		{"comment stripped", "<!-- note -->visible", "visible"},
		{"entities unescaped", "<p>a &amp; b &lt;c&gt;</p>", "a & b <c>"},
		{"whitespace collapsed", "<p>a</p>\n\n\t<p>b</p>", "a b"},
		{"empty markup", "", ""},
		{"markup only", "<div><br/></div>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractText(tt.markup))
		})
	}
}

// pageServer serves labels and storage bodies for a fixed set of pages
// and records which pages had their content fetched.
type pageServer struct {
	labels    map[string][]string
	bodies    map[string]string
	labelFail map[string]bool
	fetched   map[string]bool
}

func (ps *pageServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/content/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/rest/api/content/")
		parts := strings.SplitN(rest, "/", 2)
		id := parts[0]
		if len(parts) == 2 && parts[1] == "label" {
			if ps.labelFail[id] {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			results := []map[string]any{}
			for _, name := range ps.labels[id] {
				results = append(results, map[string]any{"name": name})
			}
			writeJSON(t, w, map[string]any{"results": results})
			return
		}
		ps.fetched[id] = true
		writeJSON(t, w, map[string]any{
			"id":   id,
			"body": map[string]any{"storage": map[string]any{"value": ps.bodies[id]}},
		})
	})
	return mux
}

func TestEnrichSkipsContentForInternalPages(t *testing.T) {
	ps := &pageServer{
		labels:    map[string][]string{"1": {"internal_only"}, "2": {"howto"}},
		bodies:    map[string]string{"2": "<p>Public content</p>"},
		labelFail: map[string]bool{},
		fetched:   map[string]bool{},
	}
	e := NewExtractor(newTestClient(t, ps.handler(t)), true)

	out := e.Enrich(context.Background(), []domain.PageRecord{{ID: "1"}, {ID: "2"}})
	require.Len(t, out, 2)

	assert.True(t, out[0].IsInternal)
	assert.Empty(t, out[0].Content)
	assert.False(t, ps.fetched["1"], "internal page content must not be fetched")

	assert.False(t, out[1].IsInternal)
	assert.Equal(t, "Public content", out[1].Content)
}

func TestEnrichLabelFailurePolicy(t *testing.T) {
	newServer := func() *pageServer {
		return &pageServer{
			labels:    map[string][]string{},
			bodies:    map[string]string{"1": "<p>body</p>"},
			labelFail: map[string]bool{"1": true},
			fetched:   map[string]bool{},
		}
	}

	t.Run("fail open keeps the page", func(t *testing.T) {
		ps := newServer()
		e := NewExtractor(newTestClient(t, ps.handler(t)), true)
		out := e.Enrich(context.Background(), []domain.PageRecord{{ID: "1"}})
		require.Len(t, out, 1)
		assert.False(t, out[0].IsInternal)
		assert.Equal(t, "body", out[0].Content)
	})

	t.Run("fail closed flags it internal", func(t *testing.T) {
		ps := newServer()
		e := NewExtractor(newTestClient(t, ps.handler(t)), false)
		out := e.Enrich(context.Background(), []domain.PageRecord{{ID: "1"}})
		require.Len(t, out, 1)
		assert.True(t, out[0].IsInternal)
		assert.Empty(t, out[0].Content)
		assert.False(t, ps.fetched["1"])
	})
}

func TestEnrichContentFailureKeepsRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/content/1/label", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"results": []map[string]any{}})
	})
	mux.HandleFunc("/rest/api/content/1", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	e := NewExtractor(newTestClient(t, mux), true)

	out := e.Enrich(context.Background(), []domain.PageRecord{{ID: "1", Title: "Flaky"}})
	require.Len(t, out, 1)
	assert.False(t, out[0].IsInternal)
	assert.Empty(t, out[0].Content, "failed fetch leaves content empty for downstream filtering")
}
