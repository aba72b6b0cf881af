package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikirag/internal/chunker"
	"wikirag/internal/corpus"
	"wikirag/internal/domain"
	"wikirag/internal/embedding"
	"wikirag/internal/vectorindex"
	"wikirag/internal/vectorindex/memory"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Model() string  { return "fake" }
func (fakeEmbedder) Dimension() int { return 2 }

// Embed maps greeting-ish text near (1,0) and everything else near
// (0,1), so similarity ranking is deterministic.
func (fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if strings.Contains(strings.ToLower(text), "hello") {
		return []float64{1, 0.1}, nil
	}
	return []float64{0.1, 1}, nil
}

type fakeChat struct {
	mu         sync.Mutex
	lastSystem string
	lastUser   string
	reply      string
}

func (f *fakeChat) Complete(_ context.Context, system, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSystem = system
	f.lastUser = user
	return f.reply, nil
}

func newTestService(t *testing.T) (*Service, *fakeChat, *vectorindex.Manager) {
	return newTestServiceWith(t, fakeEmbedder{})
}

func newTestServiceWith(t *testing.T, fe domain.Embedder) (*Service, *fakeChat, *vectorindex.Manager) {
	t.Helper()
	builder := corpus.NewBuilder("https://example.atlassian.net/wiki", "DOCS")
	rows, err := builder.Build([]domain.ContentRecord{
		{PageRecord: domain.PageRecord{ID: "100", Title: "Greeting"}, Content: "Hello world"},
		{PageRecord: domain.PageRecord{ID: "200", Title: "Blank"}, Content: ""},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1, "empty-content page never reaches the corpus")

	csvPath := filepath.Join(t.TempDir(), "corpus.csv")
	require.NoError(t, corpus.WriteCSV(csvPath, rows))

	manager := vectorindex.NewManager(memory.NewService(), "test1", fe.Dimension())
	chat := &fakeChat{reply: "Hello to you too."}
	svc := New(manager, fe, embedding.NewDocumentEmbedder(chunker.New(0), fe), chat, builder, Options{
		CSVPath: csvPath,
		TopK:    3,
	})
	return svc, chat, manager
}

func TestAnswerIngestsOnFirstQuery(t *testing.T) {
	svc, chat, manager := newTestService(t)
	ctx := context.Background()

	answer, err := svc.Answer(ctx, "Please say hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello to you too.", answer.Text)

	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "Greeting", answer.Sources[0].Title)
	assert.Equal(t, "https://example.atlassian.net/wiki/spaces/DOCS/pages/100", answer.Sources[0].URL)
	assert.Greater(t, answer.Sources[0].Score, 0.0)

	// The chat model saw the retrieved passage and the question.
	assert.Contains(t, chat.lastSystem, "Aiden")
	assert.Contains(t, chat.lastUser, "Passage 1: Greeting")
	assert.Contains(t, chat.lastUser, "Hello world")
	assert.Contains(t, chat.lastUser, "Question: Please say hello")

	// The synchronous ingest populated the index with the single row.
	idx, created, err := manager.Ensure(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	count, err := idx.VectorCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAnswerReusesPopulatedIndex(t *testing.T) {
	svc, _, manager := newTestService(t)
	ctx := context.Background()

	_, err := svc.Answer(ctx, "hello once")
	require.NoError(t, err)
	_, err = svc.Answer(ctx, "hello twice")
	require.NoError(t, err)

	idx, _, err := manager.Ensure(ctx)
	require.NoError(t, err)
	count, err := idx.VectorCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "second query must not re-ingest")
}

// countingEmbedder tracks how often the corpus document is embedded,
// to detect duplicate ingests under concurrent first queries.
type countingEmbedder struct {
	mu   sync.Mutex
	docs int
}

func (c *countingEmbedder) Model() string  { return "counting" }
func (c *countingEmbedder) Dimension() int { return 2 }

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if strings.Contains(text, "Hello world") {
		c.mu.Lock()
		c.docs++
		c.mu.Unlock()
		return []float64{1, 0.1}, nil
	}
	return []float64{0.1, 1}, nil
}

func (c *countingEmbedder) docEmbeds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docs
}

func TestAnswerConcurrentFirstQueriesIngestOnce(t *testing.T) {
	ce := &countingEmbedder{}
	svc, _, manager := newTestServiceWith(t, ce)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Answer(ctx, "ping")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ce.docEmbeds(), "only one query may run the ingest")

	idx, _, err := manager.Ensure(ctx)
	require.NoError(t, err)
	count, err := idx.VectorCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAnswerMissingCorpusFile(t *testing.T) {
	builder := corpus.NewBuilder("https://example.atlassian.net/wiki", "DOCS")
	fe := fakeEmbedder{}
	manager := vectorindex.NewManager(memory.NewService(), "test1", fe.Dimension())
	svc := New(manager, fe, embedding.NewDocumentEmbedder(chunker.New(0), fe), &fakeChat{}, builder, Options{
		CSVPath: filepath.Join(t.TempDir(), "absent.csv"),
	})

	_, err := svc.Answer(context.Background(), "hello")
	assert.Error(t, err)
}

func TestExtractSources(t *testing.T) {
	builder := corpus.NewBuilder("https://example.atlassian.net/wiki", "DOCS")
	s := &Service{builder: builder}

	matches := []domain.Match{
		{ID: "a", Score: 0.9, Metadata: domain.Metadata{PageID: "1", Title: "With ID", Source: "ignored"}},
		{ID: "b", Score: 0.8, Metadata: domain.Metadata{Source: "https://elsewhere/x"}},
		{ID: "c", Score: 0.7},
	}
	sources := s.extractSources(matches)
	require.Len(t, sources, 2, "match without any source is skipped")

	assert.Equal(t, "https://example.atlassian.net/wiki/spaces/DOCS/pages/1", sources[0].URL)
	assert.Equal(t, "With ID", sources[0].Title)
	assert.Equal(t, "https://elsewhere/x", sources[1].URL)
	assert.Equal(t, "No title", sources[1].Title)
}

func TestFormatAnswer(t *testing.T) {
	out := FormatAnswer(domain.Answer{
		Text: "The answer.",
		Sources: []domain.Source{
			{Title: "Guide", URL: "https://w/p/1", Score: 0.1234},
		},
	})
	assert.Equal(t, "The answer.\n\n[Guide](https://w/p/1)    Score: 0.1234", out)
}

func TestBuildPromptUntitledPassageFallsBackToID(t *testing.T) {
	prompt := buildPrompt("q", []domain.Match{{ID: "vec-7", Metadata: domain.Metadata{Text: "body"}}})
	assert.Contains(t, prompt, "Passage 1: vec-7")
}
