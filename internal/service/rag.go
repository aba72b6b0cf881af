package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"wikirag/internal/corpus"
	"wikirag/internal/domain"
	"wikirag/internal/embedding"
	"wikirag/internal/vectorindex"
)

// Service is the query-answer engine: it keeps the index populated,
// retrieves the passages nearest a question, and asks the chat model
// for an answer grounded in them.
type Service struct {
	manager     *vectorindex.Manager
	embedder    domain.Embedder
	docEmbedder *embedding.DocumentEmbedder
	chat        domain.ChatModel
	builder     *corpus.Builder

	csvPath string
	maxRows int
	topK    int

	mu  sync.Mutex
	idx domain.Index
}

type Options struct {
	CSVPath string
	MaxRows int
	TopK    int
}

func New(manager *vectorindex.Manager, embedder domain.Embedder, docEmbedder *embedding.DocumentEmbedder, chat domain.ChatModel, builder *corpus.Builder, opts Options) *Service {
	topK := opts.TopK
	if topK <= 0 {
		topK = 3
	}
	return &Service{
		manager:     manager,
		embedder:    embedder,
		docEmbedder: docEmbedder,
		chat:        chat,
		builder:     builder,
		csvPath:     opts.CSVPath,
		maxRows:     opts.MaxRows,
		topK:        topK,
	}
}

// Answer embeds the question with the same model used for ingestion,
// retrieves the top-k nearest documents, and returns the chat model's
// answer plus attributed sources.
func (s *Service) Answer(ctx context.Context, question string) (domain.Answer, error) {
	idx, err := s.ensureReady(ctx)
	if err != nil {
		return domain.Answer{}, err
	}
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("embedding question: %w", err)
	}
	matches, err := idx.Query(ctx, vec, s.topK)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("querying index: %w", err)
	}
	text, err := s.chat.Complete(ctx, systemPrompt, buildPrompt(question, matches))
	if err != nil {
		return domain.Answer{}, fmt.Errorf("chat completion: %w", err)
	}
	return domain.Answer{Text: text, Sources: s.extractSources(matches)}, nil
}

// ensureReady makes sure the index exists and holds vectors, running a
// full ingest from the interchange file when it is empty or was just
// created. The ingest is synchronous: the first query on an empty
// index blocks until it completes, and the mutex makes concurrent
// first queries wait for it rather than each starting their own.
func (s *Service) ensureReady(ctx context.Context) (domain.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx != nil {
		return s.idx, nil
	}
	idx, created, err := s.manager.Ensure(ctx)
	if err != nil {
		return nil, fmt.Errorf("ensuring index: %w", err)
	}
	count, err := idx.VectorCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index stats: %w", err)
	}
	if count == 0 || created {
		log.Printf("service: index empty or newly created, ingesting from %s", s.csvPath)
		if err := s.Ingest(ctx, idx); err != nil {
			return nil, err
		}
	}
	s.idx = idx
	return idx, nil
}

// Ingest loads the interchange file, embeds every row, and upserts the
// resulting records, verifying the index is non-empty afterwards.
func (s *Service) Ingest(ctx context.Context, idx domain.Index) error {
	rows, err := corpus.ReadCSV(s.csvPath, s.maxRows)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}
	if len(rows) == 0 {
		return errors.New("no rows in corpus file")
	}
	records, err := s.docEmbedder.EmbedCorpus(ctx, rows)
	if err != nil {
		return err
	}
	if err := s.manager.Upsert(ctx, idx, records); err != nil {
		return fmt.Errorf("upserting records: %w", err)
	}
	count, err := idx.VectorCount(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		return errors.New("ingest finished but index is still empty")
	}
	log.Printf("service: index holds %d vectors", count)
	return nil
}

// extractSources builds the attribution list. A match whose metadata
// carries a page id gets the canonical page URL; otherwise the stored
// source URL is used. A match with neither is skipped, not fatal.
func (s *Service) extractSources(matches []domain.Match) []domain.Source {
	sources := make([]domain.Source, 0, len(matches))
	for _, m := range matches {
		url := m.Metadata.Source
		if m.Metadata.PageID != "" {
			url = s.builder.PageURL(m.Metadata.PageID)
		}
		if url == "" {
			log.Printf("service: match %s has no source, skipping attribution", m.ID)
			continue
		}
		title := m.Metadata.Title
		if title == "" {
			title = "No title"
		}
		sources = append(sources, domain.Source{Title: title, URL: url, Score: m.Score})
	}
	return sources
}

// FormatAnswer renders an answer with its source links and relevance
// scores as markdown.
func FormatAnswer(a domain.Answer) string {
	parts := []string{a.Text}
	for _, src := range a.Sources {
		parts = append(parts, fmt.Sprintf("[%s](%s)    Score: %.4f", src.Title, src.URL, src.Score))
	}
	return strings.Join(parts, "\n\n")
}
