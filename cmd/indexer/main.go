package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"wikirag/internal/chunker"
	"wikirag/internal/config"
	"wikirag/internal/corpus"
	"wikirag/internal/domain"
	"wikirag/internal/embedding"
	embopenai "wikirag/internal/embedding/openai"
	"wikirag/internal/vectorindex"
	"wikirag/internal/vectorindex/pinecone"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var overwrite bool
	var limit int
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file (optional)")
	flag.BoolVar(&overwrite, "overwrite", false, "Wipe and recreate the index before upserting")
	flag.IntVar(&limit, "limit", 0, "Process at most this many rows (0 = configured max)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	maxRows := cfg.MaxRows
	if limit > 0 {
		maxRows = limit
	}

	embedder, err := embopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel)
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}
	docEmbedder := embedding.NewDocumentEmbedder(chunker.New(cfg.OpenAI.MaxChunkTokens), embedder)

	pc := pinecone.NewClient(pinecone.Config{
		APIKey:  cfg.Pinecone.APIKey,
		Cloud:   cfg.Pinecone.Cloud,
		Region:  cfg.Pinecone.Region,
		Timeout: time.Duration(cfg.Pinecone.TimeoutSecs) * time.Second,
	})
	manager := vectorindex.NewManager(pc, cfg.Pinecone.IndexName, embedder.Dimension())

	ctx := context.Background()
	var idx domain.Index
	if overwrite {
		log.Printf("overwriting index %s", cfg.Pinecone.IndexName)
		idx, err = manager.Reset(ctx)
	} else {
		idx, _, err = manager.Ensure(ctx)
	}
	if err != nil {
		log.Fatalf("failed to access index: %v", err)
	}

	rows, err := corpus.ReadCSV(cfg.CSVPath, maxRows)
	if err != nil {
		log.Fatalf("failed to read %s: %v", cfg.CSVPath, err)
	}
	log.Printf("loaded %d rows from %s", len(rows), cfg.CSVPath)

	records, err := docEmbedder.EmbedCorpus(ctx, rows)
	if err != nil {
		log.Fatalf("failed to embed corpus: %v", err)
	}
	if err := manager.Upsert(ctx, idx, records); err != nil {
		log.Fatalf("failed to upsert: %v", err)
	}

	count, err := idx.VectorCount(ctx)
	if err != nil {
		log.Fatalf("failed to read index stats: %v", err)
	}
	log.Printf("done: index %s holds %d vectors", cfg.Pinecone.IndexName, count)
}
