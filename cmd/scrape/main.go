package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"wikirag/internal/config"
	"wikirag/internal/confluence"
	"wikirag/internal/corpus"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, out string
	var limit int
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file (optional)")
	flag.StringVar(&out, "out", "", "Output CSV path (defaults to the configured csv_path)")
	flag.IntVar(&limit, "limit", 2000, "Maximum number of pages to fetch")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if out == "" {
		out = cfg.CSVPath
	}

	client := confluence.NewClient(confluence.Config{
		BaseURL: cfg.Confluence.BaseURL,
		Email:   cfg.Confluence.Email,
		Token:   cfg.Confluence.APIToken,
		Timeout: time.Duration(cfg.Confluence.TimeoutSecs) * time.Second,
	})
	walker := confluence.NewWalker(client)
	extractor := confluence.NewExtractor(client, *cfg.Confluence.LabelsFailOpen)
	builder := corpus.NewBuilder(cfg.Confluence.BaseURL, cfg.Confluence.SpaceKey)

	ctx := context.Background()
	log.Printf("fetching up to %d pages from space %s", limit, cfg.Confluence.SpaceKey)
	pages, err := walker.ListSpacePages(ctx, cfg.Confluence.SpaceKey, 0, limit)
	if err != nil {
		log.Fatalf("failed to fetch pages: %v", err)
	}
	log.Printf("fetched %d pages, extracting content", len(pages))

	records := extractor.Enrich(ctx, pages)
	rows, err := builder.Build(records)
	if err != nil {
		log.Fatalf("failed to build corpus: %v", err)
	}
	if err := corpus.WriteCSV(out, rows); err != nil {
		log.Fatalf("failed to write %s: %v", out, err)
	}
	log.Printf("done: %d of %d pages written to %s", len(rows), len(pages), out)
}
