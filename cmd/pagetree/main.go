package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"wikirag/internal/config"
	"wikirag/internal/confluence"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, out string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file (optional)")
	flag.StringVar(&out, "out", "conf_page_tree.txt", "Output file for the page hierarchy")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	client := confluence.NewClient(confluence.Config{
		BaseURL: cfg.Confluence.BaseURL,
		Email:   cfg.Confluence.Email,
		Token:   cfg.Confluence.APIToken,
		Timeout: time.Duration(cfg.Confluence.TimeoutSecs) * time.Second,
	})
	walker := confluence.NewWalker(client)
	walker.OnVisit = func(n confluence.TreeNode) {
		log.Printf("discovered %s (ID: %s)", n.Title, n.ID)
	}

	ctx := context.Background()
	rootID, rootTitle, err := walker.ResolveRoot(ctx, cfg.Confluence.SpaceKey)
	if err != nil {
		log.Fatalf("failed to resolve root of space %s: %v", cfg.Confluence.SpaceKey, err)
	}

	nodes, total, err := walker.Walk(ctx, rootID, rootTitle)
	if err != nil {
		log.Fatalf("walk failed: %v", err)
	}

	var b strings.Builder
	for _, n := range nodes {
		fmt.Fprintf(&b, "%s- %s (ID: %s)\n", strings.Repeat(" ", n.Depth*4), n.Title, n.ID)
	}
	if err := os.WriteFile(out, []byte(b.String()), 0o644); err != nil {
		log.Fatalf("failed to write %s: %v", out, err)
	}
	log.Printf("wrote page tree to %s", out)
	log.Printf("total pages in the %s hierarchy: %d", cfg.Confluence.SpaceKey, total)
}
