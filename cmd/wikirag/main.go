package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"wikirag/internal/chunker"
	"wikirag/internal/config"
	"wikirag/internal/corpus"
	"wikirag/internal/embedding"
	embopenai "wikirag/internal/embedding/openai"
	llmopenai "wikirag/internal/llm/openai"
	"wikirag/internal/server"
	"wikirag/internal/service"
	"wikirag/internal/tui"
	"wikirag/internal/vectorindex"
	"wikirag/internal/vectorindex/pinecone"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var useTUI bool
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file (optional)")
	flag.BoolVar(&useTUI, "tui", false, "Run the interactive terminal UI instead of the HTTP server")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	embedder, err := embopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel)
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}
	chat, err := llmopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel, *cfg.OpenAI.ChatTemperature)
	if err != nil {
		log.Fatalf("chat model init failed: %v", err)
	}

	pc := pinecone.NewClient(pinecone.Config{
		APIKey:  cfg.Pinecone.APIKey,
		Cloud:   cfg.Pinecone.Cloud,
		Region:  cfg.Pinecone.Region,
		Timeout: time.Duration(cfg.Pinecone.TimeoutSecs) * time.Second,
	})
	manager := vectorindex.NewManager(pc, cfg.Pinecone.IndexName, embedder.Dimension())
	builder := corpus.NewBuilder(cfg.Confluence.BaseURL, cfg.Confluence.SpaceKey)
	docEmbedder := embedding.NewDocumentEmbedder(chunker.New(cfg.OpenAI.MaxChunkTokens), embedder)

	svc := service.New(manager, embedder, docEmbedder, chat, builder, service.Options{
		CSVPath: cfg.CSVPath,
		MaxRows: cfg.MaxRows,
		TopK:    cfg.TopK,
	})

	if useTUI {
		if _, err := tea.NewProgram(tui.New(svc)).Run(); err != nil {
			log.Fatal(err)
		}
		return
	}

	srv := server.New(svc)
	log.Printf("serving ask form at / and chat webhook at /webhook on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, srv.Router()); err != nil {
		log.Fatal(err)
	}
}
