package config

import (
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfluenceConfig holds connection details for the wiki being ingested.
type ConfluenceConfig struct {
	BaseURL  string `yaml:"base_url"`
	SpaceKey string `yaml:"space_key"`
	Email    string `yaml:"email"`
	APIToken string `yaml:"-"`
	// LabelsFailOpen controls what happens when a label fetch fails:
	// true treats the page as not internal (and logs the failure),
	// false excludes the page from the corpus.
	LabelsFailOpen *bool `yaml:"labels_fail_open,omitempty"`
	TimeoutSecs    int   `yaml:"timeout_secs"`
}

// OpenAIConfig selects the embedding and chat models.
type OpenAIConfig struct {
	APIKey         string `yaml:"-"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
	MaxChunkTokens int    `yaml:"max_chunk_tokens"`
	// ChatTemperature is a pointer so an explicit 0 (deterministic
	// generation) is distinguishable from "not set".
	ChatTemperature *float32 `yaml:"chat_temperature,omitempty"`
}

// PineconeConfig holds connection details for the vector index service.
type PineconeConfig struct {
	APIKey      string `yaml:"-"`
	IndexName   string `yaml:"index_name"`
	Cloud       string `yaml:"cloud"`
	Region      string `yaml:"region"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Config is the root application configuration, built once at startup
// and passed into each component's constructor.
type Config struct {
	Confluence ConfluenceConfig `yaml:"confluence"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Pinecone   PineconeConfig   `yaml:"pinecone"`
	CSVPath    string           `yaml:"csv_path"`
	MaxRows    int              `yaml:"max_rows"`
	TopK       int              `yaml:"top_k"`
	Port       string           `yaml:"port"`
}

// Load reads an optional YAML config file, then fills gaps from
// environment variables and documented defaults. A missing file is not
// an error; missing credentials are caught by the component that needs
// them, not here.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, err
			}
		}
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	setDefault(&cfg.Confluence.BaseURL, "CONFLUENCE_BASE_URL", "https://example.atlassian.net/wiki")
	setDefault(&cfg.Confluence.SpaceKey, "CONFLUENCE_SPACE_KEY", "BDDS")
	setDefault(&cfg.Confluence.Email, "CONF_EMAIL", "")
	cfg.Confluence.APIToken = os.Getenv("CONF_API_KEY")
	if cfg.Confluence.LabelsFailOpen == nil {
		failOpen := true
		cfg.Confluence.LabelsFailOpen = &failOpen
	}
	if cfg.Confluence.TimeoutSecs == 0 {
		cfg.Confluence.TimeoutSecs = 30
	}
	if !strings.HasPrefix(cfg.Confluence.BaseURL, "http://") && !strings.HasPrefix(cfg.Confluence.BaseURL, "https://") {
		cfg.Confluence.BaseURL = "https://" + cfg.Confluence.BaseURL
	}

	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	setDefault(&cfg.OpenAI.EmbeddingModel, "OPENAI_EMBEDDING_MODEL", "text-embedding-3-small")
	setDefault(&cfg.OpenAI.ChatModel, "OPENAI_CHAT_MODEL", "gpt-3.5-turbo-0125")
	if cfg.OpenAI.MaxChunkTokens == 0 {
		cfg.OpenAI.MaxChunkTokens = 8000
	}
	if cfg.OpenAI.ChatTemperature == nil {
		temp := float32(0.5)
		cfg.OpenAI.ChatTemperature = &temp
	}

	cfg.Pinecone.APIKey = os.Getenv("PINECONE_API_KEY")
	setDefault(&cfg.Pinecone.IndexName, "PINECONE_INDEX_NAME", "test1")
	if cfg.Pinecone.Cloud == "" {
		cfg.Pinecone.Cloud = "aws"
	}
	if cfg.Pinecone.Region == "" {
		cfg.Pinecone.Region = "us-east-1"
	}
	if cfg.Pinecone.TimeoutSecs == 0 {
		cfg.Pinecone.TimeoutSecs = 30
	}

	setDefault(&cfg.CSVPath, "CSV_FILE_PATH", "./conf_data.csv")
	if cfg.MaxRows == 0 {
		cfg.MaxRows = 2000
	}
	if cfg.TopK == 0 {
		cfg.TopK = 3
	}
	setDefault(&cfg.Port, "PORT", "8080")
}

func setDefault(field *string, env, fallback string) {
	if *field != "" {
		return
	}
	if v := os.Getenv(env); v != "" {
		*field = v
		return
	}
	*field = fallback
}
