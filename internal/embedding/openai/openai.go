package openai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// Client embeds text with the OpenAI embeddings API.
type Client struct {
	client *openai.Client
	model  string
	dim    int
}

// NewClient creates an embeddings client for the given model.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key not set")
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	dim := 1536
	if model == "text-embedding-3-large" {
		dim = 3072
	}
	return &Client{client: openai.NewClient(apiKey), model: model, dim: dim}, nil
}

func (c *Client) Model() string { return c.model }

// Dimension returns the fixed vector size of the configured model.
func (c *Client) Dimension() int { return c.dim }

// Embed returns the embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, errors.New("cannot embed empty text")
	}
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding returned")
	}
	raw := resp.Data[0].Embedding
	vec := make([]float64, len(raw))
	for i, v := range raw {
		vec[i] = float64(v)
	}
	return vec, nil
}
