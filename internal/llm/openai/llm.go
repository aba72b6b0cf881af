package openai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// Client generates chat completions with the OpenAI API.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewClient(apiKey, model string, temperature float32) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key not set")
	}
	if model == "" {
		model = "gpt-3.5-turbo-0125"
	}
	return &Client{client: openai.NewClient(apiKey), model: model, temperature: temperature}, nil
}

// Complete sends a system/user message pair and returns the generated
// text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion returned")
	}
	return resp.Choices[0].Message.Content, nil
}
