package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"docqa/src/core/docqa"
)

const (
	DefaultModel          = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-ada-002"
	DefaultTemperature    = 0.3
	DefaultBatchSize      = 16
)

var (
	_ docqa.Completer = (*Client)(nil)
	_ docqa.Embedder  = (*Client)(nil)
)

type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	Temperature    float64
	BatchSize      int
}

// Client serves completions and embeddings from an OpenAI compatible API.
type Client struct {
	llm         llms.Model
	embedder    embeddings.Embedder
	temperature float64
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	opts := []lcopenai.Option{
		lcopenai.WithToken(cfg.APIKey),
		lcopenai.WithModel(cfg.Model),
		lcopenai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithBatchSize(cfg.BatchSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create openai embedder: %w", err)
	}

	return NewClientWithModel(llm, embedder, cfg.Temperature), nil
}

// NewClientWithModel wraps an existing langchaingo model and embedder.
func NewClientWithModel(llm llms.Model, embedder embeddings.Embedder, temperature float64) *Client {
	return &Client{
		llm:         llm,
		embedder:    embedder,
		temperature: temperature,
	}
}

func (c *Client) Complete(ctx context.Context, req docqa.CompletionRequest) (string, error) {
	resp, err := c.llm.GenerateContent(ctx, Messages(req), llms.WithTemperature(c.temperature))
	if err != nil {
		return "", fmt.Errorf("error generating completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Content, nil
}

func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return c.embedder.EmbedDocuments(ctx, texts)
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.embedder.EmbedQuery(ctx, text)
}

// Messages converts a completion request into chat messages: the system
// instruction, the history and the user turn, in that order.
func Messages(req docqa.CompletionRequest) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(req.History)+2)
	if req.System != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	for _, turn := range req.History {
		role := llms.ChatMessageTypeHuman
		if turn.Role == docqa.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(role, turn.Content))
	}
	return append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, req.User))
}
