package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"docqa/src/core/docqa"
	"docqa/src/log"
)

const (
	DefaultURL            = "http://localhost:11434"
	DefaultModel          = "llama3.1"
	DefaultEmbeddingModel = "nomic-embed-text"
)

var (
	_ docqa.Completer = (*Client)(nil)
	_ docqa.Embedder  = (*Client)(nil)
	_ docqa.Pinger    = (*Client)(nil)
)

type Config struct {
	URL            string
	Model          string
	EmbeddingModel string
	Temperature    float64
}

// Client represents an Ollama API client
type Client struct {
	api            *api.Client
	model          string
	embeddingModel string
	temperature    float64
}

// NewClient creates a new Ollama API client
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	base, err := url.Parse(strings.TrimSuffix(cfg.URL, "/api"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", cfg.URL, err)
	}

	return &Client{
		api:            api.NewClient(base, httpClient),
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		temperature:    cfg.Temperature,
	}, nil
}

// Complete performs a non-streamed chat completion
func (c *Client) Complete(ctx context.Context, req docqa.CompletionRequest) (string, error) {
	stream := false
	chatReq := &api.ChatRequest{
		Model:    c.model,
		Messages: Messages(req),
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": c.temperature,
		},
	}

	var out strings.Builder
	err := c.api.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		log.Error(err, "failed to make chat request to ollama", "model", c.model)
		return "", fmt.Errorf("error making request: %w", err)
	}
	if out.Len() == 0 {
		return "", errors.New("no response received from Ollama")
	}

	return out.String(), nil
}

// EmbedDocuments generates one embedding per text in a single request
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := c.api.Embed(ctx, &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	return resp.Embeddings, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Ping checks that the Ollama server is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.api.Heartbeat(ctx)
}

// Messages converts a completion request into Ollama chat messages
func Messages(req docqa.CompletionRequest) []api.Message {
	msgs := make([]api.Message, 0, len(req.History)+2)
	if req.System != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: req.System})
	}
	for _, turn := range req.History {
		msgs = append(msgs, api.Message{Role: string(turn.Role), Content: turn.Content})
	}
	return append(msgs, api.Message{Role: "user", Content: req.User})
}
