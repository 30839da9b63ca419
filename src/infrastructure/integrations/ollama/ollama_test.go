package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/src/core/docqa"
	"docqa/src/infrastructure/integrations/ollama"
)

func newTestClient(t *testing.T, handler http.Handler) *ollama.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := ollama.NewClient(ollama.Config{
		URL:            srv.URL,
		Model:          "llama3.1",
		EmbeddingModel: "nomic-embed-text",
		Temperature:    0.3,
	}, srv.Client())
	require.NoError(t, err)
	return client
}

func TestClient_Complete(t *testing.T) {
	var got api.ChatRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model":   "llama3.1",
			"message": map[string]string{"role": "assistant", "content": "It blocks DC."},
			"done":    true,
		})
	})

	client := newTestClient(t, mux)
	answer, err := client.Complete(context.Background(), docqa.CompletionRequest{
		System:  "answer from context",
		History: []docqa.Turn{{Role: docqa.RoleUser, Content: "hi"}, {Role: docqa.RoleAssistant, Content: "hello"}},
		User:    "What does a capacitor do?",
	})
	require.NoError(t, err)
	assert.Equal(t, "It blocks DC.", answer)

	assert.Equal(t, "llama3.1", got.Model)
	require.NotNil(t, got.Stream)
	assert.False(t, *got.Stream)
	assert.Equal(t, 0.3, got.Options["temperature"])
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "What does a capacitor do?", got.Messages[3].Content)
}

func TestClient_CompleteError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model \"llama3.1\" not found"}`))
	})

	_, err := newTestClient(t, mux).Complete(context.Background(), docqa.CompletionRequest{User: "q"})
	assert.ErrorContains(t, err, "not found")
}

func TestClient_Embed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		embeddings := make([][]float32, len(req.Input))
		for i, in := range req.Input {
			embeddings[i] = []float32{float32(len(in)), 0.5}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "embeddings": embeddings})
	})

	client := newTestClient(t, mux)

	docs, err := client.EmbedDocuments(context.Background(), []string{"ohm", "farad"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{3, 0.5}, {5, 0.5}}, docs)

	q, err := client.EmbedQuery(context.Background(), "henry")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 0.5}, q)

	empty, err := client.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestClient_Ping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, newTestClient(t, mux).Ping(context.Background()))
}

func TestNewClient_TrimsAPISuffix(t *testing.T) {
	var path string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := ollama.NewClient(ollama.Config{URL: srv.URL + "/api"}, srv.Client())
	require.NoError(t, err)
	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, "/", path)
}
