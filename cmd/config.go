package cmd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/viper"

	"docqa/src/core/docqa"
	"docqa/src/fsutil"
	"docqa/src/infrastructure/integrations/ollama"
	"docqa/src/infrastructure/integrations/openai"
	"docqa/src/infrastructure/integrations/pdf"
	"docqa/src/infrastructure/integrations/unstructured"
)

func settingDefaultConfig() {
	// Enable automatic environment variable binding
	viper.AutomaticEnv()

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")
	viper.BindEnv("server.max_upload_bytes", "SERVER_MAX_UPLOAD_BYTES")
	viper.BindEnv("upload.temp_dir", "UPLOAD_TEMP_DIR")
	viper.BindEnv("log.development", "LOG_DEVELOPMENT")

	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.shutdown_timeout", "5s")
	viper.SetDefault("server.max_upload_bytes", 32<<20)
	viper.SetDefault("upload.temp_dir", docqa.DefaultUploadDir)
	viper.SetDefault("log.development", true)

	// Pipeline
	viper.BindEnv("chunker.size", "CHUNK_SIZE")
	viper.BindEnv("chunker.overlap", "CHUNK_OVERLAP")
	viper.BindEnv("retriever.top_k", "RETRIEVER_TOP_K")
	viper.BindEnv("retriever.metric", "RETRIEVER_METRIC")
	viper.BindEnv("embedding.batch_size", "EMBEDDING_BATCH_SIZE")
	viper.BindEnv("answer.language", "ANSWER_LANGUAGE")

	viper.SetDefault("chunker.size", docqa.DefaultChunkSize)
	viper.SetDefault("chunker.overlap", docqa.DefaultChunkOverlap)
	viper.SetDefault("retriever.top_k", docqa.DefaultTopK)
	viper.SetDefault("retriever.metric", string(docqa.MetricL2))
	viper.SetDefault("embedding.batch_size", docqa.DefaultEmbeddingBatchSize)
	viper.SetDefault("answer.language", "")

	// Model providers
	viper.BindEnv("llm.provider", "LLM_PROVIDER")
	viper.BindEnv("llm.temperature", "LLM_TEMPERATURE")
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.temperature", openai.DefaultTemperature)

	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("openai.model", "OPENAI_MODEL")
	viper.BindEnv("openai.embedding_model", "OPENAI_EMBEDDING_MODEL")
	viper.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	viper.SetDefault("openai.model", openai.DefaultModel)
	viper.SetDefault("openai.embedding_model", openai.DefaultEmbeddingModel)

	viper.BindEnv("ollama.url", "OLLAMA_URL")
	viper.BindEnv("ollama.model", "OLLAMA_MODEL")
	viper.BindEnv("ollama.embedding_model", "OLLAMA_EMBEDDING_MODEL")
	viper.BindEnv("ollama.timeout", "OLLAMA_TIMEOUT")
	viper.SetDefault("ollama.url", ollama.DefaultURL)
	viper.SetDefault("ollama.model", ollama.DefaultModel)
	viper.SetDefault("ollama.embedding_model", ollama.DefaultEmbeddingModel)
	viper.SetDefault("ollama.timeout", "120s")

	// Text extraction
	viper.BindEnv("extractor.type", "EXTRACTOR_TYPE")
	viper.BindEnv("unstructured.url", "UNSTRUCTURED_API_URL")
	viper.SetDefault("extractor.type", "pdf")
	viper.SetDefault("unstructured.url", "http://unstructured_api:8000")
}

func pipelineConfig() (docqa.PipelineConfig, error) {
	metric, err := docqa.ParseMetric(viper.GetString("retriever.metric"))
	if err != nil {
		return docqa.PipelineConfig{}, err
	}

	return docqa.PipelineConfig{
		ChunkSize:          viper.GetInt("chunker.size"),
		ChunkOverlap:       viper.GetInt("chunker.overlap"),
		TopK:               viper.GetInt("retriever.top_k"),
		Metric:             metric,
		EmbeddingBatchSize: viper.GetInt("embedding.batch_size"),
		AnswerLanguage:     viper.GetString("answer.language"),
		UploadDir:          viper.GetString("upload.temp_dir"),
	}, nil
}

// modelProvider serves both completions and embeddings.
type modelProvider interface {
	docqa.Completer
	docqa.Embedder
}

// newModelProvider returns the configured provider and, when it supports
// health checks, its pinger.
func newModelProvider() (modelProvider, map[string]docqa.Pinger, error) {
	switch provider := strings.ToLower(viper.GetString("llm.provider")); provider {
	case "openai":
		client, err := openai.NewClient(openai.Config{
			APIKey:         viper.GetString("openai.api_key"),
			BaseURL:        viper.GetString("openai.base_url"),
			Model:          viper.GetString("openai.model"),
			EmbeddingModel: viper.GetString("openai.embedding_model"),
			Temperature:    viper.GetFloat64("llm.temperature"),
			BatchSize:      viper.GetInt("embedding.batch_size"),
		})
		if err != nil {
			return nil, nil, err
		}
		return client, map[string]docqa.Pinger{}, nil

	case "ollama":
		client, err := ollama.NewClient(ollama.Config{
			URL:            viper.GetString("ollama.url"),
			Model:          viper.GetString("ollama.model"),
			EmbeddingModel: viper.GetString("ollama.embedding_model"),
			Temperature:    viper.GetFloat64("llm.temperature"),
		}, &http.Client{
			Timeout: viper.GetDuration("ollama.timeout"),
		})
		if err != nil {
			return nil, nil, err
		}
		return client, map[string]docqa.Pinger{"ollama": client}, nil

	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

func newTextExtractor(files fsutil.FileStore) (docqa.TextExtractor, error) {
	switch extractor := strings.ToLower(viper.GetString("extractor.type")); extractor {
	case "pdf":
		return pdf.NewExtractor(files), nil
	case "unstructured":
		return unstructured.NewUnstructuredService(viper.GetString("unstructured.url"), files, nil), nil
	default:
		return nil, fmt.Errorf("unknown text extractor %q", extractor)
	}
}
