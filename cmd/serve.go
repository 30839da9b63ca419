/*
Copyright © 2024 Dean
*/
package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	handler "docqa/handler/http"
	"docqa/src/core/docqa"
	"docqa/src/fsutil"
	"docqa/src/log"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the document Q&A server",
	Long: `The serve command starts an HTTP server exposing /docs/upload and /docs/query.
Sessions live in memory and are lost when the server stops.`,
	Run: RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("port", "", "port to listen on (overrides SERVER_PORT)")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func RunServer(cmd *cobra.Command, args []string) {
	cfg, err := pipelineConfig()
	if err != nil {
		log.Error(err, "Invalid pipeline configuration")
		return
	}

	provider, pingers, err := newModelProvider()
	if err != nil {
		log.Error(err, "Failed to create model provider")
		return
	}

	// Initialize file store
	fs := fsutil.NewLocalFileStore()

	extractor, err := newTextExtractor(fs)
	if err != nil {
		log.Error(err, "Failed to create text extractor")
		return
	}

	pipeline, err := docqa.NewPipeline(cfg, docqa.PipelineDeps{
		Extractor: extractor,
		Embedder:  provider,
		Completer: provider,
		Files:     fs,
	})
	if err != nil {
		log.Error(err, "Failed to create pipeline")
		return
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		log.Error(err, "Failed to create snowflake node")
		return
	}

	if !viper.GetBool("log.development") {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handler.NewHandler(
		pipeline,
		docqa.NewSystemService(pipeline, fs, pingers),
		viper.GetInt64("server.max_upload_bytes"),
	)
	r := handler.NewRouter(h, node)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server listening",
			"addr", srv.Addr,
			"provider", viper.GetString("llm.provider"),
			"extractor", viper.GetString("extractor.type"),
			"chunk_size", cfg.ChunkSize,
			"chunk_overlap", cfg.ChunkOverlap,
			"top_k", cfg.TopK)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "Failed to start server")
			return
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Error(err, "Invalid shutdown timeout, using default 5s")
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}

	log.Info("Server exited", "sessions", pipeline.Store().Len())
}
