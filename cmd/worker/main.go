package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docuchat/internal/config"
	"docuchat/internal/core/chunk"
	db "docuchat/internal/core/database"
	"docuchat/internal/core/llm"
	"docuchat/internal/core/queue"
	"docuchat/internal/services"
	"docuchat/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	cfg := config.LoadConfig()

	dbClient, err := db.NewDatabaseClient(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	defer dbClient.Close()

	itemStore, err := store.NewItemStore(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("item store init failed")
	}

	queueClient, err := queue.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal().Err(err).Msg("redis init failed")
	}
	defer queueClient.Close()

	embedder, err := llm.NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		log.Fatal().Err(err).Msg("embedder init failed")
	}
	defer embedder.Close()

	splitter := chunk.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	indexer := services.NewIndexer(dbClient, itemStore, embedder, splitter)
	pages := services.NewWebPageService(dbClient, itemStore, queueClient, cfg.MaxRetries)

	worker := queue.NewWorker(queueClient, services.Queues()...)
	worker.Register(services.TaskIndexDocument, indexer.IndexDocument)
	worker.Register(services.TaskIndexWebPage, indexer.IndexWebPage)
	worker.Register(services.TaskCrawl, pages.Crawl)

	log.Info().Strs("queues", services.Queues()).Msg("worker started")
	if err := worker.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("worker stopped")
	}
}
