package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"docuchat/internal/config"
	"docuchat/internal/core"
	db "docuchat/internal/core/database"
	"docuchat/internal/core/keystore"
	"docuchat/internal/core/llm"
	"docuchat/internal/core/queue"
	"docuchat/internal/notify"
	"docuchat/internal/services"
	"docuchat/internal/store"
)

type App struct {
	DBClient core.DbClient
	Queue    *queue.Client
	Embedder *llm.GeminiEmbedder
	LLM      *llm.GeminiLLM
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("database initialized and ready")

	itemStore, err := store.NewItemStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the item store, %w", err)
	}

	queueClient, err := queue.NewClient(appCtx, cfg.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to redis, %w", err)
	}
	log.Info().Msg("job queue initialized and ready")

	geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the llm, %w", err)
	}

	keys, err := keystore.NewDynamoKeyStore(appCtx, cfg.AwsRegion, cfg.APIKeyTable)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the key store, %w", err)
	}

	var notifier core.Notifier = notify.Noop{}
	if cfg.SlackToken != "" {
		notifier = notify.NewSlackNotifier(cfg.SlackToken, cfg.SlackChannel)
		log.Info().Str("channel", cfg.SlackChannel).Msg("slack notifications enabled")
	}

	docs := services.NewDocumentService(dbClient, itemStore, queueClient, cfg.MaxRetries)
	pages := services.NewWebPageService(dbClient, itemStore, queueClient, cfg.MaxRetries)
	chat := services.NewChatService(dbClient, itemStore, geminiEmbedder, llmProvider, cfg.TopK)
	extraction := services.NewExtractionService(itemStore, llmProvider)

	server := NewServer(cfg, docs, pages, chat, extraction, keys, notifier)

	return &App{
		DBClient: dbClient,
		Queue:    queueClient,
		Embedder: geminiEmbedder,
		LLM:      llmProvider,
		Server:   server,
	}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
	if a.Queue != nil {
		_ = a.Queue.Close()
	}
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
}
