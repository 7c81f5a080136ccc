package core

import (
	"context"

	"docuchat/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id string) (*models.Item, error)
	UpdateItemTitle(ctx context.Context, id string, title string) error
	UpdateItemMeta(ctx context.Context, id string, pageCount int, info map[string]string) error
	DeleteItem(ctx context.Context, id string) error

	// AddChatTurn appends a turn after all existing turns for the item and
	// fills in the sequence-assigned ID and CreatedAt.
	AddChatTurn(ctx context.Context, turn *models.ChatTurn) error
	// ListChatTurns returns all turns for an item in creation order.
	ListChatTurns(ctx context.Context, itemID string) ([]models.ChatTurn, error)

	Close() error
}

// JobQueue submits work to a named durable queue. Enqueue returns as soon as
// the job is submitted; execution happens in the worker process.
type JobQueue interface {
	Enqueue(ctx context.Context, queue, task, itemID string, maxRetries int) error
}

// KeyStore validates API bearer tokens against an external store.
type KeyStore interface {
	ValidateKey(ctx context.Context, key string) (bool, error)
}

// Notifier posts upload/chat events to an external messaging channel.
// Implementations are best-effort and must never fail the request path.
type Notifier interface {
	Post(message any)
}
