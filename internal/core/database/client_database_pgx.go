package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"docuchat/internal/config"
	"docuchat/internal/core"
	"docuchat/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Implementing the db interface for items

func (c *DatabaseClient) CreateItem(ctx context.Context, item *models.Item) error {
	if item == nil {
		return errors.New("nil item")
	}
	info, err := marshalInfo(item.Info)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO items (id, kind, filename, url, title, page_count, info, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
	`
	_, err = c.db.ExecContext(ctx, q,
		item.ID, item.Kind, item.FileName, item.URL, item.Title, item.PageCount, info)
	return err
}

func (c *DatabaseClient) GetItemByID(ctx context.Context, id string) (*models.Item, error) {
	const q = `
		SELECT id, kind, filename, url, title, page_count, info, created_at, updated_at
		FROM items
		WHERE id = $1
	`
	var (
		it      models.Item
		rawInfo []byte
	)
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&it.ID, &it.Kind, &it.FileName, &it.URL, &it.Title, &it.PageCount, &rawInfo, &it.CreatedAt, &it.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawInfo, &it.Info); err != nil {
		return nil, fmt.Errorf("decode item info: %w", err)
	}
	return &it, nil
}

func (c *DatabaseClient) UpdateItemTitle(ctx context.Context, id string, title string) error {
	const q = `
		UPDATE items
		SET title = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, title)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("item not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) UpdateItemMeta(ctx context.Context, id string, pageCount int, info map[string]string) error {
	raw, err := marshalInfo(info)
	if err != nil {
		return err
	}
	const q = `
		UPDATE items
		SET page_count = $2, info = $3, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, pageCount, raw)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("item not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) DeleteItem(ctx context.Context, id string) error {
	// chat turns go with the item via ON DELETE CASCADE
	const q = `DELETE FROM items WHERE id = $1`
	res, err := c.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("item not found: %s", id)
	}
	return nil
}

// Implementing the db interface for chat turns

func (c *DatabaseClient) AddChatTurn(ctx context.Context, turn *models.ChatTurn) error {
	if turn == nil {
		return errors.New("nil chat turn")
	}
	const q = `
		INSERT INTO chat_turns (item_id, question, answer, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, created_at
	`
	return c.db.QueryRowContext(ctx, q, turn.ItemID, turn.Question, turn.Answer).
		Scan(&turn.ID, &turn.CreatedAt)
}

func (c *DatabaseClient) ListChatTurns(ctx context.Context, itemID string) ([]models.ChatTurn, error) {
	const q = `
		SELECT id, item_id, question, answer, created_at
		FROM chat_turns
		WHERE item_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := c.db.QueryContext(ctx, q, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChatTurn
	for rows.Next() {
		var t models.ChatTurn
		if err := rows.Scan(&t.ID, &t.ItemID, &t.Question, &t.Answer, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func marshalInfo(info map[string]string) ([]byte, error) {
	if info == nil {
		info = map[string]string{}
	}
	raw, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encode item info: %w", err)
	}
	return raw, nil
}
