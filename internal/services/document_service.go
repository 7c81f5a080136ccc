package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"docuchat/internal/core"
	"docuchat/internal/core/errs"
	"docuchat/internal/models"
	"docuchat/internal/store"
)

// DocumentService handles the synchronous part of the document lifecycle:
// creating the row, storing the raw artifact, and enqueueing index generation.
type DocumentService struct {
	db         core.DbClient
	store      *store.ItemStore
	queue      core.JobQueue
	maxRetries int
}

func NewDocumentService(dbc core.DbClient, st *store.ItemStore, q core.JobQueue, maxRetries int) *DocumentService {
	return &DocumentService{db: dbc, store: st, queue: q, maxRetries: maxRetries}
}

// Create persists the item row, stores the uploaded file, and enqueues index
// generation, strictly in that order within the request.
func (s *DocumentService) Create(ctx context.Context, filename string, file io.Reader) (*models.Item, error) {
	now := time.Now()
	item := &models.Item{
		ID:        uuid.NewString(),
		Kind:      models.KindDocument,
		FileName:  filename,
		Info:      map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	if _, err := s.store.SaveArtifact(item.ID, filename, file); err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}
	if err := s.queue.Enqueue(ctx, QueueDocumentIndex, TaskIndexDocument, item.ID, s.maxRetries); err != nil {
		return nil, err
	}
	return item, nil
}

// Get returns the document or ErrNotFound.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Item, error) {
	return getItem(ctx, s.db, id, models.KindDocument)
}

// Delete removes the row; artifact cleanup is best effort.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.db.DeleteItem(ctx, id); err != nil {
		return err
	}
	if err := s.store.Remove(id); err != nil {
		log.Warn().Err(err).Str("item_id", id).Msg("artifact cleanup failed")
	}
	return nil
}

// getItem loads an item and checks it is the expected kind.
func getItem(ctx context.Context, dbc core.DbClient, id, kind string) (*models.Item, error) {
	item, err := dbc.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.Kind != kind {
		return nil, errs.ErrNotFound
	}
	return item, nil
}
