package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"docuchat/internal/core"
	"docuchat/internal/core/errs"
	"docuchat/internal/core/extract"
	"docuchat/internal/models"
	"docuchat/internal/store"
)

// WebPageService registers webpages and runs the crawl step of the pipeline.
type WebPageService struct {
	db         core.DbClient
	store      *store.ItemStore
	queue      core.JobQueue
	maxRetries int
	client     *http.Client
}

func NewWebPageService(dbc core.DbClient, st *store.ItemStore, q core.JobQueue, maxRetries int) *WebPageService {
	return &WebPageService{
		db:         dbc,
		store:      st,
		queue:      q,
		maxRetries: maxRetries,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Create persists the webpage row and enqueues the crawl.
func (s *WebPageService) Create(ctx context.Context, rawURL string) (*models.Item, error) {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errs.Validation("invalid url")
	}

	now := time.Now()
	item := &models.Item{
		ID:        uuid.NewString(),
		Kind:      models.KindWebPage,
		URL:       rawURL,
		Info:      map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create webpage: %w", err)
	}
	if err := s.queue.Enqueue(ctx, QueueCrawler, TaskCrawl, item.ID, s.maxRetries); err != nil {
		return nil, err
	}
	return item, nil
}

// Get returns the webpage or ErrNotFound.
func (s *WebPageService) Get(ctx context.Context, id string) (*models.Item, error) {
	return getItem(ctx, s.db, id, models.KindWebPage)
}

// Delete removes the row; artifact cleanup is best effort.
func (s *WebPageService) Delete(ctx context.Context, id string) error {
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

// Crawl fetches the page, records its title, stores the raw HTML, and hands
// off to index generation. Network and HTTP failures are retryable.
func (s *WebPageService) Crawl(ctx context.Context, itemID string) error {
	item, err := getItem(ctx, s.db, itemID, models.KindWebPage)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return errs.Fetch(err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return errs.Fetch(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return errs.Fetch(fmt.Errorf("fetch %s: unexpected status %s", item.URL, resp.Status))
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Fetch(err)
	}

	_, title, err := extract.HTML(raw)
	if err != nil {
		return err
	}
	if title != "" {
		if err := s.db.UpdateItemTitle(ctx, item.ID, title); err != nil {
			return err
		}
	}

	if err := s.store.WriteFile(item.ID, store.RawHTMLName, raw); err != nil {
		return fmt.Errorf("store raw html: %w", err)
	}

	return s.queue.Enqueue(ctx, QueueWebPageIndex, TaskIndexWebPage, item.ID, s.maxRetries)
}
