package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"docuchat/internal/core"
	"docuchat/internal/core/chunk"
	"docuchat/internal/core/extract"
	"docuchat/internal/core/index"
	"docuchat/internal/models"
	"docuchat/internal/store"
)

// How long one embedding batch may take before the job is failed and retried.
const embedTimeout = 2 * time.Minute

// Indexer rebuilds an item's index artifact from its stored raw artifact.
// One pipeline serves both kinds; only the text-extraction step differs.
// The job is idempotent: it re-extracts, re-chunks, re-embeds and atomically
// replaces the index, so queue retries and duplicate runs are safe.
type Indexer struct {
	db       core.DbClient
	store    *store.ItemStore
	embedder core.EmbeddingProvider
	splitter *chunk.Splitter
}

func NewIndexer(dbc core.DbClient, st *store.ItemStore, emb core.EmbeddingProvider, splitter *chunk.Splitter) *Indexer {
	return &Indexer{db: dbc, store: st, embedder: emb, splitter: splitter}
}

// IndexDocument extracts the uploaded file's text and builds its index.
func (ix *Indexer) IndexDocument(ctx context.Context, itemID string) error {
	item, err := getItem(ctx, ix.db, itemID, models.KindDocument)
	if err != nil {
		return err
	}

	path := ix.store.Path(item.ID, item.FileName)
	var (
		text  string
		pages int
	)
	switch strings.ToLower(filepath.Ext(item.FileName)) {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		text, err = extract.Image(path)
	default:
		text, pages, err = extract.PDF(path)
	}
	if err != nil {
		return err
	}

	if err := ix.store.WriteFile(item.ID, store.RawTextName, []byte(text)); err != nil {
		return fmt.Errorf("store raw text: %w", err)
	}

	n, err := ix.buildIndex(ctx, item.ID, text)
	if err != nil {
		return err
	}
	return ix.db.UpdateItemMeta(ctx, item.ID, pages, indexInfo(n, text))
}

// IndexWebPage extracts text from the crawled HTML and builds its index.
func (ix *Indexer) IndexWebPage(ctx context.Context, itemID string) error {
	item, err := getItem(ctx, ix.db, itemID, models.KindWebPage)
	if err != nil {
		return err
	}

	raw, err := ix.store.ReadFile(item.ID, store.RawHTMLName)
	if err != nil {
		return fmt.Errorf("read crawled html: %w", err)
	}
	text, _, err := extract.HTML(raw)
	if err != nil {
		return err
	}

	if err := ix.store.WriteFile(item.ID, store.RawTextName, []byte(text)); err != nil {
		return fmt.Errorf("store raw text: %w", err)
	}

	n, err := ix.buildIndex(ctx, item.ID, text)
	if err != nil {
		return err
	}
	return ix.db.UpdateItemMeta(ctx, item.ID, item.PageCount, indexInfo(n, text))
}

func (ix *Indexer) buildIndex(ctx context.Context, itemID, text string) (int, error) {
	chunks := ix.splitter.Split(text)

	ectx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()
	idx, err := index.Build(ectx, ix.embedder, chunks)
	if err != nil {
		return 0, err
	}
	if err := idx.Save(ix.store.IndexPath(itemID)); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func indexInfo(chunks int, text string) map[string]string {
	return map[string]string{
		"chunks":     strconv.Itoa(chunks),
		"characters": strconv.Itoa(len(text)),
	}
}
