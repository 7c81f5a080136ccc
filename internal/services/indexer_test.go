package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat/internal/core/chunk"
	"docuchat/internal/core/errs"
	"docuchat/internal/core/index"
	"docuchat/internal/models"
	"docuchat/internal/store"
)

func newIndexerFixture(t *testing.T, emb *fakeEmbedder) (*Indexer, *fakeDB, *store.ItemStore) {
	t.Helper()
	st, err := store.NewItemStore(t.TempDir())
	require.NoError(t, err)
	db := newFakeDB()
	return NewIndexer(db, st, emb, chunk.NewSplitter(40, 5)), db, st
}

func TestIndexWebPageBuildsArtifact(t *testing.T) {
	ix, db, st := newIndexerFixture(t, &fakeEmbedder{})
	item := &models.Item{ID: "w1", Kind: models.KindWebPage, URL: "https://example.com"}
	require.NoError(t, db.CreateItem(context.Background(), item))
	html := `<html><head><title>T</title></head><body><p>Some page text worth indexing.</p></body></html>`
	require.NoError(t, st.WriteFile(item.ID, store.RawHTMLName, []byte(html)))

	require.NoError(t, ix.IndexWebPage(context.Background(), item.ID))

	assert.True(t, st.Exists(item.ID, store.RawTextName))
	require.True(t, st.Exists(item.ID, store.IndexName))

	loaded, err := index.Load(st.IndexPath(item.ID))
	require.NoError(t, err)
	assert.NotEmpty(t, loaded.Chunks)

	assert.Equal(t, "1", db.items[item.ID].Info["chunks"])
	assert.NotEmpty(t, db.items[item.ID].Info["characters"])
}

func TestIndexWebPageMissingCrawlArtifact(t *testing.T) {
	ix, db, _ := newIndexerFixture(t, &fakeEmbedder{})
	item := &models.Item{ID: "w1", Kind: models.KindWebPage}
	require.NoError(t, db.CreateItem(context.Background(), item))

	assert.Error(t, ix.IndexWebPage(context.Background(), item.ID))
}

func TestIndexWebPageEmbedderFailure(t *testing.T) {
	ix, db, st := newIndexerFixture(t, &fakeEmbedder{err: errors.New("quota")})
	item := &models.Item{ID: "w1", Kind: models.KindWebPage}
	require.NoError(t, db.CreateItem(context.Background(), item))
	require.NoError(t, st.WriteFile(item.ID, store.RawHTMLName, []byte(`<body>text</body>`)))

	err := ix.IndexWebPage(context.Background(), item.ID)
	require.Error(t, err)
	var pe *errs.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "index", pe.Stage)
	assert.False(t, st.Exists(item.ID, store.IndexName))
}

func TestIndexDocumentUnknownItem(t *testing.T) {
	ix, _, _ := newIndexerFixture(t, &fakeEmbedder{})
	assert.ErrorIs(t, ix.IndexDocument(context.Background(), "missing"), errs.ErrNotFound)
}

func TestIndexDocumentCorruptPDF(t *testing.T) {
	ix, db, st := newIndexerFixture(t, &fakeEmbedder{})
	item := &models.Item{ID: "d1", Kind: models.KindDocument, FileName: "broken.pdf"}
	require.NoError(t, db.CreateItem(context.Background(), item))
	require.NoError(t, st.WriteFile(item.ID, "broken.pdf", []byte("not a pdf")))

	err := ix.IndexDocument(context.Background(), item.ID)
	require.Error(t, err)
	var pe *errs.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "extract", pe.Stage)
}
