package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat/internal/core/errs"
	"docuchat/internal/core/index"
	"docuchat/internal/models"
	"docuchat/internal/store"
)

type fakeDB struct {
	items map[string]*models.Item
	turns []models.ChatTurn

	addTurnErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{items: make(map[string]*models.Item)}
}

func (f *fakeDB) CreateItem(_ context.Context, item *models.Item) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeDB) GetItemByID(_ context.Context, id string) (*models.Item, error) {
	return f.items[id], nil
}

func (f *fakeDB) UpdateItemTitle(_ context.Context, id, title string) error {
	if it, ok := f.items[id]; ok {
		it.Title = title
	}
	return nil
}

func (f *fakeDB) UpdateItemMeta(_ context.Context, id string, pageCount int, info map[string]string) error {
	if it, ok := f.items[id]; ok {
		it.PageCount = pageCount
		it.Info = info
	}
	return nil
}

func (f *fakeDB) DeleteItem(_ context.Context, id string) error {
	delete(f.items, id)
	return nil
}

func (f *fakeDB) AddChatTurn(_ context.Context, turn *models.ChatTurn) error {
	if f.addTurnErr != nil {
		return f.addTurnErr
	}
	turn.ID = int64(len(f.turns) + 1)
	f.turns = append(f.turns, *turn)
	return nil
}

func (f *fakeDB) ListChatTurns(_ context.Context, itemID string) ([]models.ChatTurn, error) {
	var out []models.ChatTurn
	for _, t := range f.turns {
		if t.ItemID == itemID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeDB) Close() error { return nil }

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2}
	}
	return out, nil
}

type fakeLLM struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeLLM) Generate(_ context.Context, _, userPrompt string) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func writeIndex(t *testing.T, st *store.ItemStore, itemID string, texts ...string) {
	t.Helper()
	ix := index.Index{Version: index.Version, Dim: 2}
	for _, txt := range texts {
		ix.Chunks = append(ix.Chunks, index.Entry{Text: txt, Embedding: []float32{1, 2}})
	}
	data, err := json.Marshal(ix)
	require.NoError(t, err)
	require.NoError(t, st.WriteFile(itemID, store.IndexName, data))
}

func newChatFixture(t *testing.T) (*ChatService, *fakeDB, *fakeLLM, *store.ItemStore, *models.Item) {
	t.Helper()
	st, err := store.NewItemStore(t.TempDir())
	require.NoError(t, err)
	db := newFakeDB()
	llm := &fakeLLM{answer: "the answer"}
	svc := NewChatService(db, st, &fakeEmbedder{}, llm, 4)
	item := &models.Item{ID: "item1", Kind: models.KindDocument}
	require.NoError(t, db.CreateItem(context.Background(), item))
	return svc, db, llm, st, item
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	svc, _, _, _, item := newChatFixture(t)
	_, err := svc.Chat(context.Background(), item, "   ")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestChatWithoutIndex(t *testing.T) {
	svc, _, _, _, item := newChatFixture(t)
	_, err := svc.Chat(context.Background(), item, "what is this about?")
	assert.ErrorIs(t, err, errs.ErrNotIndexed)
}

func TestChatRecordsOneTurn(t *testing.T) {
	svc, db, _, st, item := newChatFixture(t)
	writeIndex(t, st, item.ID, "chunk one", "chunk two")

	turn, err := svc.Chat(context.Background(), item, "what is this about?")
	require.NoError(t, err)
	assert.Equal(t, "what is this about?", turn.Question)
	assert.Equal(t, "the answer", turn.Answer)
	assert.Len(t, db.turns, 1)
}

func TestChatLLMFailureLeavesHistoryUntouched(t *testing.T) {
	svc, db, llm, st, item := newChatFixture(t)
	writeIndex(t, st, item.ID, "chunk one")
	llm.err = errors.New("model unavailable")

	_, err := svc.Chat(context.Background(), item, "hello?")
	require.Error(t, err)
	assert.Empty(t, db.turns)
}

func TestChatPromptCarriesHistoryInOrder(t *testing.T) {
	svc, db, llm, st, item := newChatFixture(t)
	writeIndex(t, st, item.ID, "chunk one")
	db.turns = []models.ChatTurn{
		{ID: 1, ItemID: item.ID, Question: "first q", Answer: "first a"},
		{ID: 2, ItemID: item.ID, Question: "second q", Answer: "second a"},
	}

	_, err := svc.Chat(context.Background(), item, "third q")
	require.NoError(t, err)

	require.Len(t, llm.prompts, 1)
	p := llm.prompts[0]
	assert.Contains(t, p, "chunk one")
	first := strings.Index(p, "Q: first q")
	second := strings.Index(p, "Q: second q")
	question := strings.Index(p, "Question: third q")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	require.GreaterOrEqual(t, question, 0)
	assert.Less(t, first, second)
	assert.Less(t, second, question)
}

func TestChatHistoryEmptyForNewItem(t *testing.T) {
	svc, _, _, _, item := newChatFixture(t)
	turns, err := svc.History(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Empty(t, turns)
}
