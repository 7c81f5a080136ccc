package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docuchat/internal/core"
	"docuchat/internal/core/errs"
	"docuchat/internal/core/index"
	"docuchat/internal/models"
	"docuchat/internal/store"
)

// Per-call budget for the embedding and completion services.
const aiCallTimeout = 60 * time.Second

const chatSystemPrompt = "You are an intelligent assistant answering questions " +
	"based only on the given document content and the conversation so far. " +
	"If unsure, say you cannot find this in the document."

// ChatService is the conversational retrieval engine: it answers a question
// against an item's persisted index plus its prior chat history, then records
// the turn.
type ChatService struct {
	db       core.DbClient
	store    *store.ItemStore
	embedder core.EmbeddingProvider
	llm      core.LLMProvider
	topK     int
}

func NewChatService(dbc core.DbClient, st *store.ItemStore, emb core.EmbeddingProvider, llm core.LLMProvider, topK int) *ChatService {
	if topK <= 0 {
		topK = 4
	}
	return &ChatService{db: dbc, store: st, embedder: emb, llm: llm, topK: topK}
}

// History returns the item's chat turns in creation order.
func (s *ChatService) History(ctx context.Context, itemID string) ([]models.ChatTurn, error) {
	return s.db.ListChatTurns(ctx, itemID)
}

// Chat answers one question. The turn is persisted only after the model call
// succeeds: a failed call leaves the history untouched. Each call reads the
// history as of its own start; concurrent calls may interleave but cannot
// corrupt the log.
func (s *ChatService) Chat(ctx context.Context, item *models.Item, message string) (*models.ChatTurn, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errs.Validation("Message cannot be empty")
	}
	if !s.store.Exists(item.ID, store.IndexName) {
		return nil, errs.ErrNotIndexed
	}

	idx, err := index.Load(s.store.IndexPath(item.ID))
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	history, err := s.db.ListChatTurns(ctx, item.ID)
	if err != nil {
		return nil, err
	}

	ectx, cancel := context.WithTimeout(ctx, aiCallTimeout)
	defer cancel()
	vecs, err := s.embedder.EmbedTexts(ectx, []string{message})
	if err != nil || len(vecs) == 0 {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	entries := idx.Search(vecs[0], s.topK)

	gctx, gcancel := context.WithTimeout(ctx, aiCallTimeout)
	defer gcancel()
	answer, err := s.llm.Generate(gctx, chatSystemPrompt, buildPrompt(entries, history, message))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	turn := &models.ChatTurn{ItemID: item.ID, Question: message, Answer: answer}
	if err := s.db.AddChatTurn(ctx, turn); err != nil {
		return nil, fmt.Errorf("record chat turn: %w", err)
	}
	return turn, nil
}

// buildPrompt lays out retrieved context, then the full history in stored
// order, then the new question. Turn order must match the persisted log
// exactly; reordering changes model output.
func buildPrompt(entries []index.Entry, history []models.ChatTurn, question string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	for _, e := range entries {
		b.WriteString(e.Text)
		b.WriteString("\n---\n")
	}
	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", t.Question, t.Answer)
		}
	}
	fmt.Fprintf(&b, "\nQuestion: %s", question)
	return b.String()
}
