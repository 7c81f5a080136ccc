package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docuchat/internal/config"
	"docuchat/internal/core"
	"docuchat/internal/models"
	"docuchat/internal/services"
)

type WebPageHandler struct {
	pages    *services.WebPageService
	chat     *services.ChatService
	notifier core.Notifier
	cfg      *config.Config
}

func NewWebPageHandler(pages *services.WebPageService, chat *services.ChatService, notifier core.Notifier, cfg *config.Config) *WebPageHandler {
	return &WebPageHandler{pages: pages, chat: chat, notifier: notifier, cfg: cfg}
}

type createWebPageRequest struct {
	URL string `json:"url"`
}

// Create registers the URL and enqueues the crawl; the page is fetched and
// indexed by the worker.
func (h *WebPageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWebPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.pages.Create(r.Context(), req.URL)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := map[string]string{
		"message": "WebPage queued for crawling",
		"id":      item.ID,
		"url":     h.itemURL(item),
	}
	h.notifier.Post(resp)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *WebPageHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.pages.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         item.ID,
		"url":        item.URL,
		"title":      item.Title,
		"info":       item.Info,
		"created_at": item.CreatedAt,
	})
}

func (h *WebPageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.pages.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "WebPage deleted"})
}

func (h *WebPageHandler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	item, err := h.pages.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	turns, err := h.chat.History(r.Context(), item.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if turns == nil {
		turns = []models.ChatTurn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

func (h *WebPageHandler) Chat(w http.ResponseWriter, r *http.Request) {
	item, err := h.pages.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.chat.Chat(r.Context(), item, req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.notifier.Post(map[string]string{
		"url":      h.itemURL(item),
		"message":  req.Message,
		"response": turn.Answer,
	})
	writeJSON(w, http.StatusOK, map[string]string{"answer": turn.Answer})
}

func (h *WebPageHandler) itemURL(item *models.Item) string {
	return fmt.Sprintf("%s/webpage/%s", h.cfg.ServerURL, item.ID)
}
