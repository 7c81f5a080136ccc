package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"docuchat/internal/config"
	"docuchat/internal/core"
	"docuchat/internal/models"
	"docuchat/internal/services"
)

type DocumentHandler struct {
	docs       *services.DocumentService
	chat       *services.ChatService
	extraction *services.ExtractionService
	notifier   core.Notifier
	cfg        *config.Config
}

func NewDocumentHandler(docs *services.DocumentService, chat *services.ChatService, extraction *services.ExtractionService, notifier core.Notifier, cfg *config.Config) *DocumentHandler {
	return &DocumentHandler{docs: docs, chat: chat, extraction: extraction, notifier: notifier, cfg: cfg}
}

// Upload handles the multipart PDF upload: row insert, artifact store, and
// index-job enqueue happen inside the request; indexing itself does not.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseMultipartForm(32 << 20)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file part in the request")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file selected for uploading")
		return
	}
	// Base strips any path components a client may smuggle in.
	filename := filepath.Base(header.Filename)
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "Allowed file types are .pdf only")
		return
	}

	item, err := h.docs.Create(r.Context(), filename, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := map[string]string{
		"message": "File has been uploaded successfully",
		"id":      item.ID,
		"url":     h.itemURL(item),
	}
	h.notifier.Post(resp)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.docs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         item.ID,
		"filename":   item.FileName,
		"page_count": item.PageCount,
		"info":       item.Info,
		"created_at": item.CreatedAt,
	})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted"})
}

func (h *DocumentHandler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	item, err := h.docs.Get(r.Context(), chi.URLParam(r, "id"))
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

type chatRequest struct {
	Message string `json:"message"`
}

func (h *DocumentHandler) Chat(w http.ResponseWriter, r *http.Request) {
	item, err := h.docs.Get(r.Context(), chi.URLParam(r, "id"))
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

func (h *DocumentHandler) Extract(w http.ResponseWriter, r *http.Request) {
	item, err := h.docs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var cfg services.ExtractionConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields, err := h.extraction.Extract(r.Context(), item, &cfg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

func (h *DocumentHandler) itemURL(item *models.Item) string {
	return fmt.Sprintf("%s/document/%s", h.cfg.ServerURL, item.ID)
}
