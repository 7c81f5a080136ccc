package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"docuchat/internal/core"
	"docuchat/internal/core/errs"
	"docuchat/internal/models"
	"docuchat/internal/store"
)

const extractionSystemPrompt = "You extract structured fields from documents. " +
	"Respond with a single JSON object and nothing else. Use null for fields " +
	"you cannot find."

// ExtractionEntity names one field to pull out of a document.
type ExtractionEntity struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// ExtractionConfig describes a structured-extraction request.
type ExtractionConfig struct {
	ExtractionType string             `json:"extraction_type"`
	Entities       []ExtractionEntity `json:"entities"`
}

// Validate returns nil for a usable config. Absence of an error is the pass
// signal; the predecessor validator only ever produced failure values.
func (c *ExtractionConfig) Validate() error {
	if c.ExtractionType == "" {
		return errs.Validation("extraction_type is required")
	}
	if len(c.Entities) == 0 {
		return errs.Validation("entities must contain at least one entity")
	}
	for _, e := range c.Entities {
		if e.Name == "" || e.Label == "" {
			return errs.Validation("every entity needs a name and a label")
		}
	}
	return nil
}

// ExtractionService asks the language model for named fields over an item's
// extracted text and keeps the raw model response alongside the artifacts.
type ExtractionService struct {
	store *store.ItemStore
	llm   core.LLMProvider
}

func NewExtractionService(st *store.ItemStore, llm core.LLMProvider) *ExtractionService {
	return &ExtractionService{store: st, llm: llm}
}

// Extract runs one structured extraction. The item must have been indexed, so
// its raw text exists on disk.
func (s *ExtractionService) Extract(ctx context.Context, item *models.Item, cfg *ExtractionConfig) (map[string]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !s.store.Exists(item.ID, store.IndexName) {
		return nil, errs.ErrNotIndexed
	}
	raw, err := s.store.ReadFile(item.ID, store.RawTextName)
	if err != nil {
		return nil, fmt.Errorf("read extracted text: %w", err)
	}

	gctx, cancel := context.WithTimeout(ctx, aiCallTimeout)
	defer cancel()
	resp, err := s.llm.Generate(gctx, extractionSystemPrompt, extractionPrompt(string(raw), cfg))
	if err != nil {
		return nil, fmt.Errorf("run extraction: %w", err)
	}

	// Keep the raw model response next to the other per-item artifacts.
	name := fmt.Sprintf("extraction_%s.txt", cfg.ExtractionType)
	if err := s.store.WriteFile(item.ID, name, []byte(resp)); err != nil {
		return nil, fmt.Errorf("store extraction response: %w", err)
	}

	fields, err := parseFields(resp)
	if err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}
	return fields, nil
}

func extractionPrompt(text string, cfg *ExtractionConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extraction type: %s\n\nFields to extract:\n", cfg.ExtractionType)
	for _, e := range cfg.Entities {
		fmt.Fprintf(&b, "- %s (%s)\n", e.Name, e.Label)
	}
	fmt.Fprintf(&b, "\nDocument:\n%s\n\nReturn a JSON object keyed by field name.", text)
	return b.String()
}

// parseFields decodes the model's JSON object, tolerating a fenced code block
// around it.
func parseFields(resp string) (map[string]string, error) {
	trimmed := strings.TrimSpace(resp)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var decoded map[string]any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(decoded))
	for k, v := range decoded {
		switch val := v.(type) {
		case nil:
			fields[k] = ""
		case string:
			fields[k] = val
		default:
			fields[k] = fmt.Sprint(val)
		}
	}
	return fields, nil
}
