package models

import (
	"time"
)

// Item kinds. A Document is an uploaded file; a WebPage is a registered URL.
const (
	KindDocument = "document"
	KindWebPage  = "webpage"
)

// Item represents one indexable entity: an uploaded document or a registered
// webpage. FileName is set for documents; URL and Title for webpages.
// PageCount and Info are filled in by the indexing pipeline.
type Item struct {
	ID        string            `db:"id" json:"id"`
	Kind      string            `db:"kind" json:"kind"`
	FileName  string            `db:"filename" json:"filename,omitempty"`
	URL       string            `db:"url" json:"url,omitempty"`
	Title     string            `db:"title" json:"title,omitempty"`
	PageCount int               `db:"page_count" json:"page_count"`
	Info      map[string]string `db:"info" json:"info"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// ChatTurn is one persisted (question, answer) pair for an item. Turns form an
// append-only log ordered by creation time; ID is sequence-assigned by the DB.
type ChatTurn struct {
	ID        int64     `db:"id" json:"id"`
	ItemID    string    `db:"item_id" json:"-"`
	Question  string    `db:"question" json:"question"`
	Answer    string    `db:"answer" json:"answer"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
