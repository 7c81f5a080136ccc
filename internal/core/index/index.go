package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"docuchat/internal/core"
	"docuchat/internal/core/errs"
	"docuchat/internal/store"
)

// Version of the on-disk artifact format.
const Version = 1

// Entry pairs one text chunk with its embedding vector.
type Entry struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Index is a flat, exhaustively-searched vector index over the chunks of one
// item. It is serialized as versioned JSON (chunk texts + vectors + dimension)
// so the artifact stays portable across implementations and runtimes.
type Index struct {
	Version int     `json:"version"`
	Dim     int     `json:"dim"`
	Chunks  []Entry `json:"chunks"`
}

// Build embeds the chunks in order and assembles the index. An embedding
// service failure surfaces as a retryable index-build error.
func Build(ctx context.Context, embedder core.EmbeddingProvider, chunks []string) (*Index, error) {
	ix := &Index{Version: Version}
	if len(chunks) == 0 {
		return ix, nil
	}
	vecs, err := embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return nil, errs.IndexBuild(err)
	}
	if len(vecs) != len(chunks) {
		return nil, errs.IndexBuild(fmt.Errorf("embedding count mismatch: got %d want %d", len(vecs), len(chunks)))
	}
	ix.Dim = len(vecs[0])
	ix.Chunks = make([]Entry, len(chunks))
	for i := range chunks {
		ix.Chunks[i] = Entry{Text: chunks[i], Embedding: vecs[i]}
	}
	return ix, nil
}

// Save persists the index at path, replacing any prior version atomically
// (temp file + rename). Concurrent or retried builds for the same item leave
// the last complete artifact; readers never observe a partial write.
func (ix *Index) Save(path string) error {
	data, err := json.Marshal(ix)
	if err != nil {
		return errs.IndexBuild(err)
	}
	if err := store.WriteAtomic(path, data); err != nil {
		return errs.IndexBuild(err)
	}
	return nil
}

// Load reads a persisted index artifact.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("decode index artifact: %w", err)
	}
	if ix.Version != Version {
		return nil, fmt.Errorf("unsupported index artifact version %d", ix.Version)
	}
	return &ix, nil
}

// Search returns the k entries most similar to the query vector. Similarity
// is negative L2 distance: higher is closer.
func (ix *Index) Search(query []float32, k int) []Entry {
	if k <= 0 || len(ix.Chunks) == 0 {
		return nil
	}
	type scored struct {
		entry Entry
		dist  float32
	}
	results := make([]scored, 0, len(ix.Chunks))
	for _, e := range ix.Chunks {
		results = append(results, scored{entry: e, dist: sqDistance(query, e.Embedding)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].dist < results[j].dist })
	if k > len(results) {
		k = len(results)
	}
	out := make([]Entry, k)
	for i := 0; i < k; i++ {
		out[i] = results[i].entry
	}
	return out
}

// sqDistance is squared L2 distance; ordering-equivalent to L2 without the sqrt.
func sqDistance(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
