package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmpty(t *testing.T) {
	s := NewSplitter(100, 10)
	assert.Nil(t, s.Split(""))
}

func TestSplitFitsInOneChunk(t *testing.T) {
	s := NewSplitter(100, 10)
	got := s.Split("short text")
	require.Len(t, got, 1)
	assert.Equal(t, "short text", got[0])
}

func TestSplitChunkSizeBound(t *testing.T) {
	s := NewSplitter(50, 5)
	text := strings.Repeat("lorem ipsum dolor sit amet. ", 40)
	for i, c := range s.Split(text) {
		assert.LessOrEqual(t, len([]rune(c)), 50, "chunk %d exceeds size", i)
	}
}

func TestSplitOverlapShared(t *testing.T) {
	s := NewSplitter(50, 8)
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 30)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		tail := string(prev[len(prev)-8:])
		head := string(cur[:8])
		assert.Equal(t, tail, head, "chunks %d/%d do not share the overlap", i-1, i)
	}
}

func TestSplitLosslessReconstruction(t *testing.T) {
	s := NewSplitter(60, 10)
	text := "First paragraph with some words.\n\nSecond paragraph, a bit longer, with more words in it.\nA line.\n\n" +
		strings.Repeat("Sentence number n goes here. ", 20)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)

	var b strings.Builder
	b.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		r := []rune(c)
		b.WriteString(string(r[10:]))
	}
	assert.Equal(t, text, b.String())
}

func TestSplitDeterministic(t *testing.T) {
	s := NewSplitter(80, 12)
	text := strings.Repeat("alpha beta gamma delta epsilon. ", 25)
	assert.Equal(t, s.Split(text), s.Split(text))
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	s := NewSplitter(40, 0)
	text := "aaaa bbbb cccc\n\ndddd eeee ffff gggg hhhh iiii jjjj kkkk"
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, "aaaa bbbb cccc\n\n", chunks[0])
}

func TestSplitHardCutWithoutSeparators(t *testing.T) {
	s := NewSplitter(10, 2)
	text := strings.Repeat("x", 35)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}

	var b strings.Builder
	b.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		b.WriteString(c[2:])
	}
	assert.Equal(t, text, b.String())
}

func TestNewSplitterClampsBadParams(t *testing.T) {
	s := NewSplitter(0, -1)
	assert.Equal(t, 4000, s.ChunkSize)
	assert.Equal(t, 0, s.ChunkOverlap)

	s = NewSplitter(10, 10)
	assert.Equal(t, 0, s.ChunkOverlap)
}
