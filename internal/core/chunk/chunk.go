package chunk

// Splitter splits plain text into overlapping, bounded chunks for embedding.
//
// ChunkSize:    maximum chunk length in characters (runes).
// ChunkOverlap: characters shared between consecutive chunks for context bleed.
//
// Splitting prefers the largest natural boundary available inside the window:
// paragraph, then line, then sentence, then word, falling back to a hard
// character cut. The same input and parameters always produce the same
// sequence, and concatenating the chunks with the overlaps removed
// reconstructs the input exactly.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// Boundary preference, largest first.
var separators = []string{"\n\n", "\n", ". ", " "}

func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 4000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &Splitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

// Split returns the ordered chunk sequence covering text. Text that already
// fits in one chunk is returned whole; empty text yields no chunks.
func (s *Splitter) Split(text string) []string {
	r := []rune(text)
	n := len(r)
	if n == 0 {
		return nil
	}
	if n <= s.ChunkSize {
		return []string{text}
	}

	var out []string
	start := 0
	for {
		if n-start <= s.ChunkSize {
			out = append(out, string(r[start:]))
			return out
		}
		cut := s.cutPoint(r, start, start+s.ChunkSize)
		out = append(out, string(r[start:cut]))
		// The next chunk re-reads the last ChunkOverlap characters.
		start = cut - s.ChunkOverlap
	}
}

// cutPoint picks the end of the next chunk inside (start+overlap, end],
// preferring the rightmost occurrence of the largest separator. The lower
// bound keeps every cut strictly advancing past the previous chunk's start
// even after the overlap is subtracted.
func (s *Splitter) cutPoint(r []rune, start, end int) int {
	min := start + s.ChunkOverlap + 1
	for _, sep := range separators {
		if c := lastBoundary(r, sep, min, end); c >= 0 {
			return c
		}
	}
	return end
}

// lastBoundary returns the largest c in [min, end] such that the separator
// ends exactly at c (the separator stays with the left chunk), or -1.
func lastBoundary(r []rune, sep string, min, end int) int {
	sr := []rune(sep)
	m := len(sr)
	for c := end; c >= min && c >= m; c-- {
		match := true
		for j := 0; j < m; j++ {
			if r[c-m+j] != sr[j] {
				match = false
				break
			}
		}
		if match {
			return c
		}
	}
	return -1
}
