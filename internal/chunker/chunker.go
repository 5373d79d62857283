// Package chunker splits raw document text into overlapping fixed-size spans.
package chunker

import "strings"

// Piece is one emitted chunk of text. Index values are dense 0..n-1 in
// emission order; a window dropped for being empty after trimming does not
// consume an index.
type Piece struct {
	Index   int
	Content string
}

// Chunker splits text into overlapping character-offset windows. It has no
// awareness of tokens, sentences, or markdown structure; windows are cut at
// raw rune offsets. That is a known limitation, kept for predictability.
type Chunker struct {
	chunkSize int
	overlap   int
}

const defaultChunkSize = 900

// New creates a chunker with the given window size and overlap, in characters.
// A non-positive chunkSize falls back to the default window and a negative
// overlap is treated as zero, so a zero-value configuration cannot stall the
// window loop.
func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk splits text into overlapping windows of chunkSize runes. The input
// is trimmed first; empty input yields an empty slice. Each window advances
// by chunkSize-overlap runes; when overlap >= chunkSize the start is clamped
// forward so progress is always made. The window that reaches the end of the
// text is the last one emitted.
func (c *Chunker) Chunk(text string) []Piece {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var pieces []Piece
	start := 0
	idx := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			pieces = append(pieces, Piece{Index: idx, Content: content})
			idx++
		}
		if end >= len(runes) {
			break
		}
		// Never step backwards or stall, even when overlap >= chunkSize.
		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return pieces
}
