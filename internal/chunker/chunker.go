// Package chunker splits raw transcript text into overlapping, bounded-size
// fragments with exact byte offsets into the original text.
package chunker

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/raphaelgruber/studybuddy/internal/models"
)

// Fragment is one chunk of the original text.
// Text always equals the original text's [Start:End] slice; the first
// OverlapLen bytes are shared with the previous fragment. Stripping the
// overlap from every fragment but the first reconstructs the original
// text byte for byte.
type Fragment struct {
	Seq        int
	Text       string
	Start      int
	End        int
	OverlapLen int
}

// Chunk splits text into fragments of roughly targetSize bytes with the
// given overlap. Splits happen at sentence boundaries where possible,
// falling back to hard cuts (never inside a rune) when a single sentence
// exceeds targetSize. The result is deterministic for identical inputs and
// parameters.
func Chunk(text string, targetSize, overlap int) ([]Fragment, error) {
	if len(text) == 0 {
		return nil, fmt.Errorf("%w: empty text", models.ErrInvalidInput)
	}
	if targetSize <= 0 {
		return nil, fmt.Errorf("%w: target size must be positive, got %d", models.ErrInvalidInput, targetSize)
	}
	if overlap < 0 || overlap >= targetSize {
		return nil, fmt.Errorf("%w: overlap must satisfy 0 <= overlap < target size, got %d", models.ErrInvalidInput, overlap)
	}

	// Core spans are contiguous and gapless: span i starts exactly where
	// span i-1 ended, so concatenating them reproduces the text.
	spans := coreSpans(text, targetSize)

	fragments := make([]Fragment, 0, len(spans))
	for i, sp := range spans {
		start := sp.start
		overlapLen := 0
		if i > 0 && overlap > 0 {
			overlapLen = overlap
			if overlapLen > sp.start {
				overlapLen = sp.start
			}
			start = sp.start - overlapLen
			// The overlap must not begin mid-rune; shrink it to the next
			// rune start.
			for start < sp.start && !utf8.RuneStart(text[start]) {
				start++
			}
			overlapLen = sp.start - start
		}
		fragments = append(fragments, Fragment{
			Seq:        i,
			Text:       text[start:sp.end],
			Start:      start,
			End:        sp.end,
			OverlapLen: overlapLen,
		})
	}
	return fragments, nil
}

type span struct {
	start, end int
}

// coreSpans partitions [0, len(text)) into contiguous spans of at most
// targetSize bytes, preferring sentence boundaries, then word boundaries,
// then hard cuts.
func coreSpans(text string, targetSize int) []span {
	var spans []span
	pos := 0
	for pos < len(text) {
		if len(text)-pos <= targetSize {
			spans = append(spans, span{pos, len(text)})
			break
		}

		end := cutPoint(text, pos, pos+targetSize)
		spans = append(spans, span{pos, end})
		pos = end
	}
	return spans
}

// cutPoint picks the split position within (start, limit]. It prefers the
// last sentence end, then the last whitespace run, then a hard cut at the
// nearest rune boundary at or before limit.
func cutPoint(text string, start, limit int) int {
	if s := lastSentenceEnd(text[start:limit]); s > 0 {
		return start + s
	}
	if w := lastWordEnd(text[start:limit]); w > 0 {
		return start + w
	}
	for limit > start && !utf8.RuneStart(text[limit]) {
		limit--
	}
	if limit == start {
		// The span holds less than one rune; keep it whole rather than
		// split it.
		_, n := utf8.DecodeRuneInString(text[start:])
		limit = start + n
	}
	return limit
}

// lastSentenceEnd returns the position just after the last sentence
// terminator (including trailing whitespace) in s, or 0 if none.
// Paragraph breaks count as sentence ends.
func lastSentenceEnd(s string) int {
	for i := len(s) - 1; i > 0; i-- {
		c := s[i]
		if c != '.' && c != '!' && c != '?' && c != '\n' {
			continue
		}
		// Terminator must be followed by whitespace (or sit at the cut)
		// to count as a boundary; "3.14" is not a sentence end.
		if i+1 < len(s) && !unicode.IsSpace(rune(s[i+1])) {
			continue
		}
		// Consume trailing whitespace so the next span starts at content.
		end := i + 1
		for end < len(s) && unicode.IsSpace(rune(s[end])) {
			end++
		}
		return end
	}
	return 0
}

// lastWordEnd returns the position just after the last whitespace run in s,
// or 0 if s has no whitespace.
func lastWordEnd(s string) int {
	for i := len(s) - 1; i > 0; i-- {
		if unicode.IsSpace(rune(s[i])) {
			// Whitespace stays attached to the left span so offsets
			// remain gapless.
			return i + 1
		}
	}
	return 0
}

// Reconstruct reassembles the original text from fragments by stripping
// each fragment's overlap. Inverse of Chunk for any valid parameters.
func Reconstruct(fragments []Fragment) string {
	var out []byte
	for _, f := range fragments {
		out = append(out, f.Text[f.OverlapLen:]...)
	}
	return string(out)
}
