package services

import (
	"strings"
	"unicode/utf8"
)

type TextChunker interface {
	Chunk(text string) []string
}

type lineChunker struct {
	maxRunes     int
	overlapLines int
}

// NewTextChunker groups consecutive non-blank lines into chunks of at most
// maxRunes runes. The last overlapLines lines of a chunk open the next one.
func NewTextChunker(maxRunes, overlapLines int) TextChunker {
	if maxRunes <= 0 {
		maxRunes = 500
	}
	if overlapLines < 0 {
		overlapLines = 0
	}
	return &lineChunker{maxRunes: maxRunes, overlapLines: overlapLines}
}

// Chunk implements TextChunker. A single line longer than maxRunes is split
// on word boundaries.
func (c *lineChunker) Chunk(text string) []string {
	var (
		chunks  []string
		current []string
		size    int
	)

	emit := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, "\n"))

		keep := c.overlapLines
		if keep >= len(current) {
			keep = 0
		}
		current = append([]string(nil), current[len(current)-keep:]...)
		size = 0
		for _, l := range current {
			size += utf8.RuneCountInString(l) + 1
		}
	}

	for _, line := range nonBlankLines(text) {
		for _, piece := range c.splitLong(line) {
			n := utf8.RuneCountInString(piece) + 1
			if size+n > c.maxRunes && len(current) > 0 {
				emit()
				// overlap alone must leave room for the next piece
				if size+n > c.maxRunes {
					current, size = nil, 0
				}
			}
			current = append(current, piece)
			size += n
		}
	}
	emit()

	return chunks
}

func (c *lineChunker) splitLong(line string) []string {
	if utf8.RuneCountInString(line) <= c.maxRunes {
		return []string{line}
	}

	var (
		pieces []string
		b      strings.Builder
	)
	for _, word := range strings.Fields(line) {
		if b.Len() > 0 && utf8.RuneCountInString(b.String())+1+utf8.RuneCountInString(word) > c.maxRunes {
			pieces = append(pieces, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}
	if b.Len() > 0 {
		pieces = append(pieces, b.String())
	}
	return pieces
}
