// Package chunking splits normalized text into overlapping, size-bounded chunks.
//
// The splitter is recursive: it breaks text on the coarsest separator present,
// re-splits any piece that is still too large with the next finer separator,
// and then greedily packs the resulting pieces into chunks. Separators stay
// attached to the piece they terminate, so every chunk is an exact substring
// of the input and consecutive chunks never leave a gap.
package chunking

import (
	"strings"
	"unicode/utf8"
)

// Defaults used by the ingestion pipeline.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// DefaultSeparators go from paragraph to line to word to single character.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunk is one piece of the input with its byte offsets.
type Chunk struct {
	Text  string
	Start int
	End   int
}

// Splitter is safe for concurrent use; it holds no per-call state.
type Splitter struct {
	size       int
	overlap    int
	separators []string
}

// Option customizes a Splitter.
type Option func(*Splitter)

// WithSeparators replaces the separator hierarchy. The last separator
// should be "" so that any text can be broken down to characters.
func WithSeparators(seps ...string) Option {
	return func(s *Splitter) {
		s.separators = seps
	}
}

// NewSplitter creates a splitter producing chunks of at most size characters
// with up to overlap characters repeated from the previous chunk.
// Non-positive size falls back to DefaultChunkSize; overlap is clamped to [0, size).
func NewSplitter(size, overlap int, opts ...Option) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	s := &Splitter{
		size:       size,
		overlap:    overlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Size returns the maximum chunk length in characters.
func (s *Splitter) Size() int { return s.size }

// Overlap returns the configured overlap in characters.
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns the chunk texts for text. Empty input yields no chunks.
func (s *Splitter) Split(text string) []string {
	chunks := s.Chunks(text)
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// Chunks splits text and reports where every chunk sits in the input.
// The first chunk starts at 0, the last ends at len(text), and each chunk
// starts at or before the end of its predecessor.
func (s *Splitter) Chunks(text string) []Chunk {
	if text == "" {
		return nil
	}
	pieces := s.pieces(text, s.separators, nil)
	return s.merge(pieces)
}

type piece struct {
	text  string
	runes int
}

// pieces appends to dst the atomic pieces of text, each at most s.size
// characters unless no separator remains to break it further.
func (s *Splitter) pieces(text string, seps []string, dst []piece) []piece {
	sep, rest := pickSeparator(text, seps)

	for _, p := range splitKeep(text, sep) {
		n := utf8.RuneCountInString(p)
		if n <= s.size || len(rest) == 0 {
			dst = append(dst, piece{text: p, runes: n})
			continue
		}
		dst = s.pieces(p, rest, dst)
	}
	return dst
}

// merge packs pieces greedily into chunks, carrying trailing pieces that
// fit in the overlap window into the next chunk.
func (s *Splitter) merge(pieces []piece) []Chunk {
	var (
		chunks []Chunk
		window []piece
		length int
		offset int // byte offset of window[0] in text
	)

	emit := func() {
		var b strings.Builder
		for _, p := range window {
			b.WriteString(p.text)
		}
		chunk := b.String()
		chunks = append(chunks, Chunk{Text: chunk, Start: offset, End: offset + len(chunk)})
	}

	for _, p := range pieces {
		if len(window) > 0 && length+p.runes > s.size {
			emit()
			for len(window) > 0 && (length > s.overlap || length+p.runes > s.size) {
				length -= window[0].runes
				offset += len(window[0].text)
				window = window[1:]
			}
		}
		window = append(window, p)
		length += p.runes
	}
	if len(window) > 0 {
		emit()
	}
	return chunks
}

// pickSeparator returns the first separator present in text and the finer
// separators after it. "" always matches.
func pickSeparator(text string, seps []string) (string, []string) {
	for i, sep := range seps {
		if sep == "" || strings.Contains(text, sep) {
			return sep, seps[i+1:]
		}
	}
	return "", nil
}

// splitKeep splits text after every occurrence of sep so the pieces
// concatenate back to text. An empty sep splits into characters.
func splitKeep(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
