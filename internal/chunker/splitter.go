// Package chunker provides overlapping fixed-size text splitting.
package chunker

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// Splitter splits document text into overlapping chunks. It prefers
// breaking at paragraph, sentence and word boundaries, but always
// guarantees no chunk exceeds the configured size.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a new splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't exceed chunk size
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// ChunkSize returns the configured chunk size.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split splits text into ordered overlapping chunks. Empty input yields
// no chunks; any non-empty input yields at least one. Each chunk after
// the first starts exactly overlap characters before the previous
// chunk's end, so concatenating the first chunk with every later
// chunk's tail beyond the overlap reconstructs the input.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)

	if total <= s.chunkSize {
		return []string{text}
	}

	estimated := (total / (s.chunkSize - s.overlap)) + 1
	chunks := make([]string, 0, estimated)

	start := 0
	for start < total {
		end := start + s.chunkSize
		if end >= total {
			chunks = append(chunks, string(runes[start:total]))
			break
		}

		end = breakpoint(runes, start, end)
		chunks = append(chunks, string(runes[start:end]))

		next := end - s.overlap
		if next <= start {
			// Overlap would stall progress on a very short chunk.
			next = end
		}
		start = next
	}

	return chunks
}

// breakpoint moves end back to the nearest natural boundary, trying
// paragraph, then sentence, then word breaks. A boundary is only used
// when it keeps the chunk at least half full, otherwise the hard cut
// stands.
func breakpoint(runes []rune, start, end int) int {
	min := start + (end-start)/2

	if i := lastParagraphBreak(runes, min, end); i > 0 {
		return i
	}
	if i := lastSentenceBreak(runes, min, end); i > 0 {
		return i
	}
	if i := lastWordBreak(runes, min, end); i > 0 {
		return i
	}
	return end
}

// lastParagraphBreak finds the position just after the last "\n\n"
// in runes[min:end], or 0 if none.
func lastParagraphBreak(runes []rune, min, end int) int {
	for i := end - 1; i > min; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	return 0
}

// lastSentenceBreak finds the position just after the last sentence
// terminator followed by whitespace in runes[min:end], or 0 if none.
func lastSentenceBreak(runes []rune, min, end int) int {
	for i := end - 1; i > min; i-- {
		if !isSpace(runes[i]) {
			continue
		}
		switch runes[i-1] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	return 0
}

// lastWordBreak finds the position just after the last whitespace rune
// in runes[min:end], or 0 if none.
func lastWordBreak(runes []rune, min, end int) int {
	for i := end - 1; i > min; i-- {
		if isSpace(runes[i]) {
			return i + 1
		}
	}
	return 0
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
