package indexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ziadkadry99/docchat/internal/loader"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultSeparator    = "\n"
)

// Splitter cuts loaded text into overlapping chunks of bounded length.
// Lengths are counted in runes.
type Splitter struct {
	size      int
	overlap   int
	separator string
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter)

// WithChunkSize sets the maximum chunk length.
func WithChunkSize(n int) SplitterOption {
	return func(s *Splitter) {
		if n > 0 {
			s.size = n
		}
	}
}

// WithChunkOverlap sets how many trailing runes of a chunk may be repeated
// at the start of the next.
func WithChunkOverlap(n int) SplitterOption {
	return func(s *Splitter) {
		if n >= 0 {
			s.overlap = n
		}
	}
}

// WithSeparator sets the boundary text is split on.
func WithSeparator(sep string) SplitterOption {
	return func(s *Splitter) {
		s.separator = sep
	}
}

// NewSplitter returns a Splitter with defaults of 1000 runes, 200 runes of
// overlap and a newline separator. An overlap not smaller than the chunk
// size is reduced to a quarter of it.
func NewSplitter(opts ...SplitterOption) *Splitter {
	s := &Splitter{
		size:      DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		separator: DefaultSeparator,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.size {
		s.overlap = s.size / 4
	}
	return s
}

// ChunkSize returns the configured maximum chunk length.
func (s *Splitter) ChunkSize() int { return s.size }

// Overlap returns the effective overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// piece is a split of the joined text with its rune range.
type piece struct {
	text       string
	start, end int
	length     int
}

// Split joins the units with the separator and cuts the result into chunks.
// Each chunk takes its metadata from the unit its first rune belongs to.
func (s *Splitter) Split(units []loader.Unit) []Chunk {
	text := loader.Text(units, s.separator)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pieces := s.pieces(text)
	merged := s.merge(pieces)

	bounds := unitBounds(units, s.separator)
	chunks := make([]Chunk, 0, len(merged))
	for _, c := range merged {
		c.Position = len(chunks)
		c.Metadata = metadataAt(units, bounds, c.Start)
		chunks = append(chunks, c)
	}
	return chunks
}

// pieces splits text on the separator, drops empty splits and cuts splits
// longer than the chunk size into windows stepping by size minus overlap.
func (s *Splitter) pieces(text string) []piece {
	var raw []string
	if s.separator == "" {
		raw = strings.Split(text, "")
	} else {
		raw = strings.Split(text, s.separator)
	}
	sepLen := utf8.RuneCountInString(s.separator)

	var out []piece
	offset := 0
	for _, r := range raw {
		n := utf8.RuneCountInString(r)
		if n == 0 {
			offset += sepLen
			continue
		}
		if n <= s.size {
			out = append(out, piece{text: r, start: offset, end: offset + n, length: n})
		} else {
			out = append(out, s.windows(r, offset)...)
		}
		offset += n + sepLen
	}
	return out
}

func (s *Splitter) windows(text string, offset int) []piece {
	runes := []rune(text)
	step := s.size - s.overlap
	var out []piece
	for i := 0; ; i += step {
		end := min(i+s.size, len(runes))
		out = append(out, piece{
			text:   string(runes[i:end]),
			start:  offset + i,
			end:    offset + end,
			length: end - i,
		})
		if end == len(runes) {
			return out
		}
	}
}

// merge greedily packs pieces into chunks no longer than the chunk size.
// When a chunk is emitted its leading pieces are dropped until at most
// overlap runes remain and the next piece fits.
func (s *Splitter) merge(pieces []piece) []Chunk {
	sepLen := utf8.RuneCountInString(s.separator)
	var (
		chunks  []Chunk
		current []piece
		total   int
	)

	joinLen := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, p := range pieces {
		if total+p.length+joinLen() > s.size {
			if len(current) > 0 {
				if c, ok := s.emit(current); ok {
					chunks = append(chunks, c)
				}
				for total > s.overlap || (total > 0 && total+p.length+joinLen() > s.size) {
					total -= current[0].length
					if len(current) > 1 {
						total -= sepLen
					}
					current = current[1:]
				}
			}
		}
		total += p.length + joinLen()
		current = append(current, p)
	}
	if c, ok := s.emit(current); ok {
		chunks = append(chunks, c)
	}
	return chunks
}

func (s *Splitter) emit(current []piece) (Chunk, bool) {
	if len(current) == 0 {
		return Chunk{}, false
	}
	parts := make([]string, len(current))
	for i, p := range current {
		parts[i] = p.text
	}
	joined := strings.Join(parts, s.separator)
	left := strings.TrimLeftFunc(joined, unicode.IsSpace)
	content := strings.TrimRightFunc(left, unicode.IsSpace)
	if content == "" {
		return Chunk{}, false
	}
	// Keep the range on the trimmed content.
	lead := utf8.RuneCountInString(joined) - utf8.RuneCountInString(left)
	trail := utf8.RuneCountInString(left) - utf8.RuneCountInString(content)
	return Chunk{
		Content: content,
		Start:   current[0].start + lead,
		End:     current[len(current)-1].end - trail,
	}, true
}

// unitBounds returns the rune offset at which each unit starts in the
// joined text.
func unitBounds(units []loader.Unit, sep string) []int {
	sepLen := utf8.RuneCountInString(sep)
	bounds := make([]int, len(units))
	offset := 0
	for i, u := range units {
		bounds[i] = offset
		offset += utf8.RuneCountInString(u.Content) + sepLen
	}
	return bounds
}

func metadataAt(units []loader.Unit, bounds []int, pos int) map[string]string {
	idx := 0
	for i, b := range bounds {
		if b > pos {
			break
		}
		idx = i
	}
	md := make(map[string]string, len(units[idx].Metadata))
	for k, v := range units[idx].Metadata {
		md[k] = v
	}
	return md
}
