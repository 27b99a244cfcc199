// Package chunker splits document text into bounded, overlapping retrieval units.
//
// Text is split on paragraph boundaries first. Paragraphs that alone exceed
// the token budget are split further on sentence boundaries. When a chunk is
// emitted, its trailing words seed the next chunk so that context carries over.
package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenEstimator returns an estimated token count for text.
type TokenEstimator func(text string) int

// EstimateTokens approximates tokens as one per four characters, rounded up.
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// wordsPerOverlapToken converts an overlap token budget into a word count.
const wordsPerOverlapToken = 1.5

var (
	blankLines = regexp.MustCompile(`\n{3,}`)
	paragraphs = regexp.MustCompile(`\n\n+`)
	sentences  = regexp.MustCompile(`[^.!?]+[.!?]+`)
)

// Piece is one emitted chunk of text.
type Piece struct {
	// Content is the chunk text, trimmed.
	Content string

	// TokenCount is the running estimate the budget was checked against.
	TokenCount int
}

// Chunker splits text using a token estimator.
// It holds no mutable state and is safe for concurrent use.
type Chunker struct {
	estimate TokenEstimator
}

// Option configures the chunker.
type Option func(*Chunker)

// WithEstimator substitutes the token estimator, e.g. a real tokenizer.
func WithEstimator(fn TokenEstimator) Option {
	return func(c *Chunker) {
		if fn != nil {
			c.estimate = fn
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{estimate: EstimateTokens}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Normalize unifies line endings, collapses runs of blank lines and trims.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Chunk splits text into pieces of at most maxTokens estimated tokens.
// overlapTokens controls how many trailing words of an emitted piece are
// repeated at the start of the next one. overlapTokens >= maxTokens is
// accepted and may produce degenerate overlap.
func (c *Chunker) Chunk(text string, maxTokens, overlapTokens int) []Piece {
	b := &builder{
		estimate:     c.estimate,
		maxTokens:    maxTokens,
		overlapWords: int(float64(overlapTokens) / wordsPerOverlapToken),
	}

	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	for _, para := range paragraphs.Split(normalized, -1) {
		if strings.TrimSpace(para) == "" {
			continue
		}
		paraTokens := c.estimate(para)

		if paraTokens > maxTokens {
			b.flush()
			for _, sentence := range splitSentences(para) {
				b.add(sentence, c.estimate(sentence), "")
			}
			continue
		}

		b.add(para, paraTokens, "\n\n")
	}

	b.flush()
	return b.pieces
}

// splitSentences cuts a paragraph after each run of terminators.
// Text between or after matches is kept so no characters are lost.
func splitSentences(para string) []string {
	bounds := sentences.FindAllStringIndex(para, -1)
	if len(bounds) == 0 {
		return []string{para}
	}

	out := make([]string, 0, len(bounds)+1)
	start := 0
	for _, b := range bounds {
		out = append(out, para[start:b[1]])
		start = b[1]
	}
	if tail := para[start:]; strings.TrimSpace(tail) != "" {
		out = append(out, tail)
	} else if len(out) > 0 {
		out[len(out)-1] += tail
	}
	return out
}

// builder accumulates units into the running chunk.
type builder struct {
	estimate     TokenEstimator
	maxTokens    int
	overlapWords int

	current strings.Builder
	tokens  int
	pieces  []Piece
}

// add appends a unit, emitting the running chunk first when the unit would
// push it over budget. sep joins the unit to non-empty running content.
func (b *builder) add(unit string, unitTokens int, sep string) {
	if b.current.Len() > 0 && b.tokens+unitTokens > b.maxTokens {
		emitted := b.emit()
		seed := trailingWords(emitted, b.overlapWords)
		b.reset()
		if seed != "" {
			b.current.WriteString(seed)
			b.tokens = b.estimate(seed)
			if sep == "" {
				sep = " "
				unit = strings.TrimLeftFunc(unit, unicode.IsSpace)
			}
			b.current.WriteString(sep)
		}
		b.current.WriteString(unit)
		b.tokens += unitTokens
		return
	}

	if b.current.Len() > 0 {
		b.current.WriteString(sep)
	}
	b.current.WriteString(unit)
	b.tokens += unitTokens
}

// flush emits the running chunk, if any, without carrying overlap.
func (b *builder) flush() {
	b.emit()
	b.reset()
}

func (b *builder) emit() string {
	content := strings.TrimSpace(b.current.String())
	if content == "" {
		return ""
	}
	b.pieces = append(b.pieces, Piece{Content: content, TokenCount: b.tokens})
	return content
}

func (b *builder) reset() {
	b.current.Reset()
	b.tokens = 0
}

// trailingWords returns the suffix of s that starts at its n-th last
// whitespace-delimited word, with the original spacing kept.
func trailingWords(s string, n int) string {
	if n <= 0 {
		return ""
	}
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	start := len(s)
	for i := 0; i < n && start > 0; i++ {
		wordEnd := strings.LastIndexFunc(s[:start], isNotSpace)
		if wordEnd < 0 {
			break
		}
		gap := strings.LastIndexFunc(s[:wordEnd], unicode.IsSpace)
		if gap < 0 {
			start = 0
			break
		}
		_, size := utf8.DecodeRuneInString(s[gap:])
		start = gap + size
	}
	return s[start:]
}

func isNotSpace(r rune) bool { return !unicode.IsSpace(r) }
