package graph

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SegmenterOptions holds the thresholds used to split raw text.
type SegmenterOptions struct {
	// LongTextThreshold is the length above which text with too few blank-line
	// separated blocks is regrouped on single newlines.
	LongTextThreshold int
	// MinParagraphLength is the shortest block emitted as its own paragraph.
	MinParagraphLength int
	// MinBlocks is the block count below which long text is regrouped.
	MinBlocks int
}

// DefaultSegmenterOptions returns the standard thresholds.
func DefaultSegmenterOptions() SegmenterOptions {
	return SegmenterOptions{
		LongTextThreshold:  500,
		MinParagraphLength: 50,
		MinBlocks:          3,
	}
}

// Segmenter splits raw text into ordered paragraphs.
type Segmenter struct {
	opts SegmenterOptions
}

func NewSegmenter(opts SegmenterOptions) *Segmenter {
	defaults := DefaultSegmenterOptions()
	if opts.LongTextThreshold <= 0 {
		opts.LongTextThreshold = defaults.LongTextThreshold
	}
	if opts.MinParagraphLength <= 0 {
		opts.MinParagraphLength = defaults.MinParagraphLength
	}
	if opts.MinBlocks <= 0 {
		opts.MinBlocks = defaults.MinBlocks
	}
	return &Segmenter{opts: opts}
}

var defaultSegmenter = NewSegmenter(DefaultSegmenterOptions())

// Segment splits raw using the default thresholds.
func Segment(raw string) []Paragraph {
	return defaultSegmenter.Segment(raw)
}

// Segment splits raw into paragraphs. Short blocks are merged into the
// previously emitted paragraph; the first block is always emitted.
func (s *Segmenter) Segment(raw string) []Paragraph {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	blocks := strings.Split(text, "\n\n")
	if len(blocks) < s.opts.MinBlocks && utf8.RuneCountInString(text) > s.opts.LongTextThreshold {
		blocks = groupLines(text)
	}

	paragraphs := make([]Paragraph, 0, len(blocks))
	for _, block := range blocks {
		trimmed := strings.TrimSpace(block)
		if trimmed == "" {
			continue
		}
		normalized := collapseWhitespace(trimmed)

		if utf8.RuneCountInString(trimmed) < s.opts.MinParagraphLength && len(paragraphs) > 0 {
			last := &paragraphs[len(paragraphs)-1]
			last.Text = last.Text + " " + normalized
			continue
		}

		paragraphs = append(paragraphs, newParagraph(len(paragraphs)+1, normalized))
	}

	if len(paragraphs) == 0 {
		if normalized := collapseWhitespace(text); normalized != "" {
			paragraphs = append(paragraphs, newParagraph(1, normalized))
		}
	}

	return paragraphs
}

// groupLines groups consecutive non-blank lines into blocks; a blank line
// closes the current block.
func groupLines(text string) []string {
	var blocks []string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, strings.Join(current, " "))
				current = nil
			}
			continue
		}
		current = append(current, strings.TrimSpace(line))
	}
	if len(current) > 0 {
		blocks = append(blocks, strings.Join(current, " "))
	}
	return blocks
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func newParagraph(n int, text string) Paragraph {
	return Paragraph{
		ID:        fmt.Sprintf("p%d", n),
		Text:      text,
		EntityIDs: []string{},
	}
}
