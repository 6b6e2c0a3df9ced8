package processors

import (
	"github.com/pkg/errors"
)

// ErrNoTagger is returned when model mode is requested without a usable tagger.
var ErrNoTagger = errors.New("no tagger available")

// Dependency roles produced by a tagger.
const (
	DepSubject    = "nsubj"
	DepAux        = "aux"
	DepObject     = "dobj"
	DepPrep       = "prep"
	DepPrepObject = "pobj"
)

// Token is one tagged token of an analyzed text.
type Token struct {
	Text string
	Tag  string // Penn Treebank part of speech
	Dep  string // dependency role, empty when unattached
	Head int    // index of the head token, -1 for none
	// Start and End are rune offsets into the analyzed text, -1 when unknown.
	Start int
	End   int
}

// Span is a named-entity span over tokens [First, Last).
type Span struct {
	Text  string
	Label string // native tagger label, e.g. PERSON or GPE
	First int
	Last  int
	Start int
	End   int
}

// Analysis is the tagger output for one paragraph.
type Analysis struct {
	Tokens []Token
	Spans  []Span
}

// Children returns the indexes of the tokens headed by token i.
func (a *Analysis) Children(i int) []int {
	var out []int
	for j, tok := range a.Tokens {
		if j != i && tok.Head == i {
			out = append(out, j)
		}
	}
	return out
}

// SpanCovering returns the first span that contains token i.
func (a *Analysis) SpanCovering(i int) (Span, bool) {
	for _, s := range a.Spans {
		if i >= s.First && i < s.Last {
			return s, true
		}
	}
	return Span{}, false
}

// Tagger performs named-entity recognition, tagging and a dependency parse.
type Tagger interface {
	Analyze(text string) (*Analysis, error)
	// Describe returns a human readable description of a native label.
	Describe(label string) string
}
