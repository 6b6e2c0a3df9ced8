package processors

import (
	"strings"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jdkato/prose/v2"
	"github.com/pkg/errors"
)

const warmupText = "Alice Johnson works at Acme Corporation in London."

var auxiliaries = mapset.NewSet(
	"am", "is", "are", "was", "were", "be", "been", "being",
	"has", "have", "had", "do", "does", "did",
	"will", "would", "shall", "should", "can", "could", "may", "might", "must",
)

// ProseTagger tags paragraphs with prose and derives a shallow dependency
// structure from the part-of-speech sequence.
type ProseTagger struct{}

// NewProseTagger loads the prose models by analyzing a warm-up sentence.
func NewProseTagger() (*ProseTagger, error) {
	t := &ProseTagger{}
	if _, err := t.Analyze(warmupText); err != nil {
		return nil, errors.Wrap(err, "loading prose models")
	}
	return t, nil
}

// Analyze tags text. A panic inside prose is returned as an error.
func (t *ProseTagger) Analyze(text string) (analysis *Analysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			analysis, err = nil, errors.Errorf("prose panic: %v", r)
		}
	}()

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, errors.Wrap(err, "tagging text")
	}

	ptoks := doc.Tokens()
	tokens := make([]Token, len(ptoks))
	labels := make([]string, len(ptoks))
	for i, tok := range ptoks {
		tokens[i] = Token{Text: tok.Text, Tag: tok.Tag}
		labels[i] = tok.Label
	}
	return buildAnalysis(text, tokens, labels), nil
}

// buildAnalysis locates tokens in text, attaches dependencies and groups the
// entity labels into spans.
func buildAnalysis(text string, tokens []Token, labels []string) *Analysis {
	locateTokens(text, tokens)
	attachDependencies(tokens)
	return &Analysis{Tokens: tokens, Spans: chunkSpans(text, tokens, labels)}
}

// locateTokens sets rune offsets by scanning text left to right. Tokens the
// tokenizer rewrote keep -1 offsets.
func locateTokens(text string, tokens []Token) {
	cursor := 0
	for i := range tokens {
		tokens[i].Start, tokens[i].End = -1, -1
		if tokens[i].Text == "" {
			continue
		}
		if idx := strings.Index(text[cursor:], tokens[i].Text); idx >= 0 {
			start := cursor + idx
			tokens[i].Start = utf8.RuneCountInString(text[:start])
			tokens[i].End = tokens[i].Start + utf8.RuneCountInString(tokens[i].Text)
			cursor = start + len(tokens[i].Text)
		}
	}
}

// Describe implements Tagger.
func (t *ProseTagger) Describe(label string) string {
	return DescribeLabel(label)
}

// entityKind returns X for a B-X or I-X label and "" for O.
func entityKind(label string) string {
	prefix, kind, ok := strings.Cut(label, "-")
	if !ok || (prefix != "B" && prefix != "I") {
		return ""
	}
	return kind
}

// chunkSpans groups labelled tokens into entity spans the way prose chunks its
// own entities. prose marks every word of a multi-word name B-X, so a span
// runs over further tokens of the same kind whatever their prefix, over
// unlabelled tokens carrying the same POS tag as the previous one ("Acme
// Corporation"), and over a number following a labelled token. A token of a
// different kind starts a new span.
func chunkSpans(text string, tokens []Token, labels []string) []Span {
	runes := []rune(text)
	var spans []Span
	var current *Span

	flush := func() {
		if current == nil {
			return
		}
		first, last := tokens[current.First], tokens[current.Last-1]
		current.Start, current.End = first.Start, last.End
		if current.Start >= 0 && current.End >= current.Start && current.End <= len(runes) {
			current.Text = string(runes[current.Start:current.End])
		} else {
			parts := make([]string, 0, current.Last-current.First)
			for _, tok := range tokens[current.First:current.Last] {
				parts = append(parts, tok.Text)
			}
			current.Text = strings.Join(parts, " ")
		}
		spans = append(spans, *current)
		current = nil
	}

	for i, label := range labels {
		kind := entityKind(label)
		if current != nil {
			prev := current.Last - 1
			switch {
			case kind == current.Label,
				kind == "" && tokens[i].Tag == tokens[prev].Tag,
				kind == "" && tokens[i].Tag == "CD" && entityKind(labels[prev]) != "":
				current.Last = i + 1
				continue
			}
			flush()
		}
		if kind != "" {
			current = &Span{Label: kind, First: i, Last: i + 1}
		}
	}
	flush()

	return spans
}

func isVerbTag(tag string) bool {
	return strings.HasPrefix(tag, "VB") || tag == "MD"
}

func isNominalTag(tag string) bool {
	return strings.HasPrefix(tag, "NN") || tag == "PRP"
}

func isModifierTag(tag string) bool {
	switch tag {
	case "DT", "PDT", "PRP$", "POS", "CD":
		return true
	}
	return strings.HasPrefix(tag, "JJ")
}

func isAdverbTag(tag string) bool {
	return strings.HasPrefix(tag, "RB")
}

func isPrepTag(tag string) bool {
	return tag == "IN" || tag == "TO"
}

func isClauseBreak(tok Token) bool {
	switch tok.Tag {
	case ".", ",", ":", "CC", "WDT", "WP", "WRB":
		return true
	}
	return tok.Text == ";"
}

// attachDependencies fills Dep and Head for subjects, auxiliaries, direct
// objects and prepositional objects around each main verb.
func attachDependencies(tokens []Token) {
	for i := range tokens {
		tokens[i].Dep = ""
		tokens[i].Head = -1
	}

	var verbs, pending []int
	for i, tok := range tokens {
		if !isVerbTag(tok.Tag) {
			if isClauseBreak(tok) {
				pending = nil
			}
			continue
		}
		if tok.Tag == "MD" || auxiliaries.Contains(strings.ToLower(tok.Text)) {
			if next := nextNonAdverb(tokens, i+1); next >= 0 && isVerbTag(tokens[next].Tag) {
				pending = append(pending, i)
				continue
			}
		}
		for _, a := range pending {
			tokens[a].Dep = DepAux
			tokens[a].Head = i
		}
		pending = nil
		verbs = append(verbs, i)
	}

	for _, v := range verbs {
		attachSubject(tokens, v)
		attachObjects(tokens, v)
	}
}

func nextNonAdverb(tokens []Token, from int) int {
	for j := from; j < len(tokens); j++ {
		if !isAdverbTag(tokens[j].Tag) {
			return j
		}
	}
	return -1
}

func attachSubject(tokens []Token, verb int) {
	j := verb - 1
	for j >= 0 && ((tokens[j].Dep == DepAux && tokens[j].Head == verb) || isAdverbTag(tokens[j].Tag)) {
		j--
	}
	for ; j >= 0; j-- {
		tok := tokens[j]
		if tok.Dep != "" || isVerbTag(tok.Tag) || isClauseBreak(tok) || isPrepTag(tok.Tag) {
			return
		}
		switch {
		case isNominalTag(tok.Tag):
			tokens[j].Dep = DepSubject
			tokens[j].Head = verb
		case isModifierTag(tok.Tag):
		default:
			return
		}
	}
}

func attachObjects(tokens []Token, verb int) {
	prep := -1
	for j := verb + 1; j < len(tokens); j++ {
		tok := tokens[j]
		if tok.Dep != "" || isVerbTag(tok.Tag) || isClauseBreak(tok) {
			return
		}
		switch {
		case isPrepTag(tok.Tag):
			tokens[j].Dep = DepPrep
			tokens[j].Head = verb
			prep = j
		case isNominalTag(tok.Tag):
			if prep >= 0 {
				tokens[j].Dep = DepPrepObject
				tokens[j].Head = prep
			} else {
				tokens[j].Dep = DepObject
				tokens[j].Head = verb
			}
		case isModifierTag(tok.Tag), isAdverbTag(tok.Tag):
		default:
			return
		}
	}
}
