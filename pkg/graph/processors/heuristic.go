package processors

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/athapong/docgraph-mcp/pkg/graph"
)

// HeuristicExtractor recognizes entities from capitalization and closed word
// lists. It needs no model and is used when the tagger is unavailable.
type HeuristicExtractor struct {
	keywords  *Keywords
	companies []*regexp.Regexp
}

// NewHeuristicExtractor creates a heuristic extractor; nil keywords selects the defaults.
func NewHeuristicExtractor(keywords *Keywords) *HeuristicExtractor {
	if keywords == nil {
		keywords = NewKeywords(DefaultKeywordConfig())
	}
	h := &HeuristicExtractor{keywords: keywords}
	for _, name := range keywords.companies {
		h.companies = append(h.companies, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(name)+`\b`))
	}
	return h
}

// Mode implements graph.Extractor.
func (h *HeuristicExtractor) Mode() graph.ExtractionMode {
	return graph.ModeHeuristic
}

type word struct {
	clean string
	lower string
}

func splitWords(text string) []word {
	fields := strings.Fields(text)
	words := make([]word, 0, len(fields))
	for _, f := range fields {
		clean := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		clean = strings.TrimSuffix(strings.TrimSuffix(clean, "'s"), "’s")
		words = append(words, word{clean: clean, lower: strings.ToLower(clean)})
	}
	return words
}

func isCapitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ExtractEntities implements graph.Extractor.
func (h *HeuristicExtractor) ExtractEntities(p graph.Paragraph, doc *graph.DocumentState) []string {
	var mentions []string
	add := func(label graph.Label, name string, extra map[string]interface{}) {
		mentions = append(mentions, resolveNamed(doc, label, name, extra))
	}

	words := splitWords(p.Text)
	for i, w := range words {
		if w.lower == "" {
			continue
		}
		if h.keywords.IsPerson(w.lower) {
			add(graph.LabelPerson, capitalize(w.clean), nil)
			continue
		}
		if h.looksLikePerson(words, i) {
			add(graph.LabelPerson, w.clean, nil)
		}
	}

	for i, w := range words {
		if w.lower == "" || h.keywords.IsIndicator(w.lower) || !isCapitalized(w.clean) {
			continue
		}
		if i+1 < len(words) && h.keywords.IsIndicator(words[i+1].lower) {
			add(graph.LabelCompany, w.clean, nil)
		}
	}
	for _, re := range h.companies {
		for _, name := range re.FindAllString(p.Text, -1) {
			add(graph.LabelCompany, name, nil)
		}
	}

	lower := strings.ToLower(p.Text)
	for _, term := range h.keywords.locations {
		if name, ok := findTerm(p.Text, lower, term); ok {
			add(graph.LabelLocation, name, nil)
		}
	}
	for _, term := range h.keywords.concepts {
		if _, ok := findTerm(p.Text, lower, term); ok {
			add(graph.LabelConcept, term, map[string]interface{}{"type": "technology"})
		}
	}

	return mentions
}

// looksLikePerson applies the capitalization rule to words[i].
func (h *HeuristicExtractor) looksLikePerson(words []word, i int) bool {
	w := words[i]
	if !isCapitalized(w.clean) || utf8.RuneCountInString(w.clean) <= 3 {
		return false
	}
	if h.keywords.IsStopword(w.lower) || h.keywords.IsIndicator(w.lower) || h.keywords.IsReserved(w.lower) {
		return false
	}
	if i+1 < len(words) && h.keywords.IsIndicator(words[i+1].lower) {
		return false
	}
	return true
}

// findTerm locates term in text by case-insensitive substring match and
// returns the matched text with its original casing.
func findTerm(text, lower, term string) (string, bool) {
	idx := strings.Index(lower, term)
	if idx < 0 {
		return "", false
	}
	if len(lower) == len(text) {
		return text[idx : idx+len(term)], true
	}
	return capitalize(term), true
}

// ExtractRelationships implements graph.Extractor. Heuristic mode only infers
// relationships from co-occurrence.
func (h *HeuristicExtractor) ExtractRelationships(p graph.Paragraph, mentions []string, doc *graph.DocumentState) []graph.Relationship {
	return graph.CoOccurrence(p.ID, mentions, doc.Resolver)
}

func resolveNamed(doc *graph.DocumentState, label graph.Label, name string, extra map[string]interface{}) string {
	key := graph.IdentityKey{Text: strings.ToLower(name), Kind: string(label)}
	id, _ := doc.Resolver.Resolve(key, func(string) graph.Entity {
		metadata := map[string]interface{}{"name": name}
		for k, v := range extra {
			metadata[k] = v
		}
		return graph.Entity{Label: label, Metadata: metadata}
	})
	entityCount.WithLabelValues(string(label)).Inc()
	return id
}
