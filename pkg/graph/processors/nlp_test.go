package processors

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tagged is a token written as text/TAG or text/TAG/IOB.
type tagged string

func (t tagged) split() (Token, string) {
	parts := strings.Split(string(t), "/")
	label := "O"
	if len(parts) == 3 {
		label = parts[2]
	}
	return Token{Text: parts[0], Tag: parts[1]}, label
}

// fakeTagger returns canned analyses keyed by paragraph text.
type fakeTagger struct {
	sentences map[string][]tagged
	fail      map[string]bool
}

func (f fakeTagger) Analyze(text string) (*Analysis, error) {
	if f.fail[text] {
		return nil, errors.New("tagger exploded")
	}
	toks := f.sentences[text]
	tokens := make([]Token, len(toks))
	labels := make([]string, len(toks))
	for i, t := range toks {
		tokens[i], labels[i] = t.split()
	}
	return buildAnalysis(text, tokens, labels), nil
}

func (f fakeTagger) Describe(label string) string { return DescribeLabel(label) }

func quiet() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

const (
	worksAt   = "Alice Smith works at Acme in London."
	basedIn   = "Bob is based in Paris."
	visited   = "Alice Smith visited Acme."
	companies = "Acme acquired Globex."
)

// corpus uses prose's labelling: every word of a name is B-X.
var corpus = map[string][]tagged{
	worksAt: {"Alice/NNP/B-PERSON", "Smith/NNP/B-PERSON", "works/VBZ", "at/IN", "Acme/NNP/B-ORGANIZATION",
		"in/IN", "London/NNP/B-GPE", "./."},
	basedIn:   {"Bob/NNP/B-PERSON", "is/VBZ", "based/VBN", "in/IN", "Paris/NNP/B-GPE", "./."},
	visited:   {"Alice/NNP/B-PERSON", "Smith/NNP/B-PERSON", "visited/VBD", "Acme/NNP/B-ORGANIZATION", "./."},
	companies: {"Acme/NNP/B-ORGANIZATION", "acquired/VBD", "Globex/NNP/B-ORGANIZATION", "./."},
}

func TestAttachDependencies(t *testing.T) {
	analysis, err := fakeTagger{sentences: corpus}.Analyze(basedIn)
	require.NoError(t, err)

	deps := make([]string, len(analysis.Tokens))
	heads := make([]int, len(analysis.Tokens))
	for i, tok := range analysis.Tokens {
		deps[i], heads[i] = tok.Dep, tok.Head
	}
	assert.Equal(t, []string{DepSubject, DepAux, "", DepPrep, DepPrepObject, ""}, deps)
	assert.Equal(t, []int{2, 2, -1, 2, 3, -1}, heads)
	assert.Equal(t, []int{0, 1, 3}, analysis.Children(2))
}

func TestAttachDependenciesDirectObject(t *testing.T) {
	analysis, err := fakeTagger{sentences: corpus}.Analyze(visited)
	require.NoError(t, err)

	assert.Equal(t, DepSubject, analysis.Tokens[0].Dep)
	assert.Equal(t, DepSubject, analysis.Tokens[1].Dep)
	assert.Equal(t, DepObject, analysis.Tokens[3].Dep)
	assert.Equal(t, 2, analysis.Tokens[3].Head)
}

func TestChunkSpans(t *testing.T) {
	analysis, err := fakeTagger{sentences: corpus}.Analyze(worksAt)
	require.NoError(t, err)
	require.Len(t, analysis.Spans, 3)

	assert.Equal(t, Span{Text: "Alice Smith", Label: "PERSON", First: 0, Last: 2, Start: 0, End: 11}, analysis.Spans[0])
	assert.Equal(t, "Acme", analysis.Spans[1].Text)
	assert.Equal(t, "ORGANIZATION", analysis.Spans[1].Label)
	assert.Equal(t, "London", analysis.Spans[2].Text)

	span, ok := analysis.SpanCovering(1)
	require.True(t, ok)
	assert.Equal(t, "PERSON", span.Label)
	_, ok = analysis.SpanCovering(2)
	assert.False(t, ok)
}

func TestChunkSpansGrouping(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		tokens []tagged
		want   []string
	}{
		{
			name:   "I- continuation",
			text:   "Mary Ann Lee called.",
			tokens: []tagged{"Mary/NNP/B-PERSON", "Ann/NNP/I-PERSON", "Lee/NNP/I-PERSON", "called/VBD", "./."},
			want:   []string{"PERSON:Mary Ann Lee"},
		},
		{
			name:   "unlabelled proper noun joins the name",
			text:   "She joined Acme Corporation today.",
			tokens: []tagged{"She/PRP", "joined/VBD", "Acme/NNP/B-FACILITY", "Corporation/NNP", "today/NN", "./."},
			want:   []string{"FACILITY:Acme Corporation"},
		},
		{
			name:   "number after a name",
			text:   "Apollo 11 landed.",
			tokens: []tagged{"Apollo/NNP/B-ORGANIZATION", "11/CD", "landed/VBD", "./."},
			want:   []string{"ORGANIZATION:Apollo 11"},
		},
		{
			name:   "different kinds split",
			text:   "Alice Paris",
			tokens: []tagged{"Alice/NNP/B-PERSON", "Paris/NNP/B-GPE"},
			want:   []string{"PERSON:Alice", "GPE:Paris"},
		},
		{
			name:   "separated names stay apart",
			text:   "Alice and Bob",
			tokens: []tagged{"Alice/NNP/B-PERSON", "and/CC", "Bob/NNP/B-PERSON"},
			want:   []string{"PERSON:Alice", "PERSON:Bob"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := fakeTagger{sentences: map[string][]tagged{tt.text: tt.tokens}}.Analyze(tt.text)
			require.NoError(t, err)

			var got []string
			for _, span := range analysis.Spans {
				got = append(got, span.Label+":"+span.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func runModel(t *testing.T, tagger Tagger, text string) *graph.Document {
	t.Helper()
	extractor := NewModelExtractor(tagger, nil, quiet())
	return graph.NewPipeline(extractor, graph.WithLogger(quiet())).Run(text, graph.Source{Name: "test"})
}

func entityByName(t *testing.T, doc *graph.Document, name string) graph.Entity {
	t.Helper()
	for _, e := range doc.Entities {
		if e.Name() == name {
			return e
		}
	}
	require.Failf(t, "entity not found", "no entity named %q", name)
	return graph.Entity{}
}

func TestModelExtractorEntities(t *testing.T) {
	doc := runModel(t, fakeTagger{sentences: corpus}, worksAt)
	require.Len(t, doc.Entities, 3)

	alice := entityByName(t, doc, "Alice Smith")
	assert.Equal(t, graph.LabelPerson, alice.Label)
	assert.Equal(t, "PERSON", alice.Metadata["native_label"])
	assert.Equal(t, "People, including fictional", alice.Metadata["native_label_desc"])
	assert.Equal(t, 0, alice.Metadata["start_char"])
	assert.Equal(t, 11, alice.Metadata["end_char"])

	acme := entityByName(t, doc, "Acme")
	assert.Equal(t, graph.LabelCompany, acme.Label)
	assert.Equal(t, "ORGANIZATION", acme.Metadata["native_label"])
	assert.Equal(t, graph.LabelLocation, entityByName(t, doc, "London").Label)
}

func TestModelExtractorPatternBeatsCoOccurrence(t *testing.T) {
	doc := runModel(t, fakeTagger{sentences: corpus}, worksAt)
	alice := entityByName(t, doc, "Alice Smith")
	acme := entityByName(t, doc, "Acme")
	london := entityByName(t, doc, "London")

	require.Len(t, doc.Relationships, 2)
	assert.Equal(t, graph.Relationship{
		Start: alice.ID, End: acme.ID, Type: graph.RelationWorksAt,
		Metadata: map[string]interface{}{"source": "p1", "verb": "works", "confidence": "medium"},
	}, doc.Relationships[0])
	assert.Equal(t, acme.ID, doc.Relationships[1].Start)
	assert.Equal(t, london.ID, doc.Relationships[1].End)
	assert.Equal(t, graph.RelationLocatedIn, doc.Relationships[1].Type)
	assert.Equal(t, "co_occurrence", doc.Relationships[1].Metadata["method"])
}

func TestModelExtractorVerbClassification(t *testing.T) {
	tests := []struct {
		name string
		text string
		want graph.RelationType
		verb string
	}{
		{name: "auxiliary is skipped", text: basedIn, want: graph.RelationLocatedIn, verb: "based"},
		{name: "unknown verb", text: visited, want: graph.RelationRelatedTo, verb: "visited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := runModel(t, fakeTagger{sentences: corpus}, tt.text)

			var found bool
			for _, rel := range doc.Relationships {
				if rel.Metadata["verb"] == tt.verb {
					found = true
					assert.Equal(t, tt.want, rel.Type)
					assert.Equal(t, "medium", rel.Metadata["confidence"])
				}
			}
			assert.True(t, found, "pattern relationship for %q", tt.verb)
		})
	}
}

func TestModelExtractorRequiresPersonSubject(t *testing.T) {
	doc := runModel(t, fakeTagger{sentences: corpus}, companies)

	assert.Len(t, doc.Entities, 2)
	assert.Empty(t, doc.Relationships)
}

func TestModelExtractorSameEntityAcrossParagraphs(t *testing.T) {
	first := worksAt + " She has worked there for years."
	second := visited + " It was a long trip across the city."
	sentences := map[string][]tagged{
		first:  corpus[worksAt],
		second: corpus[visited],
	}
	text := first + "\n\n" + second

	doc := runModel(t, fakeTagger{sentences: sentences}, text)
	require.Len(t, doc.Paragraphs, 2)

	alice := entityByName(t, doc, "Alice Smith")
	assert.Contains(t, doc.Paragraphs[0].EntityIDs, alice.ID)
	assert.Contains(t, doc.Paragraphs[1].EntityIDs, alice.ID)
	assert.Len(t, doc.Entities, 3)
}

func TestModelExtractorTaggerFailure(t *testing.T) {
	tagger := fakeTagger{sentences: corpus, fail: map[string]bool{worksAt: true}}

	doc := runModel(t, tagger, worksAt)
	require.Len(t, doc.Paragraphs, 1)
	assert.Empty(t, doc.Paragraphs[0].EntityIDs)
	assert.Empty(t, doc.Entities)
	assert.Empty(t, doc.Relationships)
}

func TestModelExtractorDropsShortSpans(t *testing.T) {
	text := "X joined Acme."
	tagger := fakeTagger{sentences: map[string][]tagged{
		text: {"X/NNP/B-PERSON", "joined/VBD", "Acme/NNP/B-ORG", "./."},
	}}

	doc := runModel(t, tagger, text)
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, "Acme", doc.Entities[0].Name())
}

type panicTagger struct{}

func (panicTagger) Analyze(string) (*Analysis, error) { panic("boom") }
func (panicTagger) Describe(label string) string      { return label }

func TestModelExtractorRecoversTaggerPanic(t *testing.T) {
	var doc *graph.Document
	require.NotPanics(t, func() {
		doc = runModel(t, panicTagger{}, worksAt+"\n\n"+visited+" It was a long trip across the city.")
	})

	require.Len(t, doc.Paragraphs, 2)
	for _, p := range doc.Paragraphs {
		assert.Empty(t, p.EntityIDs)
	}
	assert.Empty(t, doc.Entities)
	assert.Empty(t, doc.Relationships)
}
