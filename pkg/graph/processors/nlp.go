package processors

import (
	"strings"
	"unicode/utf8"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/athapong/docgraph-mcp/pkg/graph/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	processingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "nlp_processing_duration_seconds",
			Help: "Time spent tagging paragraphs",
		},
		[]string{"processor_type"},
	)

	entityCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlp_entities_extracted_total",
			Help: "Number of entity mentions extracted",
		},
		[]string{"entity_type"},
	)
)

func init() {
	prometheus.MustRegister(processingDuration)
	prometheus.MustRegister(entityCount)
}

// ModelExtractor extracts entities and relationships with a statistical tagger.
type ModelExtractor struct {
	tagger Tagger
	verbs  VerbRelations
	logger *logrus.Logger
}

// NewModelExtractor creates a model-mode extractor around tagger
func NewModelExtractor(tagger Tagger, verbs VerbRelations, logger *logrus.Logger) *ModelExtractor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if len(verbs) == 0 {
		verbs = DefaultVerbRelations()
	}
	return &ModelExtractor{tagger: tagger, verbs: verbs, logger: logger}
}

// Mode implements graph.Extractor.
func (m *ModelExtractor) Mode() graph.ExtractionMode {
	return graph.ModeModel
}

// analyze tags the paragraph once per document state. A failing or panicking
// tagger leaves the paragraph without an analysis.
func (m *ModelExtractor) analyze(p graph.Paragraph, doc *graph.DocumentState) (analysis *Analysis) {
	if v, ok := doc.Stashed(p.ID); ok {
		analysis, _ = v.(*Analysis)
		return analysis
	}

	defer func() {
		if r := recover(); r != nil {
			metrics.TaggerFailures.WithLabelValues("panic").Inc()
			m.logger.WithFields(logrus.Fields{
				"paragraph": p.ID,
				"panic":     r,
			}).Warn("Tagger panicked on paragraph")
			analysis = nil
			doc.Stash(p.ID, analysis)
		}
	}()

	timer := prometheus.NewTimer(processingDuration.WithLabelValues("prose"))
	analysis, err := m.tagger.Analyze(p.Text)
	timer.ObserveDuration()

	if err != nil {
		metrics.TaggerFailures.WithLabelValues("analyze").Inc()
		m.logger.WithError(err).WithField("paragraph", p.ID).Warn("Tagger failed on paragraph")
		analysis = nil
	}
	doc.Stash(p.ID, analysis)
	return analysis
}

// ExtractEntities resolves every tagged span of the paragraph. Spans shorter
// than two characters are ignored.
func (m *ModelExtractor) ExtractEntities(p graph.Paragraph, doc *graph.DocumentState) []string {
	analysis := m.analyze(p, doc)
	if analysis == nil {
		return nil
	}

	mentions := make([]string, 0, len(analysis.Spans))
	for _, span := range analysis.Spans {
		name := strings.TrimSpace(span.Text)
		if utf8.RuneCountInString(name) < 2 {
			continue
		}

		category := CategoryFor(span.Label)
		id, _ := doc.Resolver.Resolve(spanKey(span), func(string) graph.Entity {
			return graph.Entity{
				Label: category,
				Metadata: map[string]interface{}{
					"name":              name,
					"native_label":      span.Label,
					"native_label_desc": m.tagger.Describe(span.Label),
					"start_char":        span.Start,
					"end_char":          span.End,
				},
			}
		})
		entityCount.WithLabelValues(string(category)).Inc()
		mentions = append(mentions, id)
	}
	return mentions
}

// ExtractRelationships applies the subject-verb-object pattern and then
// co-occurrence.
func (m *ModelExtractor) ExtractRelationships(p graph.Paragraph, mentions []string, doc *graph.DocumentState) []graph.Relationship {
	var rels []graph.Relationship
	if analysis := m.analyze(p, doc); analysis != nil {
		rels = m.patternRelationships(p, analysis, doc.Resolver)
	}
	return append(rels, graph.CoOccurrence(p.ID, mentions, doc.Resolver)...)
}

// patternRelationships finds a Person subject whose verb governs a Company or
// Location object, directly or through a preposition.
func (m *ModelExtractor) patternRelationships(p graph.Paragraph, a *Analysis, resolver *graph.IdentityResolver) []graph.Relationship {
	var rels []graph.Relationship
	for i, tok := range a.Tokens {
		if tok.Dep != DepSubject || tok.Head < 0 || tok.Head >= len(a.Tokens) {
			continue
		}
		verb := a.Tokens[tok.Head]
		if !isVerbTag(verb.Tag) {
			continue
		}

		subject, ok := a.SpanCovering(i)
		if !ok || CategoryFor(subject.Label) != graph.LabelPerson {
			continue
		}
		subjectID, ok := resolver.Lookup(spanKey(subject))
		if !ok {
			continue
		}

		object, ok := objectSpan(a, tok.Head)
		if !ok {
			continue
		}
		objectID, ok := resolver.Lookup(spanKey(object))
		if !ok {
			continue
		}

		rels = append(rels, graph.Relationship{
			Start: subjectID,
			End:   objectID,
			Type:  m.verbs.Classify(verb.Text),
			Metadata: map[string]interface{}{
				"source":     p.ID,
				"verb":       verb.Text,
				"confidence": "medium",
			},
		})
	}
	return rels
}

// objectSpan returns the first Company or Location span among the verb's
// objects and the objects of its prepositions.
func objectSpan(a *Analysis, verb int) (Span, bool) {
	match := func(i int) (Span, bool) {
		span, ok := a.SpanCovering(i)
		if !ok {
			return Span{}, false
		}
		switch CategoryFor(span.Label) {
		case graph.LabelCompany, graph.LabelLocation:
			return span, true
		}
		return Span{}, false
	}

	for _, child := range a.Children(verb) {
		switch a.Tokens[child].Dep {
		case DepObject, DepPrepObject:
			if span, ok := match(child); ok {
				return span, true
			}
		case DepPrep:
			for _, grandchild := range a.Children(child) {
				if a.Tokens[grandchild].Dep != DepPrepObject {
					continue
				}
				if span, ok := match(grandchild); ok {
					return span, true
				}
			}
		}
	}
	return Span{}, false
}

func spanKey(s Span) graph.IdentityKey {
	return graph.IdentityKey{Text: strings.ToLower(strings.TrimSpace(s.Text)), Kind: s.Label}
}
