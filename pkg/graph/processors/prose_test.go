package processors_test

import (
	"io"
	"testing"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/athapong/docgraph-mcp/pkg/graph/processors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const employment = "Alice Johnson works at Acme Corporation in London."

func TestProseTaggerChunksNames(t *testing.T) {
	tagger, err := processors.NewProseTagger()
	require.NoError(t, err)

	analysis, err := tagger.Analyze(employment)
	require.NoError(t, err)

	spans := make(map[string]string)
	for _, span := range analysis.Spans {
		spans[span.Text] = span.Label
	}

	assert.Equal(t, "PERSON", spans["Alice Johnson"])
	assert.NotContains(t, spans, "Alice")
	assert.NotContains(t, spans, "Johnson")

	require.Contains(t, spans, "Acme Corporation")
	assert.Equal(t, graph.LabelLocation, processors.CategoryFor(spans["Acme Corporation"]))
}

func TestModelExtractorWithProse(t *testing.T) {
	tagger, err := processors.NewProseTagger()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	extractor := processors.NewModelExtractor(tagger, nil, logger)
	doc := graph.NewPipeline(extractor, graph.WithLogger(logger)).Run(employment, graph.Source{Name: "memo"})

	byName := make(map[string]graph.Entity)
	for _, e := range doc.Entities {
		byName[e.Name()] = e
	}

	require.Contains(t, byName, "Alice Johnson")
	alice := byName["Alice Johnson"]
	assert.Equal(t, graph.LabelPerson, alice.Label)
	assert.NotContains(t, byName, "Johnson")

	require.Contains(t, byName, "Acme Corporation")
	acme := byName["Acme Corporation"]
	assert.NotEqual(t, graph.LabelConcept, acme.Label)

	var employer bool
	for _, rel := range doc.Relationships {
		if rel.Start == alice.ID && rel.End == acme.ID {
			employer = true
			assert.Equal(t, graph.RelationWorksAt, rel.Type)
		}
	}
	assert.True(t, employer, "no relationship from Alice Johnson to Acme Corporation")
}
