package processors

import (
	"strings"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/pkg/errors"
)

// VerbRule maps verbs containing any of Stems to a relationship type.
type VerbRule struct {
	Type  graph.RelationType `mapstructure:"type" yaml:"type"`
	Stems []string           `mapstructure:"stems" yaml:"stems"`
}

// VerbRelations is an ordered verb table; the first matching rule wins.
type VerbRelations []VerbRule

// DefaultVerbRelations returns the standard verb table.
func DefaultVerbRelations() VerbRelations {
	return VerbRelations{
		{Type: graph.RelationWorksAt, Stems: []string{"work", "employ", "hire"}},
		{Type: graph.RelationLocatedIn, Stems: []string{"live", "locat", "base", "reside"}},
		{Type: graph.RelationFounded, Stems: []string{"found", "create", "establish"}},
		{Type: graph.RelationOwns, Stems: []string{"own", "acquir", "purchas", "bought"}},
	}
}

// Classify returns the relationship type for a verb, RELATED_TO if no rule matches.
func (v VerbRelations) Classify(verb string) graph.RelationType {
	lower := strings.ToLower(verb)
	for _, rule := range v {
		for _, stem := range rule.Stems {
			if stem != "" && strings.Contains(lower, strings.ToLower(stem)) {
				return rule.Type
			}
		}
	}
	return graph.RelationRelatedTo
}

// Validate rejects rules with unknown relationship types.
func (v VerbRelations) Validate() error {
	for _, rule := range v {
		if !rule.Type.Valid() {
			return errors.Errorf("unknown relationship type %q in verb table", rule.Type)
		}
	}
	return nil
}
