package graph

type relationKey struct {
	start string
	end   string
	kind  RelationType
}

// RelationshipSet keeps relationships unique by (start, end, type). The
// first relationship added for a triple wins; later duplicates are dropped
// along with their metadata.
type RelationshipSet struct {
	seen  map[relationKey]struct{}
	items []Relationship
}

func NewRelationshipSet() *RelationshipSet {
	return &RelationshipSet{seen: make(map[relationKey]struct{})}
}

// Add stores rel unless its triple is already present.
func (s *RelationshipSet) Add(rel Relationship) bool {
	key := relationKey{start: rel.Start, end: rel.End, kind: rel.Type}
	if _, ok := s.seen[key]; ok {
		return false
	}
	if rel.Metadata == nil {
		rel.Metadata = make(map[string]interface{})
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, rel)
	return true
}

func (s *RelationshipSet) Contains(start, end string, kind RelationType) bool {
	_, ok := s.seen[relationKey{start: start, end: end, kind: kind}]
	return ok
}

// Items returns the relationships in insertion order.
func (s *RelationshipSet) Items() []Relationship {
	out := make([]Relationship, len(s.items))
	copy(out, s.items)
	return out
}

func (s *RelationshipSet) Len() int {
	return len(s.items)
}

// CoOccurrence links entities mentioned in the same paragraph: every person
// WORKS_AT every company and every company is LOCATED_IN every location.
func CoOccurrence(paragraphID string, mentions []string, resolver *IdentityResolver) []Relationship {
	byLabel := make(map[Label][]string)
	seen := make(map[string]bool)
	for _, id := range mentions {
		if seen[id] {
			continue
		}
		seen[id] = true
		entity, ok := resolver.Entity(id)
		if !ok {
			continue
		}
		byLabel[entity.Label] = append(byLabel[entity.Label], id)
	}

	var rels []Relationship
	pair := func(starts, ends []string, kind RelationType) {
		for _, start := range starts {
			for _, end := range ends {
				rels = append(rels, Relationship{
					Start: start,
					End:   end,
					Type:  kind,
					Metadata: map[string]interface{}{
						"source":     paragraphID,
						"confidence": "low",
						"method":     "co_occurrence",
					},
				})
			}
		}
	}
	pair(byLabel[LabelPerson], byLabel[LabelCompany], RelationWorksAt)
	pair(byLabel[LabelCompany], byLabel[LabelLocation], RelationLocatedIn)
	return rels
}

// DocumentState is the mutable state of one pipeline run. It is created per
// document and never shared between runs.
type DocumentState struct {
	Resolver  *IdentityResolver
	Relations *RelationshipSet

	scratch map[string]interface{}
}

func NewDocumentState() *DocumentState {
	return &DocumentState{
		Resolver:  NewIdentityResolver(),
		Relations: NewRelationshipSet(),
		scratch:   make(map[string]interface{}),
	}
}

// Stash keeps a strategy-specific value for a paragraph so the relationship
// pass can reuse work done during entity extraction.
func (s *DocumentState) Stash(paragraphID string, v interface{}) {
	s.scratch[paragraphID] = v
}

func (s *DocumentState) Stashed(paragraphID string) (interface{}, bool) {
	v, ok := s.scratch[paragraphID]
	return v, ok
}

func (s *DocumentState) forget(paragraphID string) {
	delete(s.scratch, paragraphID)
}
