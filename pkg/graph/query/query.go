package query

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type QueryType string

const (
	Match  QueryType = "MATCH"
	Delete QueryType = "DELETE"
)

// Direction of a relationship relative to the previous pattern in the path.
const (
	Outgoing = "out"
	Incoming = "in"
	Both     = "both"
)

type Query struct {
	Type     QueryType `json:"type"`
	Patterns []Pattern `json:"patterns"`
	Filters  []Filter  `json:"filters"`
	Returns  []string  `json:"returns"`
	Distinct bool      `json:"distinct,omitempty"`
	Limit    int       `json:"limit"`
	Skip     int       `json:"skip"`
}

// Pattern is one node of a path. Every pattern after the first is joined to
// its predecessor by a relationship of RelationType (any type when empty).
type Pattern struct {
	Alias        string                 `json:"alias"`
	NodeType     string                 `json:"node_type"`
	RelationType string                 `json:"relation_type,omitempty"`
	RelAlias     string                 `json:"rel_alias,omitempty"`
	Direction    string                 `json:"direction,omitempty"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// Filter is a WHERE condition on alias.property.
type Filter struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

// Statement is a rendered Cypher query with its parameters.
type Statement struct {
	Cypher string
	Params map[string]interface{}
}

var (
	identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	field      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\.[A-Za-z_][A-Za-z0-9_]*$`)
	operators  = map[string]bool{
		"=": true, "<>": true, "<": true, ">": true, "<=": true, ">=": true,
		"IN": true, "CONTAINS": true, "STARTS WITH": true, "ENDS WITH": true,
	}
)

func NewQuery(queryType QueryType) *Query {
	return &Query{
		Type:     queryType,
		Patterns: make([]Pattern, 0),
		Filters:  make([]Filter, 0),
		Returns:  make([]string, 0),
	}
}

func (q *Query) AddPattern(pattern Pattern) *Query {
	q.Patterns = append(q.Patterns, pattern)
	return q
}

func (q *Query) AddFilter(filter Filter) *Query {
	q.Filters = append(q.Filters, filter)
	return q
}

func (q *Query) Return(items ...string) *Query {
	q.Returns = append(q.Returns, items...)
	return q
}

func (q *Query) SetDistinct(distinct bool) *Query {
	q.Distinct = distinct
	return q
}

func (q *Query) SetLimit(limit int) *Query {
	q.Limit = limit
	return q
}

func (q *Query) SetSkip(skip int) *Query {
	q.Skip = skip
	return q
}

// Build renders the query as Cypher. Values always travel as parameters;
// aliases, labels and relationship types are validated identifiers.
func (q *Query) Build() (Statement, error) {
	if q.Type != Match && q.Type != Delete {
		return Statement{}, fmt.Errorf("unsupported query type: %s", q.Type)
	}
	if len(q.Patterns) == 0 {
		return Statement{}, fmt.Errorf("query needs at least one pattern")
	}

	params := make(map[string]interface{})
	var b strings.Builder
	b.WriteString("MATCH ")

	for i, p := range q.Patterns {
		if i > 0 {
			rel, err := renderRelationship(p)
			if err != nil {
				return Statement{}, err
			}
			b.WriteString(rel)
		}
		node, err := renderNode(p, params)
		if err != nil {
			return Statement{}, err
		}
		b.WriteString(node)
	}

	if len(q.Filters) > 0 {
		conds := make([]string, 0, len(q.Filters))
		for i, f := range q.Filters {
			op := strings.ToUpper(strings.TrimSpace(f.Operator))
			if !operators[op] {
				return Statement{}, fmt.Errorf("unsupported operator: %s", f.Operator)
			}
			if !field.MatchString(f.Field) {
				return Statement{}, fmt.Errorf("invalid filter field: %s", f.Field)
			}
			name := fmt.Sprintf("f%d", i)
			params[name] = f.Value
			conds = append(conds, fmt.Sprintf("%s %s $%s", f.Field, op, name))
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	if q.Type == Delete {
		if len(q.Returns) == 0 {
			return Statement{}, fmt.Errorf("delete query needs the aliases to delete")
		}
		for _, alias := range q.Returns {
			if !identifier.MatchString(alias) {
				return Statement{}, fmt.Errorf("invalid alias: %s", alias)
			}
		}
		b.WriteString(" DETACH DELETE ")
		b.WriteString(strings.Join(q.Returns, ", "))
		return Statement{Cypher: b.String(), Params: params}, nil
	}

	returns := q.Returns
	if len(returns) == 0 {
		for _, p := range q.Patterns {
			returns = append(returns, p.Alias)
		}
	}
	b.WriteString(" RETURN ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(strings.Join(returns, ", "))

	if q.Skip > 0 {
		fmt.Fprintf(&b, " SKIP %d", q.Skip)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	return Statement{Cypher: b.String(), Params: params}, nil
}

func renderNode(p Pattern, params map[string]interface{}) (string, error) {
	if !identifier.MatchString(p.Alias) {
		return "", fmt.Errorf("invalid alias: %q", p.Alias)
	}

	var b strings.Builder
	b.WriteString("(")
	b.WriteString(p.Alias)
	if p.NodeType != "" {
		if !identifier.MatchString(p.NodeType) {
			return "", fmt.Errorf("invalid node type: %q", p.NodeType)
		}
		b.WriteString(":")
		b.WriteString(p.NodeType)
	}

	if len(p.Properties) > 0 {
		keys := make([]string, 0, len(p.Properties))
		for k := range p.Properties {
			if !identifier.MatchString(k) {
				return "", fmt.Errorf("invalid property name: %q", k)
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		props := make([]string, 0, len(keys))
		for _, k := range keys {
			name := p.Alias + "_" + k
			params[name] = p.Properties[k]
			props = append(props, fmt.Sprintf("%s: $%s", k, name))
		}
		b.WriteString(" {")
		b.WriteString(strings.Join(props, ", "))
		b.WriteString("}")
	}

	b.WriteString(")")
	return b.String(), nil
}

func renderRelationship(p Pattern) (string, error) {
	inner := p.RelAlias
	if inner != "" && !identifier.MatchString(inner) {
		return "", fmt.Errorf("invalid relationship alias: %q", inner)
	}
	if p.RelationType != "" {
		if !identifier.MatchString(p.RelationType) {
			return "", fmt.Errorf("invalid relationship type: %q", p.RelationType)
		}
		inner += ":" + p.RelationType
	}

	switch p.Direction {
	case Outgoing, "":
		return "-[" + inner + "]->", nil
	case Incoming:
		return "<-[" + inner + "]-", nil
	case Both:
		return "-[" + inner + "]-", nil
	}
	return "", fmt.Errorf("invalid direction: %q", p.Direction)
}

func (q *Query) String() string {
	bytes, _ := json.MarshalIndent(q, "", "  ")
	return string(bytes)
}
