package processors

import (
	"strings"

	"github.com/athapong/docgraph-mcp/pkg/graph"
)

// nativeCategories covers both the prose label set (ORGANIZATION, FACILITY,
// LOCATION, GSP) and the short OntoNotes names.
var nativeCategories = map[string]graph.Label{
	"PERSON":       graph.LabelPerson,
	"ORG":          graph.LabelCompany,
	"ORGANIZATION": graph.LabelCompany,
	"GPE":          graph.LabelLocation,
	"GSP":          graph.LabelLocation,
	"LOC":          graph.LabelLocation,
	"LOCATION":     graph.LabelLocation,
	"FAC":          graph.LabelLocation,
	"FACILITY":     graph.LabelLocation,
}

var labelDescriptions = map[string]string{
	"PERSON":       "People, including fictional",
	"NORP":         "Nationalities or religious or political groups",
	"FAC":          "Buildings, airports, highways, bridges, etc.",
	"FACILITY":     "Buildings, airports, highways, bridges, etc.",
	"ORG":          "Companies, agencies, institutions, etc.",
	"ORGANIZATION": "Companies, agencies, institutions, etc.",
	"GPE":          "Countries, cities, states",
	"GSP":          "Geo-socio-political groups",
	"LOC":          "Non-GPE locations, mountain ranges, bodies of water",
	"LOCATION":     "Non-GPE locations, mountain ranges, bodies of water",
	"PRODUCT":      "Objects, vehicles, foods, etc. (not services)",
	"EVENT":        "Named hurricanes, battles, wars, sports events, etc.",
	"WORK_OF_ART":  "Titles of books, songs, etc.",
	"LAW":          "Named documents made into laws",
	"LANGUAGE":     "Any named language",
	"DATE":         "Absolute or relative dates or periods",
	"TIME":         "Times smaller than a day",
	"PERCENT":      "Percentage, including \"%\"",
	"MONEY":        "Monetary values, including unit",
	"QUANTITY":     "Measurements, as of weight or distance",
	"ORDINAL":      "\"first\", \"second\", etc.",
	"CARDINAL":     "Numerals that do not fall under another type",
}

// CategoryFor maps a native tagger label to one of the four categories.
// Unknown labels are Concepts.
func CategoryFor(native string) graph.Label {
	if label, ok := nativeCategories[strings.ToUpper(native)]; ok {
		return label
	}
	return graph.LabelConcept
}

// DescribeLabel returns the description of a native label, or the label itself.
func DescribeLabel(native string) string {
	if desc, ok := labelDescriptions[strings.ToUpper(native)]; ok {
		return desc
	}
	return native
}
