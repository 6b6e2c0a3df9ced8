package processors

import (
	"os"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// KeywordConfig holds the closed word lists used by heuristic extraction.
type KeywordConfig struct {
	Persons           []string `mapstructure:"persons" yaml:"persons"`
	CompanyIndicators []string `mapstructure:"company_indicators" yaml:"company_indicators"`
	Companies         []string `mapstructure:"companies" yaml:"companies"`
	Locations         []string `mapstructure:"locations" yaml:"locations"`
	Concepts          []string `mapstructure:"concepts" yaml:"concepts"`
	Stopwords         []string `mapstructure:"stopwords" yaml:"stopwords"`
}

// DefaultKeywordConfig returns the built-in word lists.
func DefaultKeywordConfig() KeywordConfig {
	return KeywordConfig{
		Persons: []string{
			"alice", "bob", "john", "mary", "david", "sarah",
			"engineer", "developer", "manager", "director", "ceo", "cto",
		},
		CompanyIndicators: []string{
			"company", "corporation", "corp", "inc", "incorporated", "ltd", "limited",
			"llc", "plc", "gmbh", "organization", "firm", "enterprise", "enterprises",
			"group", "holdings", "technologies", "labs",
		},
		Companies: []string{
			"google", "microsoft", "amazon", "apple", "openai", "ibm", "oracle",
			"netflix", "infosys", "wipro", "tcs",
		},
		Locations: []string{
			"bangalore", "mumbai", "delhi", "new york", "london", "san francisco",
			"city", "location",
		},
		Concepts: []string{
			"ai", "machine learning", "deep learning", "neural network",
			"algorithm", "database", "graph", "vector",
		},
		Stopwords: []string{
			"the", "this", "that", "these", "those", "there", "their", "they", "them",
			"then", "than", "when", "where", "what", "which", "while", "whom", "whose",
			"with", "within", "without", "from", "into", "onto", "over", "under",
			"after", "before", "because", "however", "also", "here", "some", "many",
			"most", "more", "each", "every", "other", "such", "both", "about", "above",
			"below", "between", "during", "through", "since", "until", "upon", "would",
			"could", "should", "shall", "must", "have", "been", "being", "were", "your",
			"ours", "yours", "only", "just", "very", "much", "even", "still", "well",
			"today", "yesterday", "tomorrow", "monday", "tuesday", "wednesday",
			"thursday", "friday", "saturday", "sunday", "january", "february", "march",
			"april", "june", "july", "august", "september", "october", "november",
			"december", "note", "notes", "summary", "introduction", "conclusion",
		},
	}
}

// Empty reports whether no list is set.
func (c KeywordConfig) Empty() bool {
	return len(c.Persons)+len(c.CompanyIndicators)+len(c.Companies)+
		len(c.Locations)+len(c.Concepts)+len(c.Stopwords) == 0
}

// LoadKeywordConfig reads word lists from a YAML file. Lists missing from the
// file keep their default values.
func LoadKeywordConfig(path string) (KeywordConfig, error) {
	cfg := DefaultKeywordConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading keyword file %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing keyword file %s", path)
	}
	return cfg, nil
}

// Keywords is the normalized, read-only form of a KeywordConfig.
type Keywords struct {
	persons    mapset.Set[string]
	indicators mapset.Set[string]
	stopwords  mapset.Set[string]
	companies  []string
	locations  []string
	concepts   []string
	// reserved holds every word of the company, location and concept lists.
	reserved mapset.Set[string]
}

// NewKeywords normalizes cfg: entries are trimmed, lowercased and de-duplicated.
func NewKeywords(cfg KeywordConfig) *Keywords {
	k := &Keywords{
		persons:    mapset.NewSet(normalizeList(cfg.Persons)...),
		indicators: mapset.NewSet(normalizeList(cfg.CompanyIndicators)...),
		stopwords:  mapset.NewSet(normalizeList(cfg.Stopwords)...),
		companies:  normalizeList(cfg.Companies),
		locations:  normalizeList(cfg.Locations),
		concepts:   normalizeList(cfg.Concepts),
		reserved:   mapset.NewSet[string](),
	}
	for _, list := range [][]string{k.companies, k.locations, k.concepts} {
		for _, term := range list {
			k.reserved.Append(strings.Fields(term)...)
		}
	}
	return k
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, s := range in {
		s = strings.ToLower(strings.Join(strings.Fields(s), " "))
		if s == "" || !seen.Add(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (k *Keywords) IsPerson(lower string) bool    { return k.persons.Contains(lower) }
func (k *Keywords) IsIndicator(lower string) bool { return k.indicators.Contains(lower) }
func (k *Keywords) IsStopword(lower string) bool  { return k.stopwords.Contains(lower) }

// IsReserved reports whether lower is part of a known company, location or
// concept term.
func (k *Keywords) IsReserved(lower string) bool { return k.reserved.Contains(lower) }
