package processors

import (
	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/athapong/docgraph-mcp/pkg/graph/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ExtractorConfig selects and configures the extraction strategy.
type ExtractorConfig struct {
	// UseModel requests model mode; the heuristic strategy is used when false
	// or when the tagger cannot be loaded.
	UseModel bool
	Keywords KeywordConfig
	Verbs    VerbRelations
	Logger   *logrus.Logger
	// NewTagger builds the tagger for model mode. Defaults to NewProseTagger.
	NewTagger func() (Tagger, error)
}

// NewExtractor picks the extraction strategy once. A tagger that fails to
// load, by error or panic, degrades to heuristic extraction with a warning.
func NewExtractor(cfg ExtractorConfig) graph.Extractor {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.UseModel {
		tagger, err := loadTagger(cfg.NewTagger)
		if err == nil {
			metrics.SetExtractionMode(string(graph.ModeModel))
			logger.WithField("mode", graph.ModeModel).Info("Extraction strategy selected")
			return NewModelExtractor(tagger, cfg.Verbs, logger)
		}
		metrics.TaggerFailures.WithLabelValues("load").Inc()
		logger.WithError(err).Warn("degraded to heuristic extraction")
	}

	keywords := cfg.Keywords
	if keywords.Empty() {
		keywords = DefaultKeywordConfig()
	}
	metrics.SetExtractionMode(string(graph.ModeHeuristic))
	logger.WithField("mode", graph.ModeHeuristic).Info("Extraction strategy selected")
	return NewHeuristicExtractor(NewKeywords(keywords))
}

func loadTagger(factory func() (Tagger, error)) (tagger Tagger, err error) {
	if factory == nil {
		factory = func() (Tagger, error) { return NewProseTagger() }
	}
	defer func() {
		if r := recover(); r != nil {
			tagger, err = nil, errors.Wrapf(ErrNoTagger, "tagger panicked while loading: %v", r)
		}
	}()

	tagger, err = factory()
	if err != nil {
		return nil, errors.Wrap(err, ErrNoTagger.Error())
	}
	if tagger == nil {
		return nil, ErrNoTagger
	}
	return tagger, nil
}
