// Package config loads docgraph settings from an optional YAML file, a .env
// file and the environment.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/athapong/docgraph-mcp/pkg/graph/processors"
	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const envPrefix = "DOCGRAPH"

type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Qdrant     QdrantConfig     `mapstructure:"qdrant"`
	Neo4j      Neo4jConfig      `mapstructure:"neo4j"`
	Store      StoreConfig      `mapstructure:"store"`
	Server     ServerConfig     `mapstructure:"server"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SegmenterConfig struct {
	LongTextThreshold  int `mapstructure:"long_text_threshold"`
	MinParagraphLength int `mapstructure:"min_paragraph_length"`
	MinBlocks          int `mapstructure:"min_blocks"`
}

type ExtractionConfig struct {
	UseModel     bool                     `mapstructure:"use_model"`
	BatchSize    int                      `mapstructure:"batch_size"`
	MaxFileSize  int64                    `mapstructure:"max_file_size"`
	KeywordsFile string                   `mapstructure:"keywords_file"`
	Keywords     processors.KeywordConfig `mapstructure:"keywords"`
	Verbs        processors.VerbRelations `mapstructure:"verbs"`
	Segmenter    SegmenterConfig          `mapstructure:"segmenter"`
}

type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	Dimensions     int    `mapstructure:"dimensions"`
	MaxTokens      int    `mapstructure:"max_tokens"`
}

type QdrantConfig struct {
	Host           string  `mapstructure:"host"`
	Port           int     `mapstructure:"port"`
	APIKey         string  `mapstructure:"api_key"`
	UseTLS         bool    `mapstructure:"use_tls"`
	Collection     string  `mapstructure:"collection"`
	ScoreThreshold float32 `mapstructure:"score_threshold"`
}

type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type StoreConfig struct {
	Dir string `mapstructure:"dir"`
}

type ServerConfig struct {
	EnableTools []string `mapstructure:"enable_tools"`
	MetricsAddr string   `mapstructure:"metrics_addr"`
}

// legacyEnv maps keys to the unprefixed variables used by existing MCP configs.
var legacyEnv = map[string]string{
	"openai.api_key":      "OPENAI_API_KEY",
	"openai.base_url":     "OPENAI_BASE_URL",
	"qdrant.host":         "QDRANT_HOST",
	"qdrant.port":         "QDRANT_PORT",
	"qdrant.api_key":      "QDRANT_API_KEY",
	"neo4j.uri":           "NEO4J_URI",
	"neo4j.username":      "NEO4J_USERNAME",
	"neo4j.password":      "NEO4J_PASSWORD",
	"server.enable_tools": "ENABLE_TOOLS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	seg := graph.DefaultSegmenterOptions()
	v.SetDefault("extraction.use_model", true)
	v.SetDefault("extraction.batch_size", 10)
	v.SetDefault("extraction.max_file_size", 50<<20)
	v.SetDefault("extraction.keywords_file", "")
	v.SetDefault("extraction.segmenter.long_text_threshold", seg.LongTextThreshold)
	v.SetDefault("extraction.segmenter.min_paragraph_length", seg.MinParagraphLength)
	v.SetDefault("extraction.segmenter.min_blocks", seg.MinBlocks)

	kw := processors.DefaultKeywordConfig()
	v.SetDefault("extraction.keywords.persons", kw.Persons)
	v.SetDefault("extraction.keywords.company_indicators", kw.CompanyIndicators)
	v.SetDefault("extraction.keywords.companies", kw.Companies)
	v.SetDefault("extraction.keywords.locations", kw.Locations)
	v.SetDefault("extraction.keywords.concepts", kw.Concepts)
	v.SetDefault("extraction.keywords.stopwords", kw.Stopwords)
	v.SetDefault("extraction.verbs", processors.DefaultVerbRelations())

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.dimensions", 0)
	v.SetDefault("openai.max_tokens", 8191)

	v.SetDefault("qdrant.host", "")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.api_key", "")
	v.SetDefault("qdrant.use_tls", true)
	v.SetDefault("qdrant.collection", "docgraph_paragraphs")
	v.SetDefault("qdrant.score_threshold", 0.3)

	v.SetDefault("neo4j.uri", "")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "")

	v.SetDefault("store.dir", defaultStoreDir())

	v.SetDefault("server.enable_tools", []string{})
	v.SetDefault("server.metrics_addr", "")
}

func defaultStoreDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "docgraph", "documents")
	}
	return filepath.Join(".docgraph", "documents")
}

// Load reads envFile (if present), then configFile or docgraph.yaml from the
// working directory or ~/.config/docgraph, then the environment. Later
// sources override earlier ones.
func Load(envFile, configFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, pkgerrors.Wrapf(err, "loading env file %s", envFile)
		}
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("docgraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "docgraph"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, pkgerrors.Wrap(err, "reading config file")
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), legacy); err != nil {
			return nil, pkgerrors.Wrapf(err, "binding %s", key)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, pkgerrors.Wrap(err, "decoding config")
	}

	if cfg.Extraction.KeywordsFile != "" {
		keywords, err := processors.LoadKeywordConfig(cfg.Extraction.KeywordsFile)
		if err != nil {
			return nil, err
		}
		cfg.Extraction.Keywords = keywords
	}
	cfg.Server.EnableTools = splitList(cfg.Server.EnableTools)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitList accepts both list values and a single comma separated value.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return pkgerrors.Wrap(err, "log.level")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return pkgerrors.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.Extraction.BatchSize <= 0 {
		return pkgerrors.Errorf("extraction.batch_size must be positive, got %d", c.Extraction.BatchSize)
	}
	if c.Qdrant.Port <= 0 || c.Qdrant.Port > 65535 {
		return pkgerrors.Errorf("qdrant.port out of range: %d", c.Qdrant.Port)
	}
	return c.Extraction.Verbs.Validate()
}

// ToolEnabled reports whether an MCP tool group is enabled. An empty list
// enables everything.
func (c *Config) ToolEnabled(name string) bool {
	if len(c.Server.EnableTools) == 0 {
		return true
	}
	for _, t := range c.Server.EnableTools {
		if t == name {
			return true
		}
	}
	return false
}

// SegmenterOptions converts the segmenter settings.
func (c *Config) SegmenterOptions() graph.SegmenterOptions {
	return graph.SegmenterOptions{
		LongTextThreshold:  c.Extraction.Segmenter.LongTextThreshold,
		MinParagraphLength: c.Extraction.Segmenter.MinParagraphLength,
		MinBlocks:          c.Extraction.Segmenter.MinBlocks,
	}
}

// NewLogger builds a logger from the log settings.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(c.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if c.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
