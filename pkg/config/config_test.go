package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/athapong/docgraph-mcp/pkg/config"
	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// clearEnv unsets the variables Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "QDRANT_HOST", "QDRANT_PORT", "QDRANT_API_KEY",
		"NEO4J_URI", "NEO4J_USERNAME", "NEO4J_PASSWORD", "ENABLE_TOOLS",
		"DOCGRAPH_LOG_LEVEL", "DOCGRAPH_EXTRACTION_USE_MODEL", "DOCGRAPH_QDRANT_PORT",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load("", writeFile(t, "docgraph.yaml", "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Extraction.UseModel)
	assert.Equal(t, 10, cfg.Extraction.BatchSize)
	assert.Equal(t, graph.DefaultSegmenterOptions(), cfg.SegmenterOptions())
	assert.Contains(t, cfg.Extraction.Keywords.Persons, "alice")
	assert.Len(t, cfg.Extraction.Verbs, 4)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, "docgraph_paragraphs", cfg.Qdrant.Collection)
	assert.Empty(t, cfg.Server.EnableTools)
	assert.True(t, cfg.ToolEnabled("structure"))
}

func TestLoadFileEnvAndLegacyVariables(t *testing.T) {
	clearEnv(t)
	file := writeFile(t, "docgraph.yaml", `
log:
  level: debug
  format: text
extraction:
  use_model: false
  keywords:
    persons: [carol]
  verbs:
    - type: FOUNDED
      stems: [launch]
  segmenter:
    min_paragraph_length: 20
qdrant:
  host: qdrant.local
`)
	envFile := writeFile(t, ".env", "OPENAI_API_KEY=sk-test\nENABLE_TOOLS=structure, graph\n")
	t.Setenv("DOCGRAPH_QDRANT_PORT", "7000")

	cfg, err := config.Load(envFile, file)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Extraction.UseModel)
	assert.Equal(t, []string{"carol"}, cfg.Extraction.Keywords.Persons)
	assert.Contains(t, cfg.Extraction.Keywords.Companies, "google", "lists missing from the file keep defaults")
	require.Len(t, cfg.Extraction.Verbs, 1)
	assert.Equal(t, graph.RelationFounded, cfg.Extraction.Verbs[0].Type)
	assert.Equal(t, 20, cfg.SegmenterOptions().MinParagraphLength)
	assert.Equal(t, 500, cfg.SegmenterOptions().LongTextThreshold)

	assert.Equal(t, "qdrant.local", cfg.Qdrant.Host)
	assert.Equal(t, 7000, cfg.Qdrant.Port)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)

	assert.Equal(t, []string{"structure", "graph"}, cfg.Server.EnableTools)
	assert.True(t, cfg.ToolEnabled("graph"))
	assert.False(t, cfg.ToolEnabled("search"))

	logger := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestLoadKeywordsFile(t *testing.T) {
	clearEnv(t)
	keywords := writeFile(t, "keywords.yaml", "locations: [pune]\n")
	file := writeFile(t, "docgraph.yaml", "extraction:\n  keywords_file: "+keywords+"\n")

	cfg, err := config.Load("", file)
	require.NoError(t, err)
	assert.Equal(t, []string{"pune"}, cfg.Extraction.Keywords.Locations)
	assert.Contains(t, cfg.Extraction.Keywords.Persons, "alice")
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
	}{
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"bad batch size", "extraction:\n  batch_size: 0\n"},
		{"bad port", "qdrant:\n  port: 70000\n"},
		{"unknown relation", "extraction:\n  verbs:\n    - type: MARRIED_TO\n      stems: [marr]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load("", writeFile(t, "docgraph.yaml", tt.content))
			assert.Error(t, err)
		})
	}

	_, err := config.Load("", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
