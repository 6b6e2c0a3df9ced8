package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (configFile string) {
	t.Helper()
	for _, name := range []string{"OPENAI_API_KEY", "QDRANT_HOST", "NEO4J_URI", "ENABLE_TOOLS"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	dir := t.TempDir()
	configFile = filepath.Join(dir, "docgraph.yaml")
	content := "log:\n  level: error\nextraction:\n  use_model: false\nstore:\n  dir: " + filepath.Join(dir, "documents") + "\n"
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))
	return configFile
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestStructureCommand(t *testing.T) {
	cfg := setup(t)

	out, err := run(t, "Alice works at Google and leads the platform team that ships the billing services.",
		"structure", "-", "--name", "memo", "--config", cfg, "--env", "missing.env")
	require.NoError(t, err)

	var doc graph.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "memo", doc.Source)
	assert.Len(t, doc.Entities, 2)
	assert.Len(t, doc.Relationships, 1)

	_, err = run(t, "", "structure", filepath.Join(t.TempDir(), "missing.txt"), "--config", cfg, "--env", "missing.env")
	assert.ErrorContains(t, err, "file not found")
}

func TestGraphCommand(t *testing.T) {
	cfg := setup(t)
	input := t.TempDir()
	writeFile(t, input, "a.txt", "Alice works at Google and leads the platform team that ships the billing services.")
	writeFile(t, input, "b.md", "Bob works at Microsoft in London for the payments group.")
	writeFile(t, input, "c.exe", "MZ")

	outDir := t.TempDir()
	output := filepath.Join(outDir, "kg.json")
	viz := filepath.Join(outDir, "kg.html")

	_, err := run(t, "", "graph", input, "--config", cfg, "--env", "missing.env",
		"--output", output, "--visualize", "--viz-output", viz)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var kg graph.KnowledgeGraphData
	require.NoError(t, json.Unmarshal(data, &kg))
	assert.Len(t, kg.Nodes, 5)
	assert.Len(t, kg.Edges, 3)

	page, err := os.ReadFile(viz)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<!DOCTYPE html>")

	_, err = run(t, "", "graph", t.TempDir(), "--config", cfg, "--env", "missing.env", "--visualize=false")
	assert.ErrorContains(t, err, "no supported files")
}

func TestIndexAndSearchCommands(t *testing.T) {
	cfg := setup(t)
	file := writeFile(t, t.TempDir(), "memo.txt", "Alice works at Google and leads the platform team that ships the billing services.")

	out, err := run(t, "", "index", file, "--config", cfg, "--env", "missing.env")
	require.NoError(t, err)
	assert.Contains(t, out, "memo.txt: 1 paragraphs, 2 entities, 1 relationships; stored in documents")

	out, err = run(t, "", "index", file, "nope.exe", "--config", cfg, "--env", "missing.env")
	assert.ErrorContains(t, err, "1 of 2 files could not be indexed")
	assert.Contains(t, out, "nope.exe:")

	_, err = run(t, "", "search", "billing", "--config", cfg, "--env", "missing.env")
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}
