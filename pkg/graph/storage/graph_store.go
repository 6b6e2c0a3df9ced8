package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// ErrNotConnected is returned by sinks used before Connect.
	ErrNotConnected = errors.New("storage: not connected")
	// ErrDocumentNotFound is returned when no stored document matches a source.
	ErrDocumentNotFound = errors.New("storage: document not found")
)

// GraphStore defines an interface for storing knowledge graphs
type GraphStore interface {
	// StoreGraph persists a knowledge graph
	StoreGraph(ctx context.Context, graph *graph.KnowledgeGraphData) error

	// LoadGraph loads a knowledge graph from storage
	LoadGraph(ctx context.Context) (*graph.KnowledgeGraphData, error)
}

// JSONGraphStore implements GraphStore using JSON files
type JSONGraphStore struct {
	filePath string
}

// NewJSONGraphStore creates a new JSON graph store
func NewJSONGraphStore(filePath string) *JSONGraphStore {
	return &JSONGraphStore{
		filePath: filePath,
	}
}

// StoreGraph stores the knowledge graph as JSON
func (s *JSONGraphStore) StoreGraph(ctx context.Context, kg *graph.KnowledgeGraphData) error {
	return writeJSON(s.filePath, kg)
}

// LoadGraph loads a knowledge graph from a JSON file
func (s *JSONGraphStore) LoadGraph(ctx context.Context) (*graph.KnowledgeGraphData, error) {
	var kg graph.KnowledgeGraphData
	if err := readJSON(s.filePath, &kg); err != nil {
		return nil, err
	}
	return &kg, nil
}

// JSONDocumentStore keeps one structured document per source in a directory.
type JSONDocumentStore struct {
	dir string
}

func NewJSONDocumentStore(dir string) *JSONDocumentStore {
	return &JSONDocumentStore{dir: dir}
}

// Save writes doc, replacing any earlier document with the same source.
func (s *JSONDocumentStore) Save(ctx context.Context, doc *graph.Document) error {
	if doc == nil {
		return errors.New("cannot save nil document")
	}
	return writeJSON(s.path(doc.Source), doc)
}

// Load reads the document stored for source.
func (s *JSONDocumentStore) Load(ctx context.Context, source string) (*graph.Document, error) {
	var doc graph.Document
	if err := readJSON(s.path(source), &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(ErrDocumentNotFound, source)
		}
		return nil, err
	}
	return &doc, nil
}

// List loads every stored document ordered by source.
func (s *JSONDocumentStore) List(ctx context.Context) ([]*graph.Document, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, errors.Wrap(err, "listing documents")
	}

	docs := make([]*graph.Document, 0, len(matches))
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var doc graph.Document
		if err := readJSON(path, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Source < docs[j].Source })
	return docs, nil
}

// Delete removes the document stored for source. Missing documents are not an error.
func (s *JSONDocumentStore) Delete(ctx context.Context, source string) error {
	if err := os.Remove(s.path(source)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "deleting document %s", source)
	}
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// path maps a source to a file name. The hash suffix keeps sources that
// sanitize to the same name apart.
func (s *JSONDocumentStore) path(source string) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(source, "_"), "._")
	if name == "" {
		name = "document"
	}
	suffix := uuid.NewSHA1(uuid.NameSpaceURL, []byte(source)).String()[:8]
	return filepath.Join(s.dir, name+"-"+suffix+".json")
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding json")
	}

	return errors.Wrapf(os.WriteFile(path, data, 0644), "writing %s", path)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	return errors.Wrapf(json.Unmarshal(data, v), "decoding %s", path)
}
