package processors_test

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/athapong/docgraph-mcp/pkg/graph/processors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := processors.NewRegistry()

	for _, ext := range []string{".txt", "md", ".PDF", ".docx", ".csv", ".htm", ".json"} {
		_, ok := r.For(ext)
		assert.True(t, ok, ext)
	}
	_, ok := r.For(".exe")
	assert.False(t, ok)

	assert.Contains(t, r.Extensions(), ".markdown")
}

func TestTextConverter(t *testing.T) {
	out, err := processors.NewTextConverter().Convert(context.Background(), []byte("Alice\n\nBob"))
	require.NoError(t, err)
	assert.Equal(t, "Alice\n\nBob", out)
}

func TestCSVConverter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "rows become blocks",
			input: "name,city\nAlice, Bangalore\n,\nBob,Pune\n",
			want:  "name: Alice\ncity: Bangalore\n\nname: Bob\ncity: Pune",
		},
		{
			name:  "extra columns get positional names",
			input: "name\nAlice,DevForge\n",
			want:  "name: Alice\ncolumn 2: DevForge",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := processors.NewCSVConverter().Convert(context.Background(), []byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s</w:body></w:document>`, body)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDocxConverter(t *testing.T) {
	content := buildDocx(t,
		`<w:p><w:r><w:t>Alice works at DevForge.</w:t></w:r></w:p>`+
			`<w:p/>`+
			`<w:p><w:r><w:t xml:space="preserve">Second </w:t></w:r><w:r><w:t>paragraph</w:t></w:r></w:p>`)

	out, err := processors.NewDocxConverter().Convert(context.Background(), content)
	require.NoError(t, err)
	assert.Equal(t, "Alice works at DevForge.\n\nSecond paragraph", out)

	_, err = processors.NewDocxConverter().Convert(context.Background(), []byte("not a zip"))
	assert.Error(t, err)
}

func TestHTMLConverter(t *testing.T) {
	page := `<html><head><style>p { color: red }</style></head><body>
<nav>Menu</nav>
<h1>Quarterly report</h1>
<p>Alice works at DevForge.</p>
<ul><li>Hiring</li><li>Hiring</li></ul>
<table><tr><th>Name</th><th>City</th></tr></table>
<script>var tracking = true;</script>
</body></html>`

	out, err := processors.NewHTMLConverter().Convert(context.Background(), []byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Quarterly report\n\nAlice works at DevForge.\n\nHiring\n\nName | City", out)

	out, err = processors.NewHTMLConverter().Convert(context.Background(), []byte("<body><div>  plain   body </div></body>"))
	require.NoError(t, err)
	assert.Equal(t, "plain body", out)
}

func TestJSONConverter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "string leaves in order",
			input: `{"title": "Report", "items": [{"body": "Alice works at DevForge."}, {"n": 3}], "empty": " "}`,
			want:  "Report\n\nAlice works at DevForge.",
		},
		{
			name: "atlassian document",
			input: `{"type": "doc", "version": 1, "content": [
				{"type": "paragraph", "content": [{"type": "text", "text": "First block."}]},
				{"type": "paragraph", "content": [{"type": "text", "text": "Second block."}]}
			]}`,
			want: "First block.\n\nSecond block.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := processors.NewJSONConverter().Convert(context.Background(), []byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	_, err := processors.NewJSONConverter().Convert(context.Background(), []byte("{broken"))
	assert.Error(t, err)
}

func TestURLConverter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, "<html><body><h1>Hello</h1><p>Alice works at DevForge.</p></body></html>")
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, "just text")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := processors.NewURLConverter(srv.Client())

	out, err := c.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "Alice works at DevForge.")
	assert.NotContains(t, out, "<p>")

	out, err = c.Fetch(context.Background(), srv.URL+"/plain")
	require.NoError(t, err)
	assert.Equal(t, "just text", out)

	_, err = c.Fetch(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)

	_, err = c.Fetch(context.Background(), "ftp://example.com/file")
	assert.Error(t, err)
}
