package processors

import (
	"context"
	"sort"
	"strings"
)

// Converter turns the raw bytes of one document format into plain text.
type Converter interface {
	Convert(ctx context.Context, content []byte) (string, error)
	SupportedTypes() []string
}

// Registry maps file extensions to converters.
type Registry struct {
	byExt map[string]Converter
}

// NewRegistry registers the converters for every supported format.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Converter)}
	r.Register(NewTextConverter(), ".txt", ".md", ".markdown")
	r.Register(NewPDFConverter(), ".pdf")
	r.Register(NewDocxConverter(), ".docx")
	r.Register(NewCSVConverter(), ".csv")
	r.Register(NewHTMLConverter(), ".html", ".htm")
	r.Register(NewJSONConverter(), ".json")
	return r
}

// Register binds c to the given extensions, replacing earlier bindings.
func (r *Registry) Register(c Converter, exts ...string) {
	for _, ext := range exts {
		r.byExt[normalizeExt(ext)] = c
	}
}

// For returns the converter for ext.
func (r *Registry) For(ext string) (Converter, bool) {
	c, ok := r.byExt[normalizeExt(ext)]
	return c, ok
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// TextConverter passes plain text and markdown through unchanged.
type TextConverter struct{}

func NewTextConverter() *TextConverter {
	return &TextConverter{}
}

func (c *TextConverter) Convert(ctx context.Context, content []byte) (string, error) {
	return strings.ToValidUTF8(string(content), "�"), nil
}

func (c *TextConverter) SupportedTypes() []string {
	return []string{"text/plain", "text/markdown"}
}
