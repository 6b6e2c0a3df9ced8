package processors

import (
	"context"
	"strings"

	"github.com/athapong/docgraph-mcp/pkg/adf"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// JSONConverter extracts prose from JSON documents. Atlassian Document Format
// payloads are rendered block by block; any other JSON contributes its string
// leaves in document order.
type JSONConverter struct{}

func NewJSONConverter() *JSONConverter {
	return &JSONConverter{}
}

func (c *JSONConverter) Convert(ctx context.Context, content []byte) (string, error) {
	if !gjson.ValidBytes(content) {
		return "", errors.New("invalid json document")
	}

	if isADF(content) {
		node, err := adf.Parse(content)
		if err != nil {
			return "", errors.Wrap(err, "converting ADF document")
		}
		return adf.Convert(node), nil
	}

	var blocks []string
	collectStrings(gjson.ParseBytes(content), &blocks)
	return strings.Join(blocks, "\n\n"), nil
}

func (c *JSONConverter) SupportedTypes() []string {
	return []string{"application/json"}
}

func isADF(content []byte) bool {
	res := gjson.GetManyBytes(content, "type", "content")
	return res[0].String() == "doc" && res[1].IsArray()
}

func collectStrings(value gjson.Result, blocks *[]string) {
	switch {
	case value.IsObject(), value.IsArray():
		value.ForEach(func(_, child gjson.Result) bool {
			collectStrings(child, blocks)
			return true
		})
	case value.Type == gjson.String:
		if text := strings.TrimSpace(value.String()); text != "" {
			*blocks = append(*blocks, text)
		}
	}
}
