package adf

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parse decodes an ADF document.
func Parse(data []byte) (*Node, error) {
	var node Node
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to decode ADF document: %w", err)
	}
	if node.Type != "doc" {
		return nil, fmt.Errorf("not an ADF document: root type %q", node.Type)
	}
	if node.Version != 0 && node.Version != supportedVersion {
		return nil, fmt.Errorf("unsupported ADF version %d", node.Version)
	}
	return &node, nil
}

// Convert renders an ADF node as plain text. Block nodes are separated by
// blank lines and inline formatting is dropped, so the result segments into
// one paragraph per block.
func Convert(node *Node) string {
	if node == nil {
		return ""
	}

	var blocks []string
	collectBlocks(node, &blocks)
	return strings.Join(blocks, "\n\n")
}

func collectBlocks(node *Node, blocks *[]string) {
	switch node.Type {
	case "paragraph", "heading":
		appendBlock(blocks, inlineText(node))
	case "bulletList", "orderedList":
		var items []string
		for i, item := range node.Content {
			marker := "-"
			if node.Type == "orderedList" {
				marker = fmt.Sprintf("%d.", i+1)
			}
			if text := strings.TrimSpace(inlineText(item)); text != "" {
				items = append(items, marker+" "+text)
			}
		}
		appendBlock(blocks, strings.Join(items, "\n"))
	case "codeBlock":
		appendBlock(blocks, rawText(node))
	case "table":
		for _, row := range node.Content {
			var cells []string
			for _, cell := range row.Content {
				if text := strings.TrimSpace(inlineText(cell)); text != "" {
					cells = append(cells, text)
				}
			}
			appendBlock(blocks, strings.Join(cells, " | "))
		}
	case "rule":
	default:
		for _, child := range node.Content {
			collectBlocks(child, blocks)
		}
	}
}

func appendBlock(blocks *[]string, text string) {
	if text = strings.TrimSpace(text); text != "" {
		*blocks = append(*blocks, text)
	}
}

// inlineText flattens the text of node and its descendants onto one line.
func inlineText(node *Node) string {
	var b strings.Builder
	writeInline(node, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func writeInline(node *Node, b *strings.Builder) {
	switch node.Type {
	case "text":
		b.WriteString(node.Text)
	case "hardBreak":
		b.WriteString(" ")
	case "mention", "emoji", "status":
		if text, ok := node.Attrs["text"].(string); ok {
			b.WriteString(strings.TrimPrefix(text, "@"))
		}
	case "inlineCard":
		if url, ok := node.Attrs["url"].(string); ok {
			b.WriteString(url)
		}
	default:
		for i, child := range node.Content {
			if i > 0 && isBlock(child) {
				b.WriteString(" ")
			}
			writeInline(child, b)
		}
	}
}

func rawText(node *Node) string {
	var b strings.Builder
	for _, child := range node.Content {
		b.WriteString(child.Text)
	}
	return b.String()
}

func isBlock(node *Node) bool {
	switch node.Type {
	case "paragraph", "heading", "bulletList", "orderedList", "listItem", "codeBlock", "blockquote":
		return true
	}
	return false
}
