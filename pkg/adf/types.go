package adf

// Node is one element of an Atlassian Document Format tree. Only the root
// "doc" node carries Version.
type Node struct {
	Type    string                 `json:"type"`
	Version int                    `json:"version,omitempty"`
	Text    string                 `json:"text,omitempty"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
	Marks   []*Mark                `json:"marks,omitempty"`
	Content []*Node                `json:"content,omitempty"`
}

// Mark is inline formatting (strong, em, link, ...). Text conversion drops it.
type Mark struct {
	Type  string                 `json:"type"`
	Attrs map[string]interface{} `json:"attrs,omitempty"`
}

// supportedVersion is the only ADF schema version published so far.
const supportedVersion = 1
