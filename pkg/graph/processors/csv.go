package processors

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// CSVConverter renders each row as "header: value" lines.
type CSVConverter struct{}

func NewCSVConverter() *CSVConverter {
	return &CSVConverter{}
}

// Convert treats the first row as the header; rows are separated by blank
// lines so each row becomes its own block.
func (c *CSVConverter) Convert(ctx context.Context, content []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "reading csv header")
	}

	var rows []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrapf(err, "reading csv row %d", len(rows)+2)
		}

		var lines []string
		for i, value := range record {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			name := fmt.Sprintf("column %d", i+1)
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				name = strings.TrimSpace(header[i])
			}
			lines = append(lines, name+": "+value)
		}
		if len(lines) > 0 {
			rows = append(rows, strings.Join(lines, "\n"))
		}
	}

	return strings.Join(rows, "\n\n"), nil
}

func (c *CSVConverter) SupportedTypes() []string {
	return []string{"text/csv"}
}
