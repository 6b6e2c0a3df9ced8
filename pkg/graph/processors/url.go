package processors

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/pkg/errors"
)

// maxFetchSize caps how much of a response body is read.
const maxFetchSize = 10 << 20

// URLConverter fetches web pages and renders them as markdown.
type URLConverter struct {
	client *http.Client
}

func NewURLConverter(client *http.Client) *URLConverter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &URLConverter{client: client}
}

// Fetch downloads rawURL and converts the body. Non-HTML bodies are returned
// as text.
func (c *URLConverter) Fetch(ctx context.Context, rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "", fmt.Errorf("unsupported url scheme: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "building request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "failed to fetch %s", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("failed to fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return "", errors.Wrap(err, "failed to read response body")
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return strings.ToValidUTF8(string(body), "�"), nil
	}
	return c.Convert(ctx, body)
}

// Convert renders an HTML page as markdown.
func (c *URLConverter) Convert(ctx context.Context, content []byte) (string, error) {
	md, err := htmltomarkdown.ConvertString(string(content))
	if err != nil {
		return "", errors.Wrap(err, "failed to convert HTML to Markdown")
	}
	return strings.TrimSpace(md), nil
}

func (c *URLConverter) SupportedTypes() []string {
	return []string{"text/html"}
}
