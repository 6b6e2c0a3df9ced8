package services

import (
	"github.com/athapong/docgraph-mcp/pkg/config"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

func newOpenAIClient(cfg config.OpenAIConfig) (*openai.Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set, please set it in MCP Config")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return openai.NewClientWithConfig(clientConfig), nil
}
