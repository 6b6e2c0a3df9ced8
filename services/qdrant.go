package services

import (
	"github.com/athapong/docgraph-mcp/pkg/config"
	"github.com/pkg/errors"
	"github.com/qdrant/go-client/qdrant"
)

func newQdrantClient(cfg config.QdrantConfig) (*qdrant.Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("QDRANT_HOST is not set, please set it in MCP Config")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to Qdrant")
	}
	return client, nil
}
