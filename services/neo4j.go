package services

import (
	"context"

	"github.com/athapong/docgraph-mcp/pkg/config"
	"github.com/athapong/docgraph-mcp/pkg/graph/storage"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func newNeo4jSink(cfg config.Neo4jConfig, logger *logrus.Logger) (*storage.Neo4jSink, error) {
	if cfg.URI == "" {
		return nil, errors.New("NEO4J_URI is not set, please set it in MCP Config")
	}

	sink, err := storage.NewNeo4jSink(cfg.URI, cfg.Username, cfg.Password, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := sink.Connect(context.Background()); err != nil {
		sink.Close()
		return nil, err
	}
	return sink, nil
}
