package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athapong/docgraph-mcp/pkg/config"
	"github.com/athapong/docgraph-mcp/pkg/graph/metrics"
	"github.com/athapong/docgraph-mcp/prompts"
	"github.com/athapong/docgraph-mcp/services"
	"github.com/athapong/docgraph-mcp/tools"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	envFile := flag.String("env", ".env", "Path to environment file")
	configFile := flag.String("config", "", "Path to docgraph.yaml")
	enableSSE := flag.Bool("sse", false, "Enable SSE server")
	sseAddr := flag.String("sse-addr", ":8080", "Address for SSE server to listen on")
	sseBasePath := flag.String("sse-base-path", "/mcp", "Base path for SSE endpoints")
	metricsAddr := flag.String("metrics-addr", "", "Address for the Prometheus metrics endpoint in SSE mode")
	flag.Parse()

	cfg, err := config.Load(*envFile, *configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *metricsAddr != "" {
		cfg.Server.MetricsAddr = *metricsAddr
	}

	// stdout carries the stdio transport
	logger := cfg.NewLogger()
	logger.SetOutput(os.Stderr)
	logrus.SetOutput(os.Stderr)

	svc := services.New(cfg, logger)
	defer svc.Close()

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"docgraph-mcp",
		"1.0.0",
		server.WithLogging(),
		server.WithPromptCapabilities(true),
		server.WithToolCapabilities(true),
	)

	tools.RegisterToolManagerTool(mcpServer, svc)

	if cfg.ToolEnabled("structure") {
		tools.RegisterStructureTools(mcpServer, svc)
	}

	if cfg.ToolEnabled("graph") {
		tools.RegisterGraphTools(mcpServer, svc)
	}

	if cfg.ToolEnabled("search") {
		tools.RegisterSearchTool(mcpServer, svc)
	}

	if cfg.ToolEnabled("fetch") {
		tools.RegisterFetchTool(mcpServer)
	}

	prompts.RegisterReviewPrompts(mcpServer)

	if !*enableSSE && os.Getenv("ENABLE_SSE") != "true" {
		if err := server.ServeStdio(mcpServer); err != nil {
			logger.WithError(err).Fatal("Server error")
		}
		return
	}

	sseServer := server.NewSSEServer(
		mcpServer,
		server.WithBasePath(*sseBasePath),
		server.WithKeepAlive(true),
	)

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":      *sseAddr,
			"base_path": *sseBasePath,
		}).Info("Starting SSE server")
		if err := sseServer.Start(*sseAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start SSE server")
		}
	}()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddr != "" {
		metricsServer = serveMetrics(cfg.Server.MetricsAddr, logger)
	}

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.WithField("signal", sig.String()).Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sseServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Error during SSE server shutdown")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("Error during metrics server shutdown")
		}
	}
	logger.Info("SSE server shutdown complete")
}

func serveMetrics(addr string, logger *logrus.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			metrics.UpdateSystemMetrics()
		}
	}()

	go func() {
		logger.WithField("addr", addr).Info("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Metrics server stopped")
		}
	}()
	return srv
}
