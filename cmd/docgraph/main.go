// Package main is the docgraph command line: it structures documents into
// paragraphs, entities and relationships and manages the resulting indexes.
package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/athapong/docgraph-mcp/pkg/config"
	"github.com/athapong/docgraph-mcp/services"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// svc is built by the root command before any subcommand runs.
var svc *services.Services

var rootCmd = &cobra.Command{
	Use:   "docgraph",
	Short: "Structure documents into paragraphs, entities and relationships",
	Long: `docgraph converts documents (txt, md, pdf, docx, csv, html, json) to text,
splits them into paragraphs and extracts the people, companies, locations and
concepts they mention together with the relationships between them.

Results can be printed, merged into a knowledge graph, or indexed into the
configured stores (Qdrant for paragraph vectors, Neo4j for the entity graph).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		envFile, _ := cmd.Flags().GetString("env")

		cfg, err := config.Load(envFile, configFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		logger := cfg.NewLogger()
		logger.SetOutput(cmd.ErrOrStderr())
		svc = services.New(cfg, logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if svc != nil {
			return svc.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docgraph.yaml or ~/.config/docgraph/docgraph.yaml)")
	rootCmd.PersistentFlags().String("env", ".env", "path to environment file")
	rootCmd.PersistentFlags().String("log-level", "info", "logging level (debug, info, warn, error)")
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("docgraph failed")
		os.Exit(1)
	}
}
