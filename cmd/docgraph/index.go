package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index <file>...",
	Short: "Structure files and store them in every configured sink",
	Long: `Index structures each file and stores the result in the local document
store, in Qdrant (one vector per paragraph) when OpenAI and Qdrant are
configured, and in Neo4j when NEO4J_URI is set. A failing sink is reported
but does not stop indexing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pipeline := svc.Ingest()
		out := cmd.OutOrStdout()

		failed := 0
		for _, path := range args {
			doc, report, err := pipeline.RunWithReport(ctx, path)
			if err != nil {
				failed++
				fmt.Fprintf(out, "%s: %v\n", path, err)
				continue
			}

			fmt.Fprintf(out, "%s: %d paragraphs, %d entities, %d relationships; stored in %s\n",
				doc.Source, len(doc.Paragraphs), len(doc.Entities), len(doc.Relationships), strings.Join(report.Stored, ", "))
			for sink, msg := range report.Failed {
				fmt.Fprintf(out, "  %s sink failed: %s\n", sink, msg)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be indexed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
