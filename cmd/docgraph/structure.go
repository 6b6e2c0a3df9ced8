package main

import (
	"io"
	"strings"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/spf13/cobra"
)

var structureCmd = &cobra.Command{
	Use:   "structure <file|url|->",
	Short: "Print the structured document for a file, a URL or stdin",
	Long: `Structure converts the input to text and prints the structured document as
JSON: its paragraphs, the entities each paragraph mentions and the
relationships between them. Use "-" to read plain text from stdin. Nothing is
stored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		input := args[0]

		var doc *graph.Document
		switch {
		case input == "-":
			text, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			doc = svc.Structurer().Run(string(text), graph.Source{Name: name, Type: "text"})
		case strings.HasPrefix(input, "http://"), strings.HasPrefix(input, "https://"):
			var err error
			if doc, err = svc.Converter().RunURL(ctx, input); err != nil {
				return err
			}
		default:
			var err error
			if doc, err = svc.Converter().Structure(ctx, input); err != nil {
				return err
			}
		}

		return writeJSON(cmd.OutOrStdout(), doc)
	},
}

func init() {
	structureCmd.Flags().String("name", "stdin", "source name for text read from stdin")

	rootCmd.AddCommand(structureCmd)
}
