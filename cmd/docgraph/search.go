package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic search over indexed paragraphs",
	Long: `Search embeds the query, finds the closest paragraphs in Qdrant and prints
each hit with its neighbouring paragraphs and the entities it mentions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		retriever, err := svc.Retriever()
		if err != nil {
			return err
		}

		hits, err := retriever.Search(cmd.Context(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, hits)
		}
		if len(hits) == 0 {
			fmt.Fprintln(out, "No results found.")
			return nil
		}
		for i, hit := range hits {
			fmt.Fprintf(out, "Result %d (Score: %.4f)\nSource: %s #%s\n%s\n", i+1, hit.Score, hit.Source, hit.ParagraphID, hit.Text)
			if len(hit.Entities) > 0 {
				names := make([]string, len(hit.Entities))
				for j, e := range hit.Entities {
					names[j] = e.Name()
				}
				fmt.Fprintf(out, "Entities: %s\n", strings.Join(names, ", "))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 5, "maximum number of results")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
