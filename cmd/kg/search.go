package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/source"
)

var (
	searchKind  string
	searchLimit int
)

func init() {
	searchCmd.Flags().StringVar(&searchKind, "kind", "", "Only return nodes of this kind")
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results")
	searchCmd.RegisterFlagCompletionFunc("kind", completeKinds)
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search nodes by ID, name, or description",
	Long: `Search nodes by ID, name, description, or synonyms.

Examples:
  kg search kinase
  kg search "ATP binding" --kind annotation --limit 10`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	var kind node.Kind
	if searchKind != "" {
		k, err := node.ParseKind(searchKind)
		exitOnError(err, "parsing --kind")
		kind = k
	}

	ctx := cmd.Context()
	bs := resolveBackend()
	src, closeSrc := mustOpenSource(ctx, bs)
	defer closeSrc()

	searcher, ok := src.(source.Searcher)
	if !ok {
		exitWithError(ExitError, "backend %s does not support search", bs.name)
	}
	nodes, err := searcher.Search(ctx, args[0], kind, searchLimit)
	exitOnError(err, "searching")

	if humanOutput {
		printNodeList(nodes)
	} else {
		outputJSON(newNodeList(nodes))
	}
	return nil
}
