package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/pdbkg/internal/node"
)

var getKind string

func init() {
	getCmd.Flags().StringVar(&getKind, "kind", "", "Node kind hint (protein, annotation, drug, ...)")
	getCmd.RegisterFlagCompletionFunc("kind", completeKinds)
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a single node by ID",
	Long: `Get a single node's attributes by its ID.

Example:
  kg get 1ATP_1 --kind protein`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	kind, err := node.ParseKind(getKind)
	exitOnError(err, "parsing --kind")

	ctx := cmd.Context()
	src, closeSrc := mustOpenSource(ctx, resolveBackend())
	defer closeSrc()

	n, err := src.FetchDetails(ctx, node.Ref{ID: args[0], Kind: kind})
	exitOnError(err, "getting node")

	if humanOutput {
		printNodeDetail(n)
	} else {
		outputJSON(n)
	}
	return nil
}
