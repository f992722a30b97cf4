package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/source"
)

var (
	neighborsKind      string
	neighborsAnnotated bool
)

func init() {
	neighborsCmd.Flags().StringVar(&neighborsKind, "kind", "", "Only list neighbors of this kind")
	neighborsCmd.Flags().BoolVar(&neighborsAnnotated, "annotated", false, "List the proteins linked to an annotation (same as --kind protein)")
	neighborsCmd.RegisterFlagCompletionFunc("kind", completeKinds)
	neighborsCmd.MarkFlagsMutuallyExclusive("kind", "annotated")
	rootCmd.AddCommand(neighborsCmd)
}

var neighborsCmd = &cobra.Command{
	Use:   "neighbors <id>",
	Short: "List the direct neighbors of a node",
	Long: `List the direct neighbors of a node, optionally of one kind.

Examples:
  kg neighbors 1ABC_1
  kg neighbors GO:0004672 --annotated
  kg neighbors DB00619 --kind annotation`,
	Args: cobra.ExactArgs(1),
	RunE: runNeighbors,
}

func runNeighbors(cmd *cobra.Command, args []string) error {
	var kind node.Kind
	if neighborsKind != "" {
		k, err := node.ParseKind(neighborsKind)
		exitOnError(err, "parsing --kind")
		kind = k
	}

	ctx := cmd.Context()
	src, closeSrc := mustOpenSource(ctx, resolveBackend())
	defer closeSrc()

	var nodes []node.Node
	var err error
	if neighborsAnnotated {
		nodes, err = source.FetchAnnotated(ctx, src, args[0])
	} else {
		nodes, err = source.NeighborsOfKind(ctx, src, args[0], kind)
	}
	exitOnError(err, "fetching neighbors")

	if humanOutput {
		printNodeList(nodes)
	} else {
		outputJSON(newNodeList(nodes))
	}
	return nil
}
