package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/pdbkg/internal/config"
	"github.com/matsen/pdbkg/internal/storage"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Reindex nodes.jsonl and edges.jsonl into SQLite",
	Long: `Drop and recreate .pdbkg/cache/kg.db from the committed JSONL files.

Run it after pulling new graph data. Edges that point at a node missing from
nodes.jsonl are left out of the index and reported as orphans.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := mustFindRepository()
		db := mustOpenDatabase(repoRoot)
		defer db.Close()

		result := mustRebuild(db, repoRoot)
		if !humanOutput {
			return outputJSON(result)
		}
		fmt.Printf("Indexed %d nodes and %d edges\n", result.Nodes, result.Edges)
		if result.Orphans > 0 {
			fmt.Printf("  %d orphaned edges skipped\n", result.Orphans)
		}
		if result.DuplicatePairs > 0 {
			fmt.Printf("  %d node pairs have more than one relationship\n", result.DuplicatePairs)
		}
		return nil
	},
}

// RebuildResult is the JSON body printed by rebuild and embedded in import.
type RebuildResult struct {
	Status string `json:"status"`
	storage.RebuildStats
}

func mustRebuild(db *storage.DB, repoRoot string) RebuildResult {
	stats, err := db.RebuildFromJSONL(config.NodesPath(repoRoot), config.EdgesPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding database: %v", err)
	}
	if stats.Orphans > 0 {
		logger.Warn("skipped orphaned edges", "count", stats.Orphans)
	}
	if stats.DuplicatePairs > 0 {
		logger.Debug("node pairs with parallel relationships", "count", stats.DuplicatePairs)
	}
	return RebuildResult{Status: "rebuilt", RebuildStats: stats}
}
