package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/pdbkg/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a knowledge graph repository",
	Long: `Initialize a knowledge graph repository in the current directory.

Creates .pdbkg/ with empty nodes.jsonl and edges.jsonl source files, a
cache directory for the SQLite query layer, and a default config.json.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	if config.IsRepository(cwd) {
		exitWithError(ExitConfigError, "repository already initialized: %s", config.RepoPath(cwd))
	}

	if err := os.MkdirAll(config.CachePath(cwd), 0755); err != nil {
		exitWithError(ExitError, "creating %s: %v", config.CachePath(cwd), err)
	}
	for _, path := range []string{config.NodesPath(cwd), config.EdgesPath(cwd)} {
		if err := os.WriteFile(path, nil, 0644); err != nil {
			exitWithError(ExitError, "creating %s: %v", path, err)
		}
	}
	if err := config.Default().Save(cwd); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized knowledge graph repository in %s\n", config.RepoPath(cwd))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.RepoPath(cwd)})
	}
	return nil
}
