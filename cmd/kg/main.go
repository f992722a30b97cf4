// Package main provides the kg CLI entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/pdbkg/internal/config"
	"github.com/matsen/pdbkg/internal/kgclient"
	"github.com/matsen/pdbkg/internal/logging"
	"github.com/matsen/pdbkg/internal/neo4jgraph"
	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/source"
	"github.com/matsen/pdbkg/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	// backendFlag overrides the configured backend
	backendFlag string
	// envFile is loaded into the environment before configuration is read
	envFile string

	logger    = logging.Discard()
	logWriter io.WriteCloser
)

func main() {
	err := rootCmd.Execute()
	if logWriter != nil {
		logWriter.Close()
	}
	if err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kg",
	Short: "Protein knowledge graph neighborhood explorer",
	Long: `kg explores the neighborhood of selected nodes in a protein knowledge graph.

Given an ordered list of seed nodes, kg stitches shortest paths between
consecutive seeds into a backbone and adds the direct neighbors of every
backbone node. The graph can come from a local SQLite store (built from
git-versionable JSONL), a Neo4j database, or a remote kg server.

All commands output JSON by default for agent integration.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Graph backend: sqlite, neo4j, or remote (default from config)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file with KG_* overrides")
	rootCmd.Version = Version
}

// setup loads the environment file and global config, then builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	config.ResetGlobalConfigCache()
	gcfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading global config: %v", err)
	}
	logger, logWriter = logging.New(logging.Options{
		Level:  gcfg.Log.Level,
		Format: gcfg.Log.Format,
		File:   gcfg.Log.File,
	})
	slog.SetDefault(logger)
	return nil
}

// mustLoadGlobalConfig returns the global config loaded by setup.
func mustLoadGlobalConfig() *config.GlobalConfig {
	gcfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading global config: %v", err)
	}
	return gcfg
}

// getStartingDirectory returns the directory to start searching for a repository.
// Checks the configured repo_path first, then the current working directory.
func getStartingDirectory() (string, int) {
	if root := mustLoadGlobalConfig().RepoPath; root != "" {
		return root, 0
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustFindRepository finds and validates the repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	repoRoot, err := config.FindRepository(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return repoRoot
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(repoRoot string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(repoRoot), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// backendSettings is the resolved backend selection for a command.
type backendSettings struct {
	name    string
	maxHops int
	global  *config.GlobalConfig
}

// resolveBackend picks the backend: --backend, then KG_BACKEND or the global
// config, then the repository config, then sqlite. Only the sqlite backend
// and repository-level max_hops require a repository.
func resolveBackend() backendSettings {
	gcfg := mustLoadGlobalConfig()
	bs := backendSettings{name: backendFlag, maxHops: source.DefaultMaxHops, global: gcfg}
	if bs.name == "" {
		bs.name = gcfg.Backend
	}

	start, _ := getStartingDirectory()
	if root, err := config.FindRepository(start); err == nil {
		cfg := mustLoadConfig(root)
		if bs.name == "" {
			bs.name = cfg.Backend
		}
		bs.maxHops = source.NormalizeHops(cfg.MaxHops)
	}
	if bs.name == "" {
		bs.name = config.BackendSQLite
	}
	if err := config.ValidateBackend(bs.name); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return bs
}

// mustOpenSource connects to the selected backend. The returned func
// releases it.
func mustOpenSource(ctx context.Context, bs backendSettings) (source.Source, func()) {
	switch bs.name {
	case config.BackendNeo4j:
		n := bs.global.Neo4j
		g, err := neo4jgraph.Open(ctx, neo4jgraph.Config{
			URL:      n.URL,
			User:     n.User,
			Password: n.Password,
			Database: n.Database,
		})
		if err != nil {
			exitWithError(exitCodeFor(err), "opening neo4j: %v", err)
		}
		return g, func() { g.Close(context.Background()) }

	case config.BackendRemote:
		opts := []kgclient.ClientOption{}
		if bs.global.RemoteURL != "" {
			opts = append(opts, kgclient.WithBaseURL(bs.global.RemoteURL))
		}
		return kgclient.NewClient(opts...), func() {}

	default:
		db := mustOpenDatabase(mustFindRepository())
		return storage.NewSource(db), func() { db.Close() }
	}
}

// completeKinds offers node kind names for --kind flags.
func completeKinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, 0, len(node.Kinds))
	for _, k := range node.Kinds {
		names = append(names, string(k))
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
