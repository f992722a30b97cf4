package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/pdbkg/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set repository configuration values",
	Long: `Show, read or change values in .pdbkg/config.json.

  kg config                  # every key
  kg config backend          # one key
  kg config backend neo4j    # change a key
  kg config max-hops 4

Keys:
  backend   Graph backend: sqlite, neo4j, or remote
  max-hops  Default bound on path length between consecutive seeds

Neo4j credentials, the remote URL and logging are read from the global
config file and KG_* environment variables instead.`,
	Args:              cobra.MaximumNArgs(2),
	RunE:              runConfig,
	ValidArgsFunction: completeConfigKeys,
}

// ConfigResponse is the response for config get commands.
type ConfigResponse struct {
	Backend string `json:"backend,omitempty"`
	MaxHops int    `json:"max_hops,omitempty"`
}

// configKey reads one field into a response and parses a new value into cfg.
type configKey struct {
	get func(cfg *config.Config, out *ConfigResponse) string
	set func(cfg *config.Config, value string) (exitCode int, err error)
}

var configKeys = map[string]configKey{
	"backend": {
		get: func(cfg *config.Config, out *ConfigResponse) string {
			out.Backend = cfg.Backend
			return cfg.Backend
		},
		set: func(cfg *config.Config, value string) (int, error) {
			if err := config.ValidateBackend(value); err != nil {
				return ExitConfigError, err
			}
			cfg.Backend = value
			return ExitSuccess, nil
		},
	},
	"max-hops": {
		get: func(cfg *config.Config, out *ConfigResponse) string {
			out.MaxHops = cfg.MaxHops
			return strconv.Itoa(cfg.MaxHops)
		},
		set: func(cfg *config.Config, value string) (int, error) {
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return ExitError, fmt.Errorf("max-hops must be a positive integer: %s", value)
			}
			cfg.MaxHops = n
			return ExitSuccess, nil
		},
	},
}

func configKeyNames() []string {
	names := make([]string, 0, len(configKeys))
	for name := range configKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runConfig(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	if len(args) == 0 {
		var resp ConfigResponse
		for _, name := range configKeyNames() {
			v := configKeys[name].get(cfg, &resp)
			if humanOutput {
				fmt.Printf("%-9s %s\n", name+":", v)
			}
		}
		if !humanOutput {
			outputJSON(resp)
		}
		return nil
	}

	name := normalizeKey(args[0])
	key, ok := configKeys[name]
	if !ok {
		exitWithError(ExitError, "unknown configuration key: %s (valid: %s)", args[0], strings.Join(configKeyNames(), ", "))
	}

	if len(args) == 1 {
		var resp ConfigResponse
		v := key.get(cfg, &resp)
		if humanOutput {
			fmt.Println(v)
		} else {
			outputJSON(resp)
		}
		return nil
	}

	value := args[1]
	if code, err := key.set(cfg, value); err != nil {
		exitWithError(code, "%v", err)
	}
	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Set %s = %s\n", name, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: name, Value: value})
	}
	return nil
}

func completeConfigKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return configKeyNames(), cobra.ShellCompDirectiveNoFileComp
}

// normalizeKey accepts max-hops, max_hops and MAX_HOPS alike.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "-")
}
