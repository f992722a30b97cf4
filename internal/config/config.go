// Package config handles repository configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/pdbkg/internal/source"
)

// Config represents repository configuration stored in .pdbkg/config.json.
type Config struct {
	Backend string `json:"backend"`            // sqlite, neo4j or remote
	MaxHops int    `json:"max_hops,omitempty"` // Path search bound; 0 means the default
}

const (
	RepoDir    = ".pdbkg"
	ConfigFile = "config.json"
	NodesFile  = "nodes.jsonl"
	EdgesFile  = "edges.jsonl"
	CacheDir   = "cache"
	DBFile     = "kg.db"
)

// Backend names accepted in config.json, KG_BACKEND and --backend.
const (
	BackendSQLite = "sqlite"
	BackendNeo4j  = "neo4j"
	BackendRemote = "remote"
)

// ValidBackends lists the supported backend values.
var ValidBackends = []string{BackendSQLite, BackendNeo4j, BackendRemote}

// ErrNotRepository is returned when no .pdbkg directory is found.
var ErrNotRepository = errors.New("not in a pdbkg repository (no .pdbkg directory found)")

// Default returns the configuration written by `kg init`.
func Default() *Config {
	return &Config{Backend: BackendSQLite, MaxHops: source.DefaultMaxHops}
}

func inRepo(root string, parts ...string) string {
	return filepath.Join(append([]string{root, RepoDir}, parts...)...)
}

// RepoPath is root/.pdbkg.
func RepoPath(root string) string { return inRepo(root) }

// ConfigPath is root/.pdbkg/config.json.
func ConfigPath(root string) string { return inRepo(root, ConfigFile) }

// NodesPath is the committed node source of truth.
func NodesPath(root string) string { return inRepo(root, NodesFile) }

// EdgesPath is the committed edge source of truth.
func EdgesPath(root string) string { return inRepo(root, EdgesFile) }

// CachePath holds derived, git-ignored state.
func CachePath(root string) string { return inRepo(root, CacheDir) }

// DBPath is the SQLite query index rebuilt from the JSONL files.
func DBPath(root string) string { return inRepo(root, CacheDir, DBFile) }

// IsRepository reports whether root contains a .pdbkg directory.
func IsRepository(root string) bool {
	info, err := os.Stat(RepoPath(root))
	return err == nil && info.IsDir()
}

// FindRepository returns the nearest directory at or above start that
// contains .pdbkg, or ErrNotRepository.
func FindRepository(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	for !IsRepository(dir) {
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotRepository
		}
		dir = parent
	}
	return dir, nil
}

// Load reads root's config.json over the defaults. A repository without one
// uses the defaults unchanged.
func Load(root string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(ConfigPath(root))
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFile, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes c as indented JSON to root's config.json.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(root), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks the backend name and hop bound.
func (c *Config) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendSQLite
	}
	if err := ValidateBackend(c.Backend); err != nil {
		return err
	}
	if c.MaxHops < 0 {
		return fmt.Errorf("invalid max_hops: %d (must be >= 0)", c.MaxHops)
	}
	return nil
}

// ValidateBackend checks that the backend value is valid.
func ValidateBackend(backend string) error {
	for _, valid := range ValidBackends {
		if backend == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid backend: %s (valid: %v)", backend, ValidBackends)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
