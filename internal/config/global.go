package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/pdbkg/config.yml.
// Every field can be overridden by the KG_* environment variable named in its
// env tag.
type GlobalConfig struct {
	RepoPath  string      `yaml:"repo_path,omitempty" env:"KG_REPO"`
	Backend   string      `yaml:"backend,omitempty" env:"KG_BACKEND"`
	RemoteURL string      `yaml:"remote_url,omitempty" env:"KG_REMOTE_URL"`
	Addr      string      `yaml:"addr,omitempty" env:"KG_ADDR"`
	Neo4j     Neo4jConfig `yaml:"neo4j,omitempty"`
	Log       LogConfig   `yaml:"log,omitempty"`
}

// Neo4jConfig holds the connection settings for the neo4j backend.
type Neo4jConfig struct {
	URL      string `yaml:"url,omitempty" env:"KG_NEO4J_URL"`
	User     string `yaml:"user,omitempty" env:"KG_NEO4J_USER"`
	Password string `yaml:"password,omitempty" env:"KG_NEO4J_PASSWORD"`
	Database string `yaml:"database,omitempty" env:"KG_NEO4J_DATABASE"`
}

// LogConfig selects the log level, format and optional rotated file.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" env:"KG_LOG_LEVEL"`
	Format string `yaml:"format,omitempty" env:"KG_LOG_FORMAT"`
	File   string `yaml:"file,omitempty" env:"KG_LOG_FILE"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "pdbkg"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
	// DefaultAddr is where `kg serve` listens unless configured otherwise.
	DefaultAddr = "localhost:8080"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// DefaultGlobalConfig returns the values used when neither the YAML file nor
// the environment sets a field.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		Addr:  DefaultAddr,
		Neo4j: Neo4jConfig{URL: "neo4j://localhost:7687", User: "neo4j", Database: "neo4j"},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/pdbkg/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment,
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Overload(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LoadGlobalConfig loads the global configuration: defaults, then the YAML
// file if present, then KG_* environment variables.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	cfg := DefaultGlobalConfig()

	if path := GlobalConfigPath(); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.RepoPath != "" {
		cfg.RepoPath = ExpandPath(cfg.RepoPath)
	}
	if cfg.Log.File != "" {
		cfg.Log.File = ExpandPath(cfg.Log.File)
	}
	if cfg.Backend != "" {
		if err := ValidateBackend(cfg.Backend); err != nil {
			return nil, err
		}
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// HelpfulConfigMessage returns a hint shown when no repository can be found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No pdbkg repository found.

Run 'kg init' in a directory, or set a default repository in %s:
  mkdir -p %s
  echo 'repo_path: /path/to/your/kg' > %s

KG_REPO overrides the configured path.`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
