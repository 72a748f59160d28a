package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the updater configuration for a single run.
type Config struct {
	Remote   string         `yaml:"remote,omitempty"`   // remote to fetch from, defaults to "origin"
	Branch   string         `yaml:"branch,omitempty"`   // tracked branch, defaults to "master"
	Identity Identity       `yaml:"identity,omitempty"` // committer identity for merge commits and snapshots
	Trust    bool           `yaml:"trust,omitempty"`    // trust the repository path regardless of on-disk ownership metadata
	Journal  *JournalConfig `yaml:"journal,omitempty"`
}

// Identity is the signature used for merge commits and snapshots.
type Identity struct {
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// JournalConfig enables the optional SQLite run journal.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Remote:   "origin",
		Branch:   "master",
		Identity: Identity{Name: "repoupdate", Email: "repoupdate@localhost"},
	}
}

// Load loads configuration from the specified YAML file, applying environment
// overrides and defaults. An empty path yields the default configuration with
// environment overrides only.
func Load(configPath string) (*Config, error) {
	// Load .env/.env.local if present; existing process env always wins.
	loadEnvFile()

	cfg := Default()

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Expand environment variables in the YAML content
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// loadEnvFile loads environment variables from .env/.env.local files.
// It attempts each supported filename in order and stops at the first
// successfully parsed file. Existing env vars are never overwritten.
func loadEnvFile() {
	for _, envPath := range []string{".env", ".env.local"} {
		if err := godotenv.Load(envPath); err == nil {
			fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
			return
		}
	}
}

// applyEnvOverrides layers REPOUPDATE_* environment variables over cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPOUPDATE_REMOTE"); v != "" {
		cfg.Remote = v
	}
	if v := os.Getenv("REPOUPDATE_BRANCH"); v != "" {
		cfg.Branch = v
	}
	if v := os.Getenv("REPOUPDATE_IDENTITY_NAME"); v != "" {
		cfg.Identity.Name = v
	}
	if v := os.Getenv("REPOUPDATE_IDENTITY_EMAIL"); v != "" {
		cfg.Identity.Email = v
	}
	if v := os.Getenv("REPOUPDATE_JOURNAL"); v != "" {
		cfg.Journal = &JournalConfig{Path: v}
	}
	if v := os.Getenv("REPOUPDATE_TRUST_REPO_PATH"); v == "1" || v == "true" {
		cfg.Trust = true
	}
}

// applyDefaults fills any field a partial config file left empty.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Remote == "" {
		cfg.Remote = def.Remote
	}
	if cfg.Branch == "" {
		cfg.Branch = def.Branch
	}
	if cfg.Identity.Name == "" {
		cfg.Identity.Name = def.Identity.Name
	}
	if cfg.Identity.Email == "" {
		cfg.Identity.Email = def.Identity.Email
	}
}
