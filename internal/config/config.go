// Package config provides configuration loading and structs for the notebase server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage backend identifiers.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Provider identifiers for embeddings and answer generation.
const (
	ProviderHash   = "hash"
	ProviderRemote = "remote"
	ProviderStub   = "stub"
)

// Config holds all configuration for the application. It is built once at
// process start and passed into component constructors; components never
// read process environment themselves.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the backing engine and its paths.
type StorageConfig struct {
	Backend      string `yaml:"backend"` // sqlite | bolt
	DatabasePath string `yaml:"database_path"`
	BoltPath     string `yaml:"bolt_path"`
}

// EmbeddingConfig holds embedding provider settings. APIKey is resolved from
// the environment once in main (APIKeyEnv names the variable); it is never
// read inside the provider.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // hash | remote
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	APIKey         string `yaml:"-"`
	Dimensions     int    `yaml:"dimensions"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CacheSize      int    `yaml:"cache_size"`
}

// ChatConfig holds answer generator settings.
type ChatConfig struct {
	Provider       string  `yaml:"provider"` // stub | remote
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	APIKey         string  `yaml:"-"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// RetrievalConfig holds chunking and ranking knobs.
type RetrievalConfig struct {
	ChunkSize    int `yaml:"chunk_size"`    // characters
	ChunkOverlap int `yaml:"chunk_overlap"` // characters
	TopK         int `yaml:"top_k"`
}

// WatchConfig maps local directories of markdown/text files to one tenant
// notebook. Empty Directories disables the watcher.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	UserID      string   `yaml:"user_id"`
	Notebook    string   `yaml:"notebook"`
	Extensions  []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, expands paths, applies
// defaults, and validates. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BoltPath = expandPath(cfg.Storage.BoltPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Validate rejects unsupported backend and provider selections.
func Validate(cfg *Config) error {
	switch cfg.Storage.Backend {
	case BackendSQLite, BackendBolt:
	default:
		return fmt.Errorf("unsupported storage backend %q (use %s or %s)",
			cfg.Storage.Backend, BackendSQLite, BackendBolt)
	}
	switch cfg.Embedding.Provider {
	case ProviderHash, ProviderRemote:
	default:
		return fmt.Errorf("unsupported embedding provider %q (use %s or %s)",
			cfg.Embedding.Provider, ProviderHash, ProviderRemote)
	}
	switch cfg.Chat.Provider {
	case ProviderStub, ProviderRemote:
	default:
		return fmt.Errorf("unsupported chat provider %q (use %s or %s)",
			cfg.Chat.Provider, ProviderStub, ProviderRemote)
	}
	if cfg.Retrieval.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", cfg.Retrieval.ChunkSize)
	}
	if len(cfg.Watch.Directories) > 0 && (cfg.Watch.UserID == "" || cfg.Watch.Notebook == "") {
		return fmt.Errorf("watch requires user_id and notebook")
	}
	return nil
}

// ResolveSecrets fills APIKey fields from the environment variables named by
// the *_env settings. Called once in main, after godotenv has loaded .env.
func ResolveSecrets(cfg *Config, lookup func(string) string) {
	if cfg.Embedding.APIKeyEnv != "" {
		cfg.Embedding.APIKey = lookup(cfg.Embedding.APIKeyEnv)
	}
	if cfg.Chat.APIKeyEnv != "" {
		cfg.Chat.APIKey = lookup(cfg.Chat.APIKeyEnv)
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
