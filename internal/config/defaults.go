package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendSQLite
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/notebase.db"
	}
	if cfg.Storage.BoltPath == "" {
		cfg.Storage.BoltPath = "./data/notebase.bolt"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderHash
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1024
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 30
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Chat.Provider == "" {
		cfg.Chat.Provider = ProviderStub
	}
	if cfg.Chat.MaxTokens == 0 {
		cfg.Chat.MaxTokens = 600
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = 0.2
	}
	if cfg.Chat.TimeoutSeconds == 0 {
		cfg.Chat.TimeoutSeconds = 60
	}
	if cfg.Retrieval.ChunkSize == 0 {
		cfg.Retrieval.ChunkSize = 900
	}
	if cfg.Retrieval.ChunkOverlap == 0 {
		cfg.Retrieval.ChunkOverlap = 150
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".md", ".txt"}
	}
}
