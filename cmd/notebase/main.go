// Package main is the notebase CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/notebase/notebase/internal/assistant"
	"github.com/notebase/notebase/internal/auth"
	"github.com/notebase/notebase/internal/chunker"
	"github.com/notebase/notebase/internal/cli"
	"github.com/notebase/notebase/internal/config"
	"github.com/notebase/notebase/internal/embedding"
	"github.com/notebase/notebase/internal/ingest"
	"github.com/notebase/notebase/internal/llm"
	"github.com/notebase/notebase/internal/models"
	"github.com/notebase/notebase/internal/retriever"
	"github.com/notebase/notebase/internal/server"
	"github.com/notebase/notebase/internal/store"
	"github.com/notebase/notebase/internal/watcher"
	"github.com/notebase/notebase/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/notebase/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory so that running from the project
// dir uses the project's config.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "apikey":
		runAPIKey()
	case "ask":
		runAsk()
	case "retrieve":
		runRetrieve()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("notebase version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// components holds the initialized service graph.
type components struct {
	Store     store.Store
	Embedder  embedding.Embedder
	Pipeline  *ingest.Pipeline
	Retriever *retriever.Retriever
	Assistant *assistant.Assistant
}

func (c *components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	var st store.Store
	var err error
	switch cfg.Storage.Backend {
	case config.BackendBolt:
		st, err = store.NewBoltStore(cfg.Storage.BoltPath)
	default:
		st, err = store.NewSQLiteStore(cfg.Storage.DatabasePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var embedder embedding.Embedder
	switch cfg.Embedding.Provider {
	case config.ProviderRemote:
		embedder = embedding.NewRemoteEmbedder(embedding.RemoteConfig{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			APIKey:     cfg.Embedding.APIKey,
			Dimensions: cfg.Embedding.Dimensions,
			Timeout:    time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
		}, embedding.WithLogger(logger))
	default:
		embedder = embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.CacheSize > 0 {
		embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
	}

	var generator llm.Generator
	switch cfg.Chat.Provider {
	case config.ProviderRemote:
		generator = llm.NewRemoteGenerator(llm.RemoteConfig{
			BaseURL:     cfg.Chat.BaseURL,
			Model:       cfg.Chat.Model,
			APIKey:      cfg.Chat.APIKey,
			MaxTokens:   cfg.Chat.MaxTokens,
			Temperature: cfg.Chat.Temperature,
			Timeout:     time.Duration(cfg.Chat.TimeoutSeconds) * time.Second,
		}, llm.WithLogger(logger))
	default:
		generator = llm.StubGenerator{}
	}

	ch := chunker.New(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	pipeline := ingest.New(st, embedder, ch, ingest.WithLogger(utils.ComponentLogger(logger, "ingest")))
	retr := retriever.New(st, embedder, cfg.Retrieval.TopK, retriever.WithLogger(utils.ComponentLogger(logger, "retriever")))
	asst := assistant.New(retr, generator, assistant.WithLogger(utils.ComponentLogger(logger, "assistant")))

	return &components{
		Store:     st,
		Embedder:  embedder,
		Pipeline:  pipeline,
		Retriever: retr,
		Assistant: asst,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	_ = godotenv.Load()

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	config.ResolveSecrets(cfg, os.Getenv)

	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Bool("debug", debugMode),
	)

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		// The watch tenant never goes through apikey issuance; its user row
		// must exist before the first watched-file ingest or the sqlite
		// backend rejects the document on the user_id foreign key.
		if err := comps.Store.EnsureUser(context.Background(), cfg.Watch.UserID, "directory watcher"); err != nil {
			logger.Fatal("Failed to ensure watch user", zap.Error(err))
		}
		tenant := models.Tenant{UserID: cfg.Watch.UserID, Notebook: cfg.Watch.Notebook}
		ingestor := watcher.NewFileIngestor(comps.Pipeline, tenant, utils.ComponentLogger(logger, "watcher"))
		watchOpts := []watcher.Option{watcher.WithLogger(utils.ComponentLogger(logger, "watcher"))}
		watchSvc := watcher.New(cfg.Watch.Directories, cfg.Watch.Extensions, ingestor.IngestFile, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
		watchSvc.SyncExisting()
	}

	srv := server.NewServer(
		comps.Pipeline,
		comps.Retriever,
		comps.Assistant,
		comps.Store,
		comps.Embedder,
		cfg,
		utils.ComponentLogger(logger, "server"),
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runAPIKey() {
	fs := flag.NewFlagSet("apikey", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	label := fs.String("label", "", "human-readable label for the key")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer comps.Close()

	userID, apiKey, err := auth.CreateUser(context.Background(), comps.Store, *label)
	if err != nil {
		fmt.Printf("Failed to create API key: %v\n", err)
		os.Exit(1)
	}

	// The plaintext key is shown once; only its hash is stored.
	fmt.Printf("User ID: %s\n", userID)
	fmt.Printf("API key: %s\n", apiKey)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	apiKey := fs.String("key", os.Getenv("NOTEBASE_API_KEY"), "API key (default: NOTEBASE_API_KEY env)")
	notebook := fs.String("notebook", "", "notebook to ask")
	topK := fs.Int("top-k", 0, "number of context chunks (0 = server default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if *notebook == "" || question == "" {
		fmt.Println("Usage: notebase ask --notebook <name> [flags] <question>")
		os.Exit(1)
	}

	body, _ := json.Marshal(map[string]interface{}{
		"notebook": *notebook,
		"question": question,
		"top_k":    *topK,
	})
	data, err := postJSON(*serverURL+"/api/v1/ask", *apiKey, body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}

	var answer models.Answer
	if err := json.Unmarshal(data, &answer); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnswer(os.Stdout, &answer, outputFormatOf(*outputFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runRetrieve() {
	fs := flag.NewFlagSet("retrieve", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	apiKey := fs.String("key", os.Getenv("NOTEBASE_API_KEY"), "API key (default: NOTEBASE_API_KEY env)")
	notebook := fs.String("notebook", "", "notebook to search")
	topK := fs.Int("top-k", 0, "number of hits (0 = server default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if *notebook == "" || query == "" {
		fmt.Println("Usage: notebase retrieve --notebook <name> [flags] <query>")
		os.Exit(1)
	}

	params := url.Values{}
	params.Set("notebook", *notebook)
	params.Set("q", query)
	if *topK > 0 {
		params.Set("top_k", fmt.Sprintf("%d", *topK))
	}
	data, err := getJSON(*serverURL+"/api/v1/retrieve?"+params.Encode(), *apiKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Retrieve failed: %v\n", err)
		os.Exit(1)
	}

	var resp struct {
		Query string        `json:"query"`
		Hits  []*models.Hit `json:"hits"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteHits(os.Stdout, resp.Query, resp.Hits, outputFormatOf(*outputFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	data, err := getJSON(*serverURL+"/api/v1/status", "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}

	var status struct {
		Documents         int64  `json:"documents"`
		Chunks            int64  `json:"chunks"`
		StorageBackend    string `json:"storage_backend"`
		EmbeddingProvider string `json:"embedding_provider"`
		EmbeddingDim      int    `json:"embedding_dim"`
		EmbeddingFallback bool   `json:"embedding_fallback"`
	}
	if err := json.Unmarshal(data, &status); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}

	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
		return
	}
	fmt.Printf("documents:           %d\n", status.Documents)
	fmt.Printf("chunks:              %d\n", status.Chunks)
	fmt.Printf("storage_backend:     %s\n", status.StorageBackend)
	fmt.Printf("embedding_provider:  %s\n", status.EmbeddingProvider)
	fmt.Printf("embedding_dim:       %d\n", status.EmbeddingDim)
	fmt.Printf("embedding_fallback:  %t\n", status.EmbeddingFallback)
}

func outputFormatOf(s string) cli.OutputFormat {
	if s == "json" {
		return cli.OutputJSON
	}
	return cli.OutputText
}

func postJSON(u, apiKey string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set(auth.HeaderAPIKey, apiKey)
	}
	return doRequest(req)
}

func getJSON(u, apiKey string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		req.Header.Set(auth.HeaderAPIKey, apiKey)
	}
	return doRequest(req)
}

func doRequest(req *http.Request) ([]byte, error) {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

func printUsage() {
	fmt.Println(`notebase - Notebook-scoped retrieval QA server

Usage:
  notebase server [flags]                   Start the HTTP server
  notebase apikey [flags]                   Create a user and print its API key
  notebase ask [flags] <question>           Ask a question against a notebook
  notebase retrieve [flags] <query>         Retrieve ranked chunks from a notebook
  notebase status [flags]                   Show server status
  notebase version                          Show version
  notebase help                             Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/notebase/config.yaml)
  --debug            Enable debug logging

Apikey Flags:
  --config string    Config file path
  --label string     Human-readable label for the key

Ask / Retrieve Flags:
  --server string    Server URL (default: http://localhost:8080)
  --key string       API key (default: NOTEBASE_API_KEY env)
  --notebook string  Notebook name (required)
  --top-k int        Number of chunks (0 = server default)
  --output string    Output format: text or json (default: text)

Examples:
  notebase server
  notebase apikey --label laptop
  notebase ask --notebook physics "why is the sky blue?"
  notebase retrieve --notebook physics --top-k 3 rayleigh scattering
  notebase status --output json`)
}
