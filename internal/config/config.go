// Package config provides typed configuration for the codebase assistant.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment identifies a deployment environment for external services.
type Environment string

const (
	EnvQA   Environment = "qa"
	EnvBeta Environment = "beta"
	EnvProd Environment = "prod"
)

// ParseEnvironment maps a request string to an Environment.
// Empty or unknown values default to prod, matching the proxy API contract.
func ParseEnvironment(s string) Environment {
	switch Environment(s) {
	case EnvQA:
		return EnvQA
	case EnvBeta:
		return EnvBeta
	default:
		return EnvProd
	}
}

// Repository describes one indexed source repository.
type Repository struct {
	Name       string   `yaml:"name"`
	Root       string   `yaml:"root"`
	Extensions []string `yaml:"extensions"`
}

// IngestConfig holds file scanning and chunking settings.
type IngestConfig struct {
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	Excludes     []string `yaml:"excludes"`
}

// OpenAIConfig holds model endpoint settings.
// BaseURL supports routing through an internal LLM proxy.
type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
	BatchSize      int    `yaml:"batch_size"`
}

// QdrantConfig holds vector store connection settings.
type QdrantConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RetrieveConfig holds query-time retrieval settings.
type RetrieveConfig struct {
	TopK int `yaml:"top_k"`
}

// ExternalConfig holds per-environment settings for the proxied services.
type ExternalConfig struct {
	GraphURLs       map[Environment]string `yaml:"graph_urls"`
	ExecutionURLs   map[Environment]string `yaml:"execution_urls"`
	AnalyticsURLs   map[Environment]string `yaml:"analytics_urls"`
	AnalyticsSecret map[Environment]string `yaml:"analytics_secrets"`
	DatabaseSecrets map[Environment]string `yaml:"database_secrets"`
	DatabaseNames   map[Environment]string `yaml:"database_names"`
	TimeoutSeconds  int                    `yaml:"timeout_seconds"`
	MaxRetries      int                    `yaml:"max_retries"`
	RetryDelaySecs  int                    `yaml:"retry_delay_seconds"`
	AWSRegion       string                 `yaml:"aws_region"`
}

// Timeout returns the per-attempt timeout for external calls.
func (e ExternalConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// RetryDelay returns the fixed delay between retried attempts.
func (e ExternalConfig) RetryDelay() time.Duration {
	return time.Duration(e.RetryDelaySecs) * time.Second
}

// Config is the root configuration.
type Config struct {
	Repositories []Repository   `yaml:"repositories"`
	Ingest       IngestConfig   `yaml:"ingest"`
	OpenAI       OpenAIConfig   `yaml:"openai"`
	Qdrant       QdrantConfig   `yaml:"qdrant"`
	Server       ServerConfig   `yaml:"server"`
	Retrieve     RetrieveConfig `yaml:"retrieve"`
	External     ExternalConfig `yaml:"external"`
	KnowledgeDir string         `yaml:"knowledge_dir"`
}

// DefaultConfig returns the built-in configuration. The two repository
// entries mirror the codebases this assistant answers questions about.
func DefaultConfig() *Config {
	return &Config{
		Repositories: []Repository{
			{Name: "ccp-vap", Root: "./codebases/ccp-vap", Extensions: []string{".java", ".md", ".txt"}},
			{Name: "ccp-execute", Root: "./codebases/ccp-execute", Extensions: []string{".java", ".md", ".txt"}},
		},
		Ingest: IngestConfig{
			ChunkSize:    1000,
			ChunkOverlap: 100,
			Excludes: []string{
				"**/.git/**",
				"**/node_modules/**",
				"**/target/**",
				"**/build/**",
			},
		},
		OpenAI: OpenAIConfig{
			BaseURL:        "https://ciq-litellm-proxy-service.prod-dbx.commerceiq.ai",
			EmbeddingModel: "openai/text-embedding-3-small",
			ChatModel:      "openai/gpt-4o",
			BatchSize:      100,
		},
		Qdrant: QdrantConfig{
			Host: "localhost",
			Port: 6334,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8000",
		},
		Retrieve: RetrieveConfig{
			TopK: 5,
		},
		External: ExternalConfig{
			GraphURLs: map[Environment]string{
				EnvQA:   "http://ccp-vap-qa.commerceiq.ai",
				EnvBeta: "http://ccp-vap-beta.commerceiq.ai",
				EnvProd: "http://ccp-vap.commerceiq.ai",
			},
			ExecutionURLs: map[Environment]string{
				EnvQA:   "http://ccp-execute-qa.commerceiq.ai",
				EnvBeta: "http://ccp-execute-beta.commerceiq.ai",
				EnvProd: "http://ccp-execute.commerceiq.ai",
			},
			AnalyticsURLs: map[Environment]string{
				EnvQA:   "http://databricks-ncs.qa-dbx.commerceiq.ai",
				EnvBeta: "http://databricks-ncs.beta-dbx.commerceiq.ai",
				EnvProd: "http://databricks-ncs.prod-dbx.commerceiq.ai",
			},
			AnalyticsSecret: map[Environment]string{
				EnvQA:   "databricks/qa/sp_ccp",
				EnvBeta: "databricks/beta/sp_ccp",
				EnvProd: "databricks/prod/sp_ccp",
			},
			DatabaseSecrets: map[Environment]string{
				EnvQA:   "rds/beta/ccp-beta-psql",
				EnvBeta: "rds/beta/ccp-beta-psql",
				EnvProd: "rds/prod/ccp-prod-psql",
			},
			DatabaseNames: map[Environment]string{
				EnvQA:   "ccp_qa",
				EnvBeta: "ccp_beta",
				EnvProd: "ccp_prod",
			},
			TimeoutSeconds: 30,
			MaxRetries:     3,
			RetryDelaySecs: 1,
			AWSRegion:      "us-west-2",
		},
		KnowledgeDir: "knowledge",
	}
}

// Load reads configuration from the given YAML file, merged over defaults,
// then applies environment variable overrides. A missing file is not an
// error; defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv("QDRANT_HOST"); v != "" {
		c.Qdrant.Host = v
	}
	if v := os.Getenv("QDRANT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Qdrant.Port = p
		}
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.External.AWSRegion = v
	}
}

// Validate checks invariants that would otherwise fail deep inside the
// pipeline, most importantly that chunk overlap is strictly smaller than
// chunk size (equal or larger overlap would stall the splitter).
func (c *Config) Validate() error {
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size), got %d", c.Ingest.ChunkOverlap)
	}
	// The retriever fans queries out across exactly two sources.
	if len(c.Repositories) != 2 {
		return fmt.Errorf("exactly two repositories must be configured, got %d", len(c.Repositories))
	}
	for _, repo := range c.Repositories {
		if repo.Name == "" || repo.Root == "" {
			return fmt.Errorf("repository entries need both name and root")
		}
	}
	if c.External.MaxRetries <= 0 {
		return fmt.Errorf("external.max_retries must be positive, got %d", c.External.MaxRetries)
	}
	return nil
}

// RepositoryByName returns the configured repository with the given name.
func (c *Config) RepositoryByName(name string) (Repository, bool) {
	for _, repo := range c.Repositories {
		if repo.Name == name {
			return repo, true
		}
	}
	return Repository{}, false
}
