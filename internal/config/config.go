// Package config loads the server and CLI configuration.
//
// Values are resolved in three layers: Default(), then an optional YAML
// file, then environment variables. Secrets (API keys) are normally left out
// of the file and come from the environment or SSM.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fpang/creatia/internal/batch"
	"github.com/fpang/creatia/internal/imagegen"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreDynamo = "dynamodb"
)

// Config is the complete configuration tree.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Provider    string            `yaml:"provider"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	Batch       BatchConfig       `yaml:"batch"`
	Resources   ResourcesConfig   `yaml:"resources"`
	Store       StoreConfig       `yaml:"store"`
	Mirror      MirrorConfig      `yaml:"mirror"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// OpenAIConfig configures the OpenAI image and chat clients.
type OpenAIConfig struct {
	APIKey            string `yaml:"api_key"`
	BaseURL           string `yaml:"base_url"`
	ImageModel        string `yaml:"image_model"`
	ChatModel         string `yaml:"chat_model"`
	OutputCompression int    `yaml:"output_compression"`
}

// GeminiConfig configures the Gemini image client.
type GeminiConfig struct {
	APIKey     string `yaml:"api_key"`
	ImageModel string `yaml:"image_model"`
	ChatModel  string `yaml:"chat_model"`
}

// BatchConfig configures the batch service.
type BatchConfig struct {
	MaxCount    int `yaml:"max_count"`
	PoolSize    int `yaml:"pool_size"`
	JPEGQuality int `yaml:"jpeg_quality"`
}

// ResourcesConfig points at the resource catalog root.
type ResourcesConfig struct {
	Root string `yaml:"root"`
}

// StoreConfig selects where finished batch reports are kept.
type StoreConfig struct {
	Backend     string        `yaml:"backend"`
	TTL         time.Duration `yaml:"ttl"`
	RedisAddr   string        `yaml:"redis_addr"`
	RedisDB     int           `yaml:"redis_db"`
	DynamoTable string        `yaml:"dynamo_table"`
}

// MirrorConfig enables uploading persisted images to S3.
type MirrorConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// CredentialsConfig names SSM parameters holding API keys.
type CredentialsConfig struct {
	OpenAIKeyParam string `yaml:"openai_key_param"`
	GeminiKeyParam string `yaml:"gemini_key_param"`
}

// MetricsConfig controls EMF output.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
		Provider: imagegen.ProviderOpenAI,
		OpenAI: OpenAIConfig{
			BaseURL:    "https://api.openai.com/v1",
			ImageModel: imagegen.DefaultModel(imagegen.ProviderOpenAI),
			ChatModel:  "gpt-4o",
		},
		Gemini: GeminiConfig{
			ImageModel: imagegen.DefaultModel(imagegen.ProviderGemini),
			ChatModel:  "gemini-2.5-flash",
		},
		Batch: BatchConfig{
			MaxCount:    batch.MaxCount,
			PoolSize:    batch.DefaultPoolSize,
			JPEGQuality: batch.DefaultJPEGQuality,
		},
		Resources: ResourcesConfig{Root: "resources_content"},
		Store: StoreConfig{
			Backend:   StoreMemory,
			TTL:       24 * time.Hour,
			RedisAddr: "localhost:6379",
		},
		Metrics: MetricsConfig{Namespace: "Creatia"},
	}
}

// Load returns Default() overlaid with the YAML file at path (skipped when
// path is empty) and then with environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", key, v, err)
		}
		*dst = n
		return nil
	}

	setString(&c.Provider, "CREATIA_PROVIDER")
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.OpenAI.ImageModel, "CREATIA_OPENAI_IMAGE_MODEL")
	setString(&c.OpenAI.ChatModel, "CREATIA_OPENAI_CHAT_MODEL")
	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Gemini.ImageModel, "CREATIA_GEMINI_IMAGE_MODEL")
	setString(&c.Gemini.ChatModel, "CREATIA_GEMINI_CHAT_MODEL")
	setString(&c.Resources.Root, "CREATIA_RESOURCES_ROOT")
	setString(&c.Store.Backend, "CREATIA_STORE")
	setString(&c.Store.RedisAddr, "REDIS_ADDR")
	setString(&c.Store.DynamoTable, "CREATIA_DYNAMO_TABLE")
	setString(&c.Mirror.Bucket, "CREATIA_MIRROR_BUCKET")
	setString(&c.Mirror.Prefix, "CREATIA_MIRROR_PREFIX")
	setString(&c.Credentials.OpenAIKeyParam, "CREATIA_OPENAI_KEY_PARAM")
	setString(&c.Credentials.GeminiKeyParam, "CREATIA_GEMINI_KEY_PARAM")

	if err := setInt(&c.Server.Port, "CREATIA_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Batch.PoolSize, "CREATIA_POOL_SIZE"); err != nil {
		return err
	}
	if v := os.Getenv("CREATIA_METRICS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CREATIA_METRICS=%q: %w", v, err)
		}
		c.Metrics.Enabled = enabled
	}

	c.Provider = strings.ToLower(c.Provider)
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Provider {
	case imagegen.ProviderOpenAI, imagegen.ProviderGemini:
	default:
		return fmt.Errorf("unknown provider %q (want openai or gemini)", c.Provider)
	}

	switch c.Store.Backend {
	case StoreMemory, StoreRedis:
	case StoreDynamo:
		if c.Store.DynamoTable == "" {
			return fmt.Errorf("store.dynamo_table is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Batch.MaxCount != batch.MaxCount {
		return fmt.Errorf("batch.max_count is fixed at %d", batch.MaxCount)
	}
	if c.Batch.PoolSize <= 0 {
		return fmt.Errorf("batch.pool_size must be positive")
	}
	if c.Batch.JPEGQuality <= 0 || c.Batch.JPEGQuality > 100 {
		return fmt.Errorf("batch.jpeg_quality must be in 1..100")
	}
	if c.OpenAI.OutputCompression < 0 || c.OpenAI.OutputCompression > 100 {
		return fmt.Errorf("openai.output_compression must be in 0..100")
	}
	if c.Store.TTL <= 0 {
		return fmt.Errorf("store.ttl must be positive")
	}
	return nil
}

// ImageModel returns the configured image model for the active provider. A
// blank entry falls back to imagegen.DefaultModel.
func (c *Config) ImageModel() string {
	model := c.OpenAI.ImageModel
	if c.Provider == imagegen.ProviderGemini {
		model = c.Gemini.ImageModel
	}
	if model = strings.TrimSpace(model); model == "" {
		return imagegen.DefaultModel(c.Provider)
	}
	return model
}

// ChatModel returns the configured planner chat model for the active provider.
func (c *Config) ChatModel() string {
	if c.Provider == imagegen.ProviderGemini {
		return c.Gemini.ChatModel
	}
	return c.OpenAI.ChatModel
}
