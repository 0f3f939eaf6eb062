package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/resourcehub-backend/internal/data/db"
	"github.com/yungbote/resourcehub-backend/internal/platform/envutil"
)

type Config struct {
	Port        string   `yaml:"port"`
	LogMode     string   `yaml:"log_mode"`
	CORSOrigins []string `yaml:"cors_origins"`

	Postgres db.Config `yaml:"postgres"`

	JWTSecretKey string `yaml:"jwt_secret_key"`

	OpenAI   OpenAIConfig   `yaml:"openai"`
	Pinecone PineconeConfig `yaml:"pinecone"`

	VectorProvider  string `yaml:"vector_provider"`
	VectorNamespace string `yaml:"vector_namespace"`
	EmbedProvider   string `yaml:"embed_provider"`
	SqvectPath      string `yaml:"sqvect_path"`
	SqvectDim       int    `yaml:"sqvect_dim"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisChannel  string `yaml:"redis_channel"`

	Outbox OutboxConfig `yaml:"outbox"`

	MaxResourcesPerUser int64 `yaml:"max_resources_per_user"`
}

type OpenAIConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	EmbedModel string `yaml:"embed_model"`
}

type PineconeConfig struct {
	APIKey          string `yaml:"api_key"`
	APIVersion      string `yaml:"api_version"`
	BaseURL         string `yaml:"base_url"`
	IndexName       string `yaml:"index_name"`
	IndexHost       string `yaml:"index_host"`
	NamespacePrefix string `yaml:"namespace_prefix"`
	EmbedModel      string `yaml:"embed_model"`
}

type OutboxConfig struct {
	Concurrency  int           `yaml:"concurrency"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxAttempts  int           `yaml:"max_attempts"`
	BaseBackoff  time.Duration `yaml:"base_backoff"`
	MaxBackoff   time.Duration `yaml:"max_backoff"`
}

func defaultConfig() Config {
	return Config{
		Port:            "8080",
		LogMode:         "development",
		VectorProvider:  "disabled",
		VectorNamespace: "resources",
		EmbedProvider:   "openai",
		SqvectPath:      "resourcehub_vectors.db",
		RedisChannel:    "resourcehub:events",
		Outbox: OutboxConfig{
			Concurrency:  2,
			PollInterval: 5 * time.Second,
			MaxAttempts:  8,
			BaseBackoff:  5 * time.Second,
			MaxBackoff:   30 * time.Minute,
		},
	}
}

// LoadConfig reads the optional YAML file named by CONFIG_FILE, then applies
// environment overrides.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.validate()
}

func (c *Config) applyEnv() {
	c.Port = envutil.String("PORT", c.Port)
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)
	c.CORSOrigins = envutil.List("CORS_ORIGINS", c.CORSOrigins)

	c.Postgres.DSN = envutil.String("POSTGRES_DSN", c.Postgres.DSN)
	c.Postgres.Host = envutil.String("POSTGRES_HOST", c.Postgres.Host)
	c.Postgres.Port = envutil.String("POSTGRES_PORT", c.Postgres.Port)
	c.Postgres.User = envutil.String("POSTGRES_USER", c.Postgres.User)
	c.Postgres.Password = envutil.String("POSTGRES_PASSWORD", c.Postgres.Password)
	c.Postgres.Name = envutil.String("POSTGRES_NAME", c.Postgres.Name)
	c.Postgres.SSLMode = envutil.String("POSTGRES_SSLMODE", c.Postgres.SSLMode)
	c.Postgres.MaxOpenConns = envutil.Int("POSTGRES_MAX_OPEN_CONNS", c.Postgres.MaxOpenConns)
	c.Postgres.MaxIdleConns = envutil.Int("POSTGRES_MAX_IDLE_CONNS", c.Postgres.MaxIdleConns)

	c.JWTSecretKey = envutil.String("JWT_SECRET_KEY", c.JWTSecretKey)

	c.OpenAI.APIKey = envutil.String("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.BaseURL = envutil.String("OPENAI_BASE_URL", c.OpenAI.BaseURL)
	c.OpenAI.Model = envutil.String("OPENAI_MODEL", c.OpenAI.Model)
	c.OpenAI.EmbedModel = envutil.String("OPENAI_EMBED_MODEL", c.OpenAI.EmbedModel)

	c.Pinecone.APIKey = envutil.String("PINECONE_API_KEY", c.Pinecone.APIKey)
	c.Pinecone.APIVersion = envutil.String("PINECONE_API_VERSION", c.Pinecone.APIVersion)
	c.Pinecone.BaseURL = envutil.String("PINECONE_BASE_URL", c.Pinecone.BaseURL)
	c.Pinecone.IndexName = envutil.String("PINECONE_INDEX_NAME", c.Pinecone.IndexName)
	c.Pinecone.IndexHost = envutil.String("PINECONE_INDEX_HOST", c.Pinecone.IndexHost)
	c.Pinecone.NamespacePrefix = envutil.String("PINECONE_NAMESPACE_PREFIX", c.Pinecone.NamespacePrefix)
	c.Pinecone.EmbedModel = envutil.String("PINECONE_EMBED_MODEL", c.Pinecone.EmbedModel)

	c.VectorProvider = strings.ToLower(envutil.String("VECTOR_PROVIDER", c.VectorProvider))
	c.VectorNamespace = envutil.String("VECTOR_NAMESPACE", c.VectorNamespace)
	c.EmbedProvider = strings.ToLower(envutil.String("EMBED_PROVIDER", c.EmbedProvider))
	c.SqvectPath = envutil.String("SQVECT_PATH", c.SqvectPath)
	c.SqvectDim = envutil.Int("SQVECT_DIM", c.SqvectDim)

	c.RedisAddr = envutil.String("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = envutil.String("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = envutil.Int("REDIS_DB", c.RedisDB)
	c.RedisChannel = envutil.String("REDIS_CHANNEL", c.RedisChannel)

	c.Outbox.Concurrency = envutil.Int("OUTBOX_CONCURRENCY", c.Outbox.Concurrency)
	c.Outbox.PollInterval = envutil.Duration("OUTBOX_POLL_INTERVAL", c.Outbox.PollInterval)
	c.Outbox.MaxAttempts = envutil.Int("OUTBOX_MAX_ATTEMPTS", c.Outbox.MaxAttempts)
	c.Outbox.BaseBackoff = envutil.Duration("OUTBOX_BASE_BACKOFF", c.Outbox.BaseBackoff)
	c.Outbox.MaxBackoff = envutil.Duration("OUTBOX_MAX_BACKOFF", c.Outbox.MaxBackoff)

	c.MaxResourcesPerUser = int64(envutil.Int("MAX_RESOURCES_PER_USER", int(c.MaxResourcesPerUser)))
}

func (c Config) validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("missing JWT_SECRET_KEY")
	}
	switch c.VectorProvider {
	case VectorProviderPinecone, VectorProviderSqvect, VectorProviderDisabled:
	default:
		return fmt.Errorf("unsupported VECTOR_PROVIDER %q", c.VectorProvider)
	}
	switch c.EmbedProvider {
	case EmbedProviderOpenAI, EmbedProviderPinecone:
	default:
		return fmt.Errorf("unsupported EMBED_PROVIDER %q", c.EmbedProvider)
	}
	if c.MaxResourcesPerUser < 0 {
		return fmt.Errorf("MAX_RESOURCES_PER_USER must not be negative")
	}
	return nil
}
