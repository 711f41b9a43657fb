package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	CORS      CORSConfig      `yaml:"cors"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    string `yaml:"port"`
	Env     string `yaml:"env"`
	Version string `yaml:"version"`
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // "sqlite" or "postgres"
	DSN  string `yaml:"dsn"`
	Path string `yaml:"path"` // For SQLite: file path
}

type AuthConfig struct {
	Mode     string        `yaml:"mode"` // "jwt" or "none"
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
	Issuer   string        `yaml:"issuer"`
}

type LLMConfig struct {
	Provider string        `yaml:"provider"` // "gemini" or "openai"
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Enabled reports whether a generation backend can be constructed.
func (c LLMConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

type RetrievalConfig struct {
	WikipediaRESTURL string        `yaml:"wikipedia_rest_url"`
	WikipediaAPIURL  string        `yaml:"wikipedia_api_url"`
	SearchURL        string        `yaml:"search_url"`
	WebSearchEnabled bool          `yaml:"web_search_enabled"`
	HTTPTimeout      time.Duration `yaml:"http_timeout"`
	SearchTimeout    time.Duration `yaml:"search_timeout"`
	UserAgent        string        `yaml:"user_agent"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "otlp"
	Endpoint string `yaml:"endpoint"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads .env, the optional YAML file, then environment overrides.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Default()

	path := getEnv("CONFIG_FILE", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.Database.DSN == "" {
		cfg.Database.DSN, cfg.Database.Path = buildDSN(cfg.Database)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    "8000",
			Env:     "development",
			Version: "1.0.0",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: "./data/concept_explainer.db",
		},
		Auth: AuthConfig{
			Mode:     "jwt",
			Secret:   "your-secret-key-change-in-production",
			TokenTTL: 30 * time.Minute,
			Issuer:   "concept-explainer",
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-pro",
			Timeout:  60 * time.Second,
		},
		Retrieval: RetrievalConfig{
			WikipediaRESTURL: "https://en.wikipedia.org/api/rest_v1",
			WikipediaAPIURL:  "https://en.wikipedia.org/w/api.php",
			SearchURL:        "https://html.duckduckgo.com/html/",
			WebSearchEnabled: true,
			HTTPTimeout:      5 * time.Second,
			SearchTimeout:    8 * time.Second,
			UserAgent:        "concept-explainer/1.0 (educational backend)",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Tracing: TracingConfig{
			Exporter: "stdout",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.Env = getEnv("ENV", c.Server.Env)

	c.Database.Type = getEnv("DB_TYPE", c.Database.Type)
	c.Database.DSN = getEnv("DATABASE_URL", c.Database.DSN)
	c.Database.Path = getEnv("SQLITE_PATH", c.Database.Path)

	c.Auth.Mode = getEnv("AUTH_MODE", c.Auth.Mode)
	c.Auth.Secret = getEnv("JWT_SECRET_KEY", c.Auth.Secret)
	c.Auth.TokenTTL = getDuration("ACCESS_TOKEN_TTL", c.Auth.TokenTTL)

	c.LLM.Provider = getEnv("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.Timeout = getDuration("LLM_TIMEOUT", c.LLM.Timeout)
	switch c.LLM.Provider {
	case "openai":
		c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	default:
		c.LLM.APIKey = getEnv("GEMINI_API_KEY", c.LLM.APIKey)
	}

	c.Retrieval.WikipediaRESTURL = getEnv("WIKIPEDIA_REST_URL", c.Retrieval.WikipediaRESTURL)
	c.Retrieval.WikipediaAPIURL = getEnv("WIKIPEDIA_API_URL", c.Retrieval.WikipediaAPIURL)
	c.Retrieval.SearchURL = getEnv("WEB_SEARCH_URL", c.Retrieval.SearchURL)
	c.Retrieval.WebSearchEnabled = getBool("WEB_SEARCH_ENABLED", c.Retrieval.WebSearchEnabled)
	c.Retrieval.HTTPTimeout = getDuration("RETRIEVAL_HTTP_TIMEOUT", c.Retrieval.HTTPTimeout)
	c.Retrieval.SearchTimeout = getDuration("WEB_SEARCH_TIMEOUT", c.Retrieval.SearchTimeout)

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.CORS.AllowedOrigins = splitList(origins)
	}

	c.Tracing.Enabled = getBool("OTEL_ENABLED", c.Tracing.Enabled)
	c.Tracing.Exporter = getEnv("OTEL_EXPORTER", c.Tracing.Exporter)
	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
}

// Validate rejects unknown enum values and unusable settings.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if p, err := strconv.Atoi(c.Server.Port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	switch c.Auth.Mode {
	case "jwt":
		if c.Auth.Secret == "" {
			return fmt.Errorf("jwt secret is required when auth mode is jwt")
		}
		if c.Auth.TokenTTL <= 0 {
			return fmt.Errorf("token ttl must be positive")
		}
	case "none":
	default:
		return fmt.Errorf("unsupported auth mode: %s", c.Auth.Mode)
	}

	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported llm provider: %s", c.LLM.Provider)
	}

	if c.Retrieval.HTTPTimeout <= 0 || c.Retrieval.SearchTimeout <= 0 {
		return fmt.Errorf("retrieval timeouts must be positive")
	}

	if c.Tracing.Enabled {
		switch c.Tracing.Exporter {
		case "stdout", "otlp":
		default:
			return fmt.Errorf("unsupported tracing exporter: %s", c.Tracing.Exporter)
		}
	}

	return nil
}

func buildDSN(db DatabaseConfig) (string, string) {
	if db.Type == "postgres" {
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_NAME", "concept_explainer"),
			getEnv("DB_SSLMODE", "disable"),
		)
		return dsn, ""
	}

	return db.Path + "?mode=rwc&cache=shared&_busy_timeout=5000", db.Path
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
