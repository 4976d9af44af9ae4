// Package config provides configuration loading and validation for ragassist.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load. They override the YAML file.
const (
	EnvServingEndpoint = "SERVING_ENDPOINT"
	EnvProvider        = "ENDPOINT_PROVIDER"
	EnvDatabricksHost  = "DATABRICKS_HOST"
	EnvDatabricksToken = "DATABRICKS_TOKEN"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvAddr            = "RAGASSIST_ADDR"
	EnvLogLevel        = "RAGASSIST_LOG_LEVEL"
	EnvUserEmail       = "RAGASSIST_USER_EMAIL"
)

// Supported endpoint providers.
const (
	ProviderDatabricks = "databricks"
	ProviderGemini     = "gemini"
)

// Supported session store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

var (
	// ErrMissingEndpoint means no serving endpoint was configured.
	ErrMissingEndpoint = errors.New(EnvServingEndpoint + " environment variable is not set")

	// ErrMissingCredentials means the selected provider lacks what it needs to connect.
	ErrMissingCredentials = errors.New("endpoint provider credentials are not set")
)

// Config is the full application configuration.
type Config struct {
	Endpoint EndpointConfig `yaml:"endpoint"`
	Server   ServerConfig   `yaml:"server"`
	LogLevel string         `yaml:"log_level"`
	UI       UIConfig       `yaml:"ui"`
	Session  SessionConfig  `yaml:"session"`
}

// EndpointConfig selects and authenticates the serving endpoint.
type EndpointConfig struct {
	Name      string        `yaml:"name"`
	Provider  string        `yaml:"provider"`
	Host      string        `yaml:"host"`
	Token     string        `yaml:"token"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
}

// ServerConfig configures the browser surface.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SessionConfig configures session lifetime and persistence.
type SessionConfig struct {
	Store           string        `yaml:"store"`
	Path            string        `yaml:"path"` // directory for file, database file for sqlite
	Window          time.Duration `yaml:"window"`
	SaveInterval    time.Duration `yaml:"save_interval"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	// RateLimitBurst questions may be sent at once, then one per
	// RateLimitRefill. Zero disables the limit.
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	RateLimitRefill time.Duration `yaml:"rate_limit_refill"`
}

// Resource is a quick-resource link shown beside the chat.
type Resource struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// UIConfig holds the page content around the conversation.
type UIConfig struct {
	Title     string     `yaml:"title"`
	Subtitle  string     `yaml:"subtitle"`
	Footer    string     `yaml:"footer"`
	UserEmail string     `yaml:"user_email"` // terminal surface only
	Questions []string   `yaml:"questions"`
	Resources []Resource `yaml:"resources"`
	HelpTips  []string   `yaml:"help_tips"`
}

// Default returns the configuration used when nothing is overridden.
// The endpoint name has no default.
func Default() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			Provider:  ProviderDatabricks,
			Timeout:   120 * time.Second,
			MaxTokens: 400,
		},
		Server: ServerConfig{
			Addr:            ":8000",
			ShutdownTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			Store:           StoreMemory,
			Window:          30 * time.Minute,
			SaveInterval:    time.Minute,
			CleanupInterval: time.Minute,
			RateLimitBurst:  10,
			RateLimitRefill: 6 * time.Second,
		},
		LogLevel: "info",
		UI: UIConfig{
			Title:    "Databricks RAG Assistant",
			Subtitle: "Powered by Lakeflow, Vector Search and Apps",
			Footer:   "Powered by Lakeflow, Vector Search & Apps",
			Questions: []string{
				"What is Lakeflow and how does it work?",
				"How can I ingest data into Databricks using Lakeflow?",
				"What source systems are supported by Lakeflow?",
				"Explain the benefits of using Databricks for data processing",
			},
			Resources: []Resource{
				{Title: "Databricks Documentation", URL: "https://docs.databricks.com"},
				{Title: "SharePoint Documentation", URL: "https://learn.microsoft.com/en-us/sharepoint/"},
			},
			HelpTips: []string{
				"Click any suggested question to use it",
				"Use the reset button to clear chat history",
				"Questions are processed using RAG on SharePoint data",
			},
		},
	}
}

// Load reads the optional YAML file at path, applies environment overrides
// and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	set(&c.Endpoint.Name, EnvServingEndpoint)
	set(&c.Endpoint.Provider, EnvProvider)
	set(&c.Endpoint.Host, EnvDatabricksHost)
	set(&c.Endpoint.Token, EnvDatabricksToken)
	set(&c.Endpoint.APIKey, EnvGeminiAPIKey)
	set(&c.Server.Addr, EnvAddr)
	set(&c.LogLevel, EnvLogLevel)
	set(&c.UI.UserEmail, EnvUserEmail)
}

// Validate checks that the configuration can start the application and
// fills in store paths that were left empty.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Endpoint.Name) == "" {
		return ErrMissingEndpoint
	}

	switch strings.ToLower(c.Endpoint.Provider) {
	case ProviderDatabricks:
		if c.Endpoint.Host == "" {
			return fmt.Errorf("%w: %s is required for the databricks provider", ErrMissingCredentials, EnvDatabricksHost)
		}
	case ProviderGemini:
		if c.Endpoint.APIKey == "" {
			return fmt.Errorf("%w: %s is required for the gemini provider", ErrMissingCredentials, EnvGeminiAPIKey)
		}
	default:
		return fmt.Errorf("invalid endpoint provider '%s' (must be '%s' or '%s')",
			c.Endpoint.Provider, ProviderDatabricks, ProviderGemini)
	}
	c.Endpoint.Provider = strings.ToLower(c.Endpoint.Provider)

	if c.Endpoint.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.Endpoint.MaxTokens)
	}
	if c.Endpoint.Timeout <= 0 {
		return fmt.Errorf("endpoint timeout must be positive, got %s", c.Endpoint.Timeout)
	}

	switch c.Session.Store {
	case StoreMemory:
	case StoreFile:
		if c.Session.Path == "" {
			c.Session.Path = "data"
		}
	case StoreSQLite:
		if c.Session.Path == "" {
			c.Session.Path = filepath.Join("data", "sessions.db")
		}
	default:
		return fmt.Errorf("invalid session store '%s' (must be '%s', '%s' or '%s')",
			c.Session.Store, StoreMemory, StoreFile, StoreSQLite)
	}

	if c.Session.RateLimitBurst < 0 {
		return fmt.Errorf("rate_limit_burst cannot be negative, got %d", c.Session.RateLimitBurst)
	}
	if c.Session.RateLimitBurst > 0 && c.Session.RateLimitRefill <= 0 {
		return fmt.Errorf("rate_limit_refill must be positive when rate limiting is enabled")
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if len(c.UI.Questions) == 0 {
		return fmt.Errorf("at least one suggested question is required")
	}
	for i, r := range c.UI.Resources {
		if r.Title == "" || r.URL == "" {
			return fmt.Errorf("resource %d: title and url are required", i)
		}
	}

	return nil
}

// ParseLevel converts a log level name into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': %w", s, err)
	}
	return level, nil
}
