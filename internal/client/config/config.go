package config

import (
	"fmt"
	"os"
	"time"
)

// Remote store backends.
const (
	BackendSurreal  = "surreal"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds runtime settings for the journal shell.
type Config struct {
	Backend string

	SurrealURL       string
	SurrealNamespace string
	SurrealDatabase  string
	SurrealUser      string
	SurrealPass      string

	PostgresDSN string

	IdentityAddr string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	PromptCount    int
	SearchDebounce time.Duration

	LocalDBPath string

	LogLevel   string
	LogBackend string
}

// LoadDefaults populates c with sensible defaults for a local setup.
func (c *Config) LoadDefaults() {
	c.Backend = BackendSurreal
	c.SurrealURL = "ws://127.0.0.1:8000/rpc"
	c.SurrealNamespace = "journal"
	c.SurrealDatabase = "journal"
	c.IdentityAddr = "127.0.0.1:50051"
	c.S3Region = "us-east-1"
	c.S3Bucket = "journal"
	c.LLMBaseURL = "http://127.0.0.1:8080"
	c.LLMModel = "gpt-4o-mini"
	c.PromptCount = 5
	c.SearchDebounce = 250 * time.Millisecond
	c.LocalDBPath = "journal.db"
	c.LogLevel = "info"
	c.LogBackend = "slog"
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSurreal, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Backend == BackendPostgres && c.PostgresDSN == "" {
		return fmt.Errorf("backend %q needs a postgres dsn", c.Backend)
	}
	if c.PromptCount <= 0 {
		return fmt.Errorf("prompt count must be positive, got %d", c.PromptCount)
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("search debounce must not be negative")
	}
	return nil
}

// Load builds a Config from defaults, the environment, the JSON file named
// in args and finally the flags in args. args excludes the program name.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args; it panics on invalid configuration.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}
