package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFiles are loaded, if present, before JOURNAL_* variables are read.
var envFiles = []string{".env"}

// loadDotenv is swapped in tests.
var loadDotenv = func(files ...string) {
	for _, f := range files {
		// a missing file is fine
		_ = godotenv.Load(f)
	}
}

// parseEnv overlays cfg with JOURNAL_* variables. Empty variables are
// ignored.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	loadDotenv(envFiles...)

	get := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	get("JOURNAL_BACKEND", &cfg.Backend)
	get("JOURNAL_SURREAL_URL", &cfg.SurrealURL)
	get("JOURNAL_SURREAL_NS", &cfg.SurrealNamespace)
	get("JOURNAL_SURREAL_DB", &cfg.SurrealDatabase)
	get("JOURNAL_SURREAL_USER", &cfg.SurrealUser)
	get("JOURNAL_SURREAL_PASS", &cfg.SurrealPass)
	get("JOURNAL_PG_DSN", &cfg.PostgresDSN)
	get("JOURNAL_IDENTITY_ADDR", &cfg.IdentityAddr)
	get("JOURNAL_S3_ENDPOINT", &cfg.S3Endpoint)
	get("JOURNAL_S3_REGION", &cfg.S3Region)
	get("JOURNAL_S3_BUCKET", &cfg.S3Bucket)
	get("JOURNAL_S3_ACCESS_KEY", &cfg.S3AccessKey)
	get("JOURNAL_S3_SECRET_KEY", &cfg.S3SecretKey)
	get("JOURNAL_LLM_BASE_URL", &cfg.LLMBaseURL)
	get("JOURNAL_LLM_API_KEY", &cfg.LLMAPIKey)
	get("JOURNAL_LLM_MODEL", &cfg.LLMModel)
	get("JOURNAL_LOCAL_DB", &cfg.LocalDBPath)
	get("JOURNAL_LOG_LEVEL", &cfg.LogLevel)
	get("JOURNAL_LOG_BACKEND", &cfg.LogBackend)

	if v, ok := lookup("JOURNAL_PROMPT_COUNT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("JOURNAL_PROMPT_COUNT must be a valid integer: %w", err)
		}
		cfg.PromptCount = n
	}
	if v, ok := lookup("JOURNAL_SEARCH_DEBOUNCE"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JOURNAL_SEARCH_DEBOUNCE: %w", err)
		}
		cfg.SearchDebounce = d
	}
	return nil
}
