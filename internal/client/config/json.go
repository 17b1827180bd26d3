package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophjournal/internal/flagx"
	"github.com/dmitrijs2005/gophjournal/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell "absent" from "empty" so a partial file only overrides what
// it names.
type JsonConfig struct {
	Backend string `json:"backend"`

	SurrealURL       string `json:"surreal_url"`
	SurrealNamespace string `json:"surreal_namespace"`
	SurrealDatabase  string `json:"surreal_database"`
	SurrealUser      string `json:"surreal_user"`
	SurrealPass      string `json:"surreal_pass"`

	PostgresDSN  string `json:"postgres_dsn"`
	IdentityAddr string `json:"identity_addr"`

	S3Endpoint  string `json:"s3_endpoint"`
	S3Region    string `json:"s3_region"`
	S3Bucket    string `json:"s3_bucket"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`

	LLMBaseURL string `json:"llm_base_url"`
	LLMAPIKey  string `json:"llm_api_key"`
	LLMModel   string `json:"llm_model"`

	PromptCount    *int            `json:"prompt_count"`
	SearchDebounce *timex.Duration `json:"search_debounce"`

	LocalDBPath string `json:"local_db_path"`
	LogLevel    string `json:"log_level"`
	LogBackend  string `json:"log_backend"`
}

// parseJson overlays cfg with the JSON file given by -c/-config in args.
// Without such a flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Backend, jc.Backend)
	set(&cfg.SurrealURL, jc.SurrealURL)
	set(&cfg.SurrealNamespace, jc.SurrealNamespace)
	set(&cfg.SurrealDatabase, jc.SurrealDatabase)
	set(&cfg.SurrealUser, jc.SurrealUser)
	set(&cfg.SurrealPass, jc.SurrealPass)
	set(&cfg.PostgresDSN, jc.PostgresDSN)
	set(&cfg.IdentityAddr, jc.IdentityAddr)
	set(&cfg.S3Endpoint, jc.S3Endpoint)
	set(&cfg.S3Region, jc.S3Region)
	set(&cfg.S3Bucket, jc.S3Bucket)
	set(&cfg.S3AccessKey, jc.S3AccessKey)
	set(&cfg.S3SecretKey, jc.S3SecretKey)
	set(&cfg.LLMBaseURL, jc.LLMBaseURL)
	set(&cfg.LLMAPIKey, jc.LLMAPIKey)
	set(&cfg.LLMModel, jc.LLMModel)
	set(&cfg.LocalDBPath, jc.LocalDBPath)
	set(&cfg.LogLevel, jc.LogLevel)
	set(&cfg.LogBackend, jc.LogBackend)

	if jc.PromptCount != nil {
		cfg.PromptCount = *jc.PromptCount
	}
	if jc.SearchDebounce != nil {
		cfg.SearchDebounce = jc.SearchDebounce.Duration
	}
	return nil
}
