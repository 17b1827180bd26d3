// Package config loads runtime configuration for the journal shell.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: JOURNAL_* variables, after loading an optional .env file
//     from the working directory (see parseEnv). Variables already set in
//     the process environment win over .env values.
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-b string   remote store backend: surreal, postgres or memory
//	-a string   address:port of the identity gRPC endpoint
//	-d string   path of the local sqlite database
//	-l string   log level: debug, info, warn, error
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like
// "250ms" or integer nanoseconds:
//
//	{
//	  "backend": "surreal",
//	  "surreal_url": "ws://localhost:8000/rpc",
//	  "surreal_namespace": "journal",
//	  "surreal_database": "journal",
//	  "identity_addr": "127.0.0.1:50051",
//	  "s3_bucket": "journal",
//	  "llm_base_url": "http://localhost:8080",
//	  "prompt_count": 5,
//	  "search_debounce": "250ms"
//	}
//
// Unlike the environment, JSON only overrides keys that are present.
package config
