package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophjournal/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-b string   remote store backend
//	-a string   identity service address
//	-d string   local sqlite database path
//	-l string   log level
//
// args is filtered with flagx.FilterArgs first so flags owned by other
// components (such as -c) do not cause parse errors.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-b", "-a", "-d", "-l"})

	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "remote store backend: surreal, postgres or memory")
	fs.StringVar(&cfg.IdentityAddr, "a", cfg.IdentityAddr, "address and port of the identity service")
	fs.StringVar(&cfg.LocalDBPath, "d", cfg.LocalDBPath, "path of the local database")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	return fs.Parse(args)
}
