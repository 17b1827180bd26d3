// Package surreal implements gateway.Gateway on SurrealDB tables drafts,
// users and usernames using parameterized SurrealQL.
package surreal

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/gophjournal/internal/client/gateway"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

const (
	tableDrafts    = "drafts"
	tableUsers     = "users"
	tableUsernames = "usernames"
)

var _ gateway.Gateway = (*Gateway)(nil)

// Config holds connection settings. User and Pass may be empty for
// unauthenticated local servers.
type Config struct {
	URL       string
	Namespace string
	Database  string
	User      string
	Pass      string
}

type Gateway struct {
	db *surrealdb.DB
}

// Open dials the server over WebSocket with the surrealcbor codec, signs in
// and selects the namespace and database.
func Open(ctx context.Context, cfg Config) (*Gateway, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conf := connection.NewConfig(u)
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	db, err := surrealdb.FromConnection(ctx, gorillaws.New(conf))
	if err != nil {
		return nil, MapError(err)
	}

	if cfg.User != "" && cfg.Pass != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.User,
			"pass": cfg.Pass,
		}); err != nil {
			_ = db.Close(ctx)
			return nil, MapError(err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, MapError(err)
	}

	return &Gateway{db: db}, nil
}

func (g *Gateway) Close(ctx context.Context) error {
	return g.db.Close(ctx)
}

// query runs one statement batch and returns the rows of the last
// statement.
func query[T any](ctx context.Context, g *Gateway, sql string, vars map[string]any) ([]T, error) {
	res, err := surrealdb.Query[[]T](ctx, g.db, sql, vars)
	if err != nil {
		return nil, MapError(err)
	}
	if res == nil || len(*res) == 0 {
		return nil, nil
	}
	return (*res)[len(*res)-1].Result, nil
}
