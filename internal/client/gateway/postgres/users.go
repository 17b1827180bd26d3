package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophjournal/internal/client/gateway"
	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/dbx"
)

// RegisterProfile inserts the profile and reserves its username in one
// transaction.
func (g *Gateway) RegisterProfile(ctx context.Context, p models.Profile) error {
	p, err := p.Normalize()
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, g.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (owner_id, username, email, created_at)
			 VALUES ($1, $2, $3, now())`,
			p.OwnerID, p.Username, p.Email); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO usernames (username, owner_id) VALUES ($1, $2)`,
			p.Username, p.OwnerID)
		return err
	})
	return MapError(err)
}

func (g *Gateway) Profile(ctx context.Context, ownerID string) (models.Profile, error) {
	query :=
		`SELECT owner_id, username, email, created_at FROM users
		 WHERE owner_id = $1`

	var p models.Profile
	err := g.db.QueryRowContext(ctx, query, ownerID).Scan(&p.OwnerID, &p.Username, &p.Email, &p.CreatedAt)
	if err != nil {
		return models.Profile{}, MapError(err)
	}
	return p, nil
}

func (g *Gateway) ResolveUsername(ctx context.Context, username string) (string, error) {
	var owner string
	err := g.db.QueryRowContext(ctx,
		`SELECT owner_id FROM usernames WHERE username = $1`,
		models.NormalizeUsername(username)).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.Wrap(common.ErrNotFound, errors.New("username "+username))
	}
	if err != nil {
		return "", MapError(err)
	}
	return owner, nil
}

// SearchUsernamesByPrefix returns up to limit entries in key order whose
// username starts with prefix.
func (g *Gateway) SearchUsernamesByPrefix(ctx context.Context, prefix string, limit int) ([]models.UsernameEntry, error) {
	if gateway.BlankPrefix(prefix) {
		return []models.UsernameEntry{}, nil
	}
	lo, hi := gateway.PrefixRange(prefix)

	rows, err := g.db.QueryContext(ctx,
		`SELECT username, owner_id FROM usernames
		 WHERE username >= $1 AND username < $2
		 ORDER BY username
		 LIMIT $3`,
		lo, hi, gateway.ClampLimit(limit))
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	out := []models.UsernameEntry{}
	for rows.Next() {
		var e models.UsernameEntry
		if err := rows.Scan(&e.Username, &e.OwnerID); err != nil {
			return nil, MapError(&scanError{err})
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}
