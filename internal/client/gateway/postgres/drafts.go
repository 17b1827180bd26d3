package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/dbx"
)

const draftColumns = `id, owner_id, title, content, created_at, last_modified_at,
		favorited, hidden, archived, published, prompt_origin, prompt_text`

// patchable lists the columns Patch may write.
var patchable = map[string]struct{}{
	"content":          {},
	"title":            {},
	"last_modified_at": {},
	"favorited":        {},
	"hidden":           {},
	"archived":         {},
	"published":        {},
	"prompt_origin":    {},
}

func (g *Gateway) FetchByOwner(ctx context.Context, ownerID string) ([]models.Draft, error) {
	query :=
		`SELECT ` + draftColumns + `
		 FROM drafts
		 WHERE owner_id = $1
		 ORDER BY last_modified_at DESC`

	return g.queryDrafts(ctx, query, ownerID)
}

func (g *Gateway) FetchPublishedByUsername(ctx context.Context, username string) ([]models.Draft, error) {
	query :=
		`SELECT ` + prefixed("d", draftColumns) + `
		 FROM drafts d
		 JOIN usernames u ON u.owner_id = d.owner_id
		 WHERE u.username = $1 AND d.published
		 ORDER BY d.last_modified_at DESC`

	return g.queryDrafts(ctx, query, models.NormalizeUsername(username))
}

func (g *Gateway) queryDrafts(ctx context.Context, query string, args ...any) ([]models.Draft, error) {
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	out := []models.Draft{}
	for rows.Next() {
		var d models.Draft
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Title, &d.Content, &d.CreatedAt, &d.LastModifiedAt,
			&d.Favorited, &d.Hidden, &d.Archived, &d.Published, &d.PromptOrigin, &d.PromptText); err != nil {
			return nil, MapError(&scanError{err})
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

// Create inserts d. Timestamps are assigned by the database.
func (g *Gateway) Create(ctx context.Context, d models.Draft) error {
	query :=
		`INSERT INTO drafts (id, owner_id, title, content, created_at, last_modified_at,
		     favorited, hidden, archived, published, prompt_origin, prompt_text)
		 VALUES ($1, $2, $3, $4, now(), now(), $5, $6, $7, $8, $9, $10)`

	_, err := g.db.ExecContext(ctx, query,
		d.ID, d.OwnerID, d.Title, d.Content,
		d.Favorited, d.Hidden, d.Archived, d.Published, d.PromptOrigin, d.PromptText)
	return MapError(err)
}

// Patch updates only the columns named by delta. A timestamp touch always
// writes the database clock.
func (g *Gateway) Patch(ctx context.Context, id string, delta models.Delta) error {
	if err := models.ValidateDelta(delta); err != nil {
		return common.Wrap(common.ErrMalformed, err)
	}

	query, args, err := patchQuery(id, delta)
	if err != nil {
		return err
	}

	res, err := g.db.ExecContext(ctx, query, args...)
	if err != nil {
		return MapError(err)
	}
	if dbx.RowsAffected(res) == 0 {
		return common.Wrap(common.ErrNotFound, errors.New("draft "+id))
	}
	return nil
}

func patchQuery(id string, delta models.Delta) (string, []any, error) {
	fields := delta.Fields()
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if _, ok := patchable[col]; !ok {
			return "", nil, fmt.Errorf("%w: column %q is not patchable", common.ErrMalformed, col)
		}
		cols = append(cols, col)
	}
	slices.Sort(cols)

	args := []any{id}
	sets := make([]string, 0, len(cols))
	for _, col := range cols {
		if col == "last_modified_at" {
			sets = append(sets, "last_modified_at = now()")
			continue
		}
		args = append(args, fields[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	return `UPDATE drafts SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`, args, nil
}

// Delete removes the draft; a missing id is not an error.
func (g *Gateway) Delete(ctx context.Context, id string) error {
	_, err := g.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = $1`, id)
	return MapError(err)
}

func (g *Gateway) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := g.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM drafts WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, MapError(err)
	}
	return ok, nil
}

func (g *Gateway) CountByOwner(ctx context.Context, ownerID string, filter *models.CountFilter) (int, error) {
	query := `SELECT COUNT(*) FROM drafts WHERE owner_id = $1`
	args := []any{ownerID}
	if filter != nil {
		if !filter.Flag.Valid() {
			return 0, common.Wrap(common.ErrMalformed, models.ErrUnknownFlag)
		}
		query += fmt.Sprintf(" AND %s = $2", filter.Flag)
		args = append(args, filter.Value)
	}

	var n int
	if err := g.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

// prefixed qualifies each column in a comma separated list with alias.
func prefixed(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
