package surreal

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/common"
)

const (
	stmtFetchByOwner = `SELECT * FROM drafts WHERE owner_id = $owner ORDER BY last_modified_at DESC`

	stmtFetchPublished = `SELECT * FROM drafts WHERE owner_id = $owner AND published = true ORDER BY last_modified_at DESC`

	stmtCreate = `CREATE $rid SET
		draft_id = $id,
		owner_id = $owner,
		title = $title,
		content = $content,
		favorited = $favorited,
		hidden = $hidden,
		archived = $archived,
		published = $published,
		prompt_origin = $prompt_origin,
		prompt_text = $prompt_text,
		created_at = time::now(),
		last_modified_at = time::now()
		RETURN NONE`

	stmtMerge = `UPDATE $rid MERGE $fields RETURN draft_id`

	stmtTouch = `UPDATE $rid SET last_modified_at = time::now() RETURN draft_id`

	stmtDelete = `DELETE $rid`

	stmtExists = `SELECT draft_id FROM $rid`
)

func (g *Gateway) FetchByOwner(ctx context.Context, ownerID string) ([]models.Draft, error) {
	rs, err := query[draftRecord](ctx, g, stmtFetchByOwner, map[string]any{"owner": ownerID})
	if err != nil {
		return nil, err
	}
	return draftsOf(rs), nil
}

func (g *Gateway) FetchPublishedByUsername(ctx context.Context, username string) ([]models.Draft, error) {
	owner, err := g.ResolveUsername(ctx, username)
	if errors.Is(err, common.ErrNotFound) {
		return []models.Draft{}, nil
	}
	if err != nil {
		return nil, err
	}

	rs, err := query[draftRecord](ctx, g, stmtFetchPublished, map[string]any{"owner": owner})
	if err != nil {
		return nil, err
	}
	return draftsOf(rs), nil
}

// Create stores d under its own id. Timestamps come from the server clock.
func (g *Gateway) Create(ctx context.Context, d models.Draft) error {
	_, err := query[any](ctx, g, stmtCreate, map[string]any{
		"rid":           draftRID(d.ID),
		"id":            d.ID,
		"owner":         d.OwnerID,
		"title":         d.Title,
		"content":       d.Content,
		"favorited":     d.Favorited,
		"hidden":        d.Hidden,
		"archived":      d.Archived,
		"published":     d.Published,
		"prompt_origin": d.PromptOrigin,
		"prompt_text":   d.PromptText,
	})
	return err
}

// patchStatement picks the statement for delta. Timestamp touches use the
// server clock; everything else merges only the delta's fields.
func patchStatement(id string, delta models.Delta) (string, map[string]any) {
	if _, ok := delta.(models.TimestampTouched); ok {
		return stmtTouch, map[string]any{"rid": draftRID(id)}
	}
	return stmtMerge, map[string]any{"rid": draftRID(id), "fields": delta.Fields()}
}

func (g *Gateway) Patch(ctx context.Context, id string, delta models.Delta) error {
	if err := models.ValidateDelta(delta); err != nil {
		return common.Wrap(common.ErrMalformed, err)
	}

	stmt, vars := patchStatement(id, delta)
	rs, err := query[map[string]any](ctx, g, stmt, vars)
	if err != nil {
		return err
	}
	if len(rs) == 0 {
		return common.Wrap(common.ErrNotFound, errors.New("draft "+id))
	}
	return nil
}

// Delete removes the record; deleting a missing record succeeds.
func (g *Gateway) Delete(ctx context.Context, id string) error {
	_, err := query[any](ctx, g, stmtDelete, map[string]any{"rid": draftRID(id)})
	return err
}

func (g *Gateway) Exists(ctx context.Context, id string) (bool, error) {
	rs, err := query[map[string]any](ctx, g, stmtExists, map[string]any{"rid": draftRID(id)})
	if err != nil {
		return false, err
	}
	return len(rs) > 0, nil
}

// countStatement builds the aggregate for owner and filter. The flag name is
// validated before it is spliced into the statement.
func countStatement(ownerID string, filter *models.CountFilter) (string, map[string]any, error) {
	stmt := `SELECT count() AS c FROM drafts WHERE owner_id = $owner`
	vars := map[string]any{"owner": ownerID}
	if filter != nil {
		if !filter.Flag.Valid() {
			return "", nil, common.Wrap(common.ErrMalformed, models.ErrUnknownFlag)
		}
		stmt += fmt.Sprintf(" AND %s = $value", filter.Flag)
		vars["value"] = filter.Value
	}
	return stmt + " GROUP ALL", vars, nil
}

func (g *Gateway) CountByOwner(ctx context.Context, ownerID string, filter *models.CountFilter) (int, error) {
	stmt, vars, err := countStatement(ownerID, filter)
	if err != nil {
		return 0, err
	}
	rs, err := query[countRecord](ctx, g, stmt, vars)
	if err != nil {
		return 0, err
	}
	// GROUP ALL over no rows yields no rows.
	if len(rs) == 0 {
		return 0, nil
	}
	return rs[0].C, nil
}
