package surreal

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophjournal/internal/client/gateway"
	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/common"
)

const (
	// A taken username makes the first CREATE fail, which cancels the whole
	// transaction.
	stmtRegister = `BEGIN TRANSACTION;
		CREATE $name_rid SET name = $name, owner_id = $owner RETURN NONE;
		CREATE $user_rid SET owner_id = $owner, username = $name, email = $email, created_at = time::now() RETURN NONE;
		COMMIT TRANSACTION;`

	stmtProfile = `SELECT owner_id, username, email, created_at FROM $rid`

	stmtResolve = `SELECT name, owner_id FROM $rid`

	stmtSearch = `SELECT name, owner_id FROM usernames
		WHERE name >= $lo AND name < $hi
		ORDER BY name
		LIMIT $limit`
)

func (g *Gateway) RegisterProfile(ctx context.Context, p models.Profile) error {
	p, err := p.Normalize()
	if err != nil {
		return err
	}
	_, err = query[any](ctx, g, stmtRegister, map[string]any{
		"name_rid": usernameRID(p.Username),
		"user_rid": userRID(p.OwnerID),
		"name":     p.Username,
		"owner":    p.OwnerID,
		"email":    p.Email,
	})
	return err
}

func (g *Gateway) Profile(ctx context.Context, ownerID string) (models.Profile, error) {
	rs, err := query[profileRecord](ctx, g, stmtProfile, map[string]any{"rid": userRID(ownerID)})
	if err != nil {
		return models.Profile{}, err
	}
	if len(rs) == 0 {
		return models.Profile{}, common.Wrap(common.ErrNotFound, errors.New("profile "+ownerID))
	}
	r := rs[0]
	return models.Profile{OwnerID: r.OwnerID, Username: r.Username, Email: r.Email, CreatedAt: r.CreatedAt}, nil
}

func (g *Gateway) ResolveUsername(ctx context.Context, username string) (string, error) {
	name := models.NormalizeUsername(username)
	rs, err := query[usernameRecord](ctx, g, stmtResolve, map[string]any{"rid": usernameRID(name)})
	if err != nil {
		return "", err
	}
	if len(rs) == 0 {
		return "", common.Wrap(common.ErrNotFound, errors.New("username "+username))
	}
	return rs[0].OwnerID, nil
}

func (g *Gateway) SearchUsernamesByPrefix(ctx context.Context, prefix string, limit int) ([]models.UsernameEntry, error) {
	if gateway.BlankPrefix(prefix) {
		return []models.UsernameEntry{}, nil
	}
	lo, hi := gateway.PrefixRange(prefix)

	rs, err := query[usernameRecord](ctx, g, stmtSearch, map[string]any{
		"lo":    lo,
		"hi":    hi,
		"limit": gateway.ClampLimit(limit),
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.UsernameEntry, 0, len(rs))
	for _, r := range rs {
		out = append(out, models.UsernameEntry{Username: r.Name, OwnerID: r.OwnerID})
	}
	return out, nil
}
