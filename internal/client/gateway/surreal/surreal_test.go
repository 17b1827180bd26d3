package surreal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchStatement(t *testing.T) {
	stmt, vars := patchStatement("d1", models.FlagChanged{Flag: models.FlagFavorited, Value: true})
	assert.Equal(t, stmtMerge, stmt)
	assert.Equal(t, draftRID("d1"), vars["rid"])
	assert.Equal(t, map[string]any{"favorited": true}, vars["fields"])

	stmt, vars = patchStatement("d1", models.ContentChanged{Content: "*hello*"})
	assert.Equal(t, stmtMerge, stmt)
	assert.Equal(t, map[string]any{"content": "*hello*", "title": "hello"}, vars["fields"])

	stmt, vars = patchStatement("d1", models.TimestampTouched{At: time.Unix(5, 0)})
	assert.Equal(t, stmtTouch, stmt)
	assert.NotContains(t, vars, "fields")
}

func TestCountStatement(t *testing.T) {
	stmt, vars, err := countStatement("u1", nil)
	require.NoError(t, err)
	assert.Equal(t, `SELECT count() AS c FROM drafts WHERE owner_id = $owner GROUP ALL`, stmt)
	assert.Equal(t, map[string]any{"owner": "u1"}, vars)

	stmt, vars, err = countStatement("u1", models.PublishedOnly())
	require.NoError(t, err)
	assert.Equal(t, `SELECT count() AS c FROM drafts WHERE owner_id = $owner AND published = $value GROUP ALL`, stmt)
	assert.Equal(t, true, vars["value"])

	_, _, err = countStatement("u1", &models.CountFilter{Flag: "owner_id; DELETE drafts"})
	assert.ErrorIs(t, err, common.ErrMalformed)
}

func TestDraftRecord(t *testing.T) {
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rid := draftRID("d1")
	r := draftRecord{
		ID: &rid, DraftID: "d1", OwnerID: "u1", Title: "t", Content: "c",
		CreatedAt: ts, LastModifiedAt: ts, Archived: true, PromptOrigin: true, PromptText: "p",
	}
	assert.Equal(t, models.Draft{
		ID: "d1", OwnerID: "u1", Title: "t", Content: "c",
		CreatedAt: ts, LastModifiedAt: ts, Archived: true, PromptOrigin: true, PromptText: "p",
	}, r.draft())

	assert.NotNil(t, draftsOf(nil))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{"Database record `usernames:⟨alice⟩` already exists", common.ErrAlreadyExists},
		{"Database index `name` already contains 'alice'", common.ErrAlreadyExists},
		{"IAM error: Not enough permissions to perform this action", common.ErrPermissionDenied},
		{"There was a problem with authentication", common.ErrUnauthenticated},
		{"cbor: cannot unmarshal UTF-8 text string into Go value of type int", common.ErrMalformed},
		{"websocket: close 1006 (abnormal closure)", common.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := MapError(errors.New(tt.msg))
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	assert.ErrorIs(t, MapError(context.DeadlineExceeded), common.ErrUnavailable)
	assert.NoError(t, MapError(nil))
}

// Integration tests need a running server, e.g.
//
//	SURREALDB_URL=ws://localhost:8000/rpc go test ./internal/client/gateway/surreal/
func openIntegration(t *testing.T) *Gateway {
	t.Helper()
	u := os.Getenv("SURREALDB_URL")
	if u == "" {
		t.Skip("SURREALDB_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g, err := Open(ctx, Config{
		URL:       u,
		Namespace: "gophjournal_test",
		Database:  "t" + uuid.NewString()[:8],
		User:      envOr("SURREALDB_USER", "root"),
		Pass:      envOr("SURREALDB_PASS", "root"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close(context.Background()) })
	return g
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func TestIntegration_DraftLifecycle(t *testing.T) {
	g := openIntegration(t)
	ctx := context.Background()

	d := models.NewDraft("u1", "# First\nbody", time.Now())
	require.NoError(t, g.Create(ctx, d))
	assert.ErrorIs(t, g.Create(ctx, d), common.ErrAlreadyExists)

	ok, err := g.Exists(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, g.Patch(ctx, d.ID, models.FlagChanged{Flag: models.FlagPublished, Value: true}))
	require.NoError(t, g.Patch(ctx, d.ID, models.ContentChanged{Content: "changed"}))
	require.NoError(t, g.Patch(ctx, d.ID, models.TimestampTouched{At: time.Now()}))
	assert.ErrorIs(t, g.Patch(ctx, "missing", models.FlagChanged{Flag: models.FlagHidden, Value: true}), common.ErrNotFound)

	got, err := g.FetchByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "changed", got[0].Content)
	assert.Equal(t, "changed", got[0].Title)
	assert.True(t, got[0].Published)

	n, err := g.CountByOwner(ctx, "u1", models.PublishedOnly())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = g.CountByOwner(ctx, "nobody", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, g.Delete(ctx, d.ID))
	require.NoError(t, g.Delete(ctx, d.ID))
	ok, err = g.Exists(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIntegration_Usernames(t *testing.T) {
	g := openIntegration(t)
	ctx := context.Background()

	for i, name := range []string{"alice", "alex", "bob"} {
		require.NoError(t, g.RegisterProfile(ctx, models.Profile{OwnerID: fmt.Sprint("u", i), Username: name}))
	}
	assert.ErrorIs(t, g.RegisterProfile(ctx, models.Profile{OwnerID: "u9", Username: "Alice"}), common.ErrAlreadyExists)
	_, err := g.Profile(ctx, "u9")
	assert.ErrorIs(t, err, common.ErrNotFound, "failed registration must not leave a profile behind")

	got, err := g.SearchUsernamesByPrefix(ctx, "al", 10)
	require.NoError(t, err)
	assert.Equal(t, []models.UsernameEntry{{Username: "alex", OwnerID: "u1"}, {Username: "alice", OwnerID: "u0"}}, got)

	owner, err := g.ResolveUsername(ctx, "BOB")
	require.NoError(t, err)
	assert.Equal(t, "u2", owner)

	pub, err := g.FetchPublishedByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, pub)
}
