package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, m *Memory, owner, name string) {
	t.Helper()
	require.NoError(t, m.RegisterProfile(context.Background(), models.Profile{OwnerID: owner, Username: name}))
}

func TestMemory_SearchUsernamesByPrefix(t *testing.T) {
	m := NewMemory()
	register(t, m, "u1", "alice")
	register(t, m, "u2", "albert")
	register(t, m, "u3", "bob")

	got, err := m.SearchUsernamesByPrefix(context.Background(), "al", 10)
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, e := range got {
		names = append(names, e.Username)
	}
	assert.Equal(t, []string{"albert", "alice"}, names)

	got, err = m.SearchUsernamesByPrefix(context.Background(), "al", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = m.SearchUsernamesByPrefix(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemory_RegisterProfile_UsernameUnique(t *testing.T) {
	m := NewMemory()
	register(t, m, "u1", "Alice")

	err := m.RegisterProfile(context.Background(), models.Profile{OwnerID: "u2", Username: " alice"})
	require.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = m.Profile(context.Background(), "u2")
	require.ErrorIs(t, err, common.ErrNotFound, "profile must not exist without its username entry")

	owner, err := m.ResolveUsername(context.Background(), "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)
}

func TestMemory_FetchPublishedByUsername(t *testing.T) {
	m := NewMemory()
	register(t, m, "u1", "alice")
	m.Seed(
		models.Draft{ID: "a", OwnerID: "u1", Published: true},
		models.Draft{ID: "b", OwnerID: "u1"},
		models.Draft{ID: "c", OwnerID: "u2", Published: true},
	)

	got, err := m.FetchPublishedByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	got, err = m.FetchPublishedByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMemory_CreatePatchDelete(t *testing.T) {
	ctx := context.Background()
	server := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.SetClock(func() time.Time { return server })

	d := models.NewDraft("u1", "first", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, m.Create(ctx, d))
	require.ErrorIs(t, m.Create(ctx, d), common.ErrAlreadyExists)

	stored, ok := m.Stored(d.ID)
	require.True(t, ok)
	assert.Equal(t, server, stored.CreatedAt, "server owns timestamps")

	require.NoError(t, m.Patch(ctx, d.ID, models.FlagChanged{Flag: models.FlagFavorited, Value: true}))
	require.NoError(t, m.Patch(ctx, d.ID, models.ContentChanged{Content: "second"}))
	stored, _ = m.Stored(d.ID)
	assert.True(t, stored.Favorited)
	assert.Equal(t, "second", stored.Content)

	require.ErrorIs(t, m.Patch(ctx, "missing", models.ContentChanged{}), common.ErrNotFound)
	require.ErrorIs(t, m.Patch(ctx, d.ID, models.FlagChanged{Flag: "pinned"}), common.ErrMalformed)

	exists, err := m.Exists(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, m.Delete(ctx, d.ID))
	require.NoError(t, m.Delete(ctx, d.ID))
	exists, err = m.Exists(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemory_CountByOwner(t *testing.T) {
	m := NewMemory()
	m.Seed(
		models.Draft{ID: "a", OwnerID: "u1", Published: true},
		models.Draft{ID: "b", OwnerID: "u1"},
		models.Draft{ID: "c", OwnerID: "u2", Published: true},
	)

	n, err := m.CountByOwner(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = m.CountByOwner(context.Background(), "u1", models.PublishedOnly())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemory_FailuresAndLatency(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	boom := errors.New("permission denied by rules")
	m.FailNext(OpFetchByOwner, boom)
	_, err := m.FetchByOwner(ctx, "u1")
	require.ErrorIs(t, err, boom)

	_, err = m.FetchByOwner(ctx, "u1")
	require.NoError(t, err, "injected failure is consumed")

	m.SetOffline(true)
	err = m.Create(ctx, models.NewDraft("u1", "x", time.Now()))
	require.ErrorIs(t, err, common.ErrUnavailable)
	assert.Contains(t, err.Error(), "offline")
	m.SetOffline(false)

	m.SetOpLatency(OpExists, time.Second)
	cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = m.Exists(cctx, "a")
	require.ErrorIs(t, err, common.ErrUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, 2, m.CallCount(OpFetchByOwner))
	assert.Equal(t, OpCreate, m.Calls()[2].Op)
}
