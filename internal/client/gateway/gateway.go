// Package gateway translates journal operations into remote document store
// calls. Implementations hold connections but no journal state; every call
// names its owner or record explicitly.
//
// Failures are reported as one of the common sentinel classes
// (common.ErrNotFound, common.ErrPermissionDenied, common.ErrUnavailable,
// common.ErrMalformed, common.ErrAlreadyExists) wrapping the original error,
// so the raw message is still available through err.Error().
package gateway

import (
	"context"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
)

// DefaultSuggestionLimit bounds username prefix searches when the caller
// passes a non-positive limit.
const DefaultSuggestionLimit = 10

// Drafts is the record side of the store.
type Drafts interface {
	FetchByOwner(ctx context.Context, ownerID string) ([]models.Draft, error)
	// FetchPublishedByUsername resolves username and returns that owner's
	// published drafts. An unknown username yields an empty list, not an error.
	FetchPublishedByUsername(ctx context.Context, username string) ([]models.Draft, error)
	Create(ctx context.Context, d models.Draft) error
	// Patch writes only the fields named by delta.
	Patch(ctx context.Context, id string, delta models.Delta) error
	// Delete is idempotent: deleting a missing id succeeds.
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	// CountByOwner is computed by the store; filter may be nil.
	CountByOwner(ctx context.Context, ownerID string, filter *models.CountFilter) (int, error)
}

// UsernameSearcher is the slice of the store the search controller needs.
type UsernameSearcher interface {
	SearchUsernamesByPrefix(ctx context.Context, prefix string, limit int) ([]models.UsernameEntry, error)
}

// Users is the profile side of the store.
type Users interface {
	UsernameSearcher
	// RegisterProfile writes the profile and its username index entry in one
	// atomic batch. A taken username fails with common.ErrAlreadyExists.
	RegisterProfile(ctx context.Context, p models.Profile) error
	Profile(ctx context.Context, ownerID string) (models.Profile, error)
	// ResolveUsername returns the owner id or common.ErrNotFound.
	ResolveUsername(ctx context.Context, username string) (string, error)
}

// Gateway is the full remote store surface.
type Gateway interface {
	Drafts
	Users
	Close(ctx context.Context) error
}
