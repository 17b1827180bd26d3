package engine

import (
	"slices"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
)

// Snapshot is a point-in-time copy of the engine state. Mutating it does not
// affect the engine.
type Snapshot struct {
	OwnerID           string
	Drafts            models.Slice[[]models.Draft]
	OwnCount          models.Slice[int]
	PublishedCount    models.Slice[int]
	Published         models.Slice[[]models.Draft]
	PublishedUsername string
	Suggestions       models.Slice[[]models.UsernameEntry]
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		OwnerID:           e.owner,
		Drafts:            cloneSlice(e.drafts),
		OwnCount:          e.ownCount,
		PublishedCount:    e.pubCount,
		Published:         cloneSlice(e.published),
		PublishedUsername: e.publishedFor,
		Suggestions:       cloneSlice(e.suggestions),
	}
}

// Drafts returns a copy of the cached drafts, newest first.
func (e *Engine) Drafts() []models.Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.drafts.Value)
}

// Draft returns the cached copy of id.
func (e *Engine) Draft(id string) (models.Draft, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := indexOf(e.drafts.Value, id); i >= 0 {
		return e.drafts.Value[i], true
	}
	return models.Draft{}, false
}

func cloneSlice[T any](s models.Slice[[]T]) models.Slice[[]T] {
	s.Value = slices.Clone(s.Value)
	return s
}

// View selects which drafts a screen shows.
type View int

const (
	// ViewJournal is the main grid: neither hidden nor archived.
	ViewJournal View = iota
	ViewFavorites
	ViewArchived
	ViewHidden
	ViewPublished
)

// Select filters drafts for v, keeping their order.
func Select(ds []models.Draft, v View) []models.Draft {
	out := make([]models.Draft, 0, len(ds))
	for _, d := range ds {
		if v.includes(d) {
			out = append(out, d)
		}
	}
	return out
}

func (v View) includes(d models.Draft) bool {
	switch v {
	case ViewFavorites:
		return d.Favorited && !d.Hidden
	case ViewArchived:
		return d.Archived && !d.Hidden
	case ViewHidden:
		return d.Hidden
	case ViewPublished:
		return d.Published && !d.Hidden
	default:
		return !d.Hidden && !d.Archived
	}
}
