package engine

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
)

// HandleIdentity reacts to a sign-in or sign-out. Both discard every cached
// slice; a sign-in then reloads drafts and counts for the new owner.
func (e *Engine) HandleIdentity(ctx context.Context, ev models.IdentityEvent) error {
	switch ev.Kind {
	case models.SignedIn:
		if ev.OwnerID == "" {
			return ErrNoOwner
		}
		e.reset(ev.OwnerID)
		e.log.Info(ctx, "signed in, resyncing", "owner", ev.OwnerID)
		loadErr := e.Load(ctx, ev.OwnerID)
		countErr := e.RefreshCounts(ctx, ev.OwnerID)
		return errors.Join(loadErr, countErr)
	case models.SignedOut:
		e.reset("")
		e.log.Info(ctx, "signed out, cache cleared")
		return nil
	}
	return nil
}

// Run applies identity events until events is closed or ctx is done.
func (e *Engine) Run(ctx context.Context, events <-chan models.IdentityEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := e.HandleIdentity(ctx, ev); err != nil {
				e.log.Warn(ctx, "resync after identity change failed", "kind", ev.Kind.String(), "err", err)
			}
		}
	}
}

func (e *Engine) reset(owner string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.owner = owner
	e.epoch++
	e.drafts = models.Slice[[]models.Draft]{}
	e.ownCount = models.Slice[int]{}
	e.pubCount = models.Slice[int]{}
	e.published = models.Slice[[]models.Draft]{}
	e.publishedFor = ""
	e.suggestions = models.Slice[[]models.UsernameEntry]{}
	clear(e.pending)
	clear(e.writes)
	clear(e.touched)
	e.emit(Change{Kind: ChangeIdentity})
}
