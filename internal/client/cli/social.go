package cli

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/search"
)

// searchWait bounds how long the shell waits for a debounced search to
// publish.
const searchWait = 10 * time.Second

var errNoAvatars = errors.New("profile pictures are not configured")

// User prints the published drafts of another user.
func (a *App) User(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printf("Usage: user <name>\n")
		return nil
	}
	if err := a.engine.LoadPublished(ctx, args[0]); err != nil {
		return a.report(ctx, "user", err)
	}

	snap := a.engine.Snapshot()
	if len(snap.Published.Value) == 0 {
		a.printf("%s has no published drafts.\n", snap.PublishedUsername)
		return nil
	}
	a.printDrafts(snap.Published.Value)
	return nil
}

// Search looks up usernames starting with the given prefix through the
// debounced search controller and waits for its answer.
func (a *App) Search(ctx context.Context, args []string) error {
	prefix := strings.Join(args, " ")
	a.search.Type(prefix)
	if strings.TrimSpace(prefix) == "" {
		a.printf("Usage: search <prefix>\n")
		return nil
	}

	r, err := a.awaitSearch(ctx, strings.TrimSpace(prefix))
	if err != nil {
		return a.report(ctx, "search", err)
	}
	if r.Err != nil {
		return a.report(ctx, "search", r.Err)
	}
	if len(r.Items) == 0 {
		a.printf("No users match %q.\n", r.Query)
		return nil
	}
	for _, it := range r.Items {
		if it.AvatarURL != "" {
			a.printf("%s  %s\n", it.Username, it.AvatarURL)
		} else {
			a.printf("%s\n", it.Username)
		}
	}
	return nil
}

func (a *App) awaitSearch(ctx context.Context, query string) (search.Result, error) {
	timer := time.NewTimer(searchWait)
	defer timer.Stop()
	for {
		select {
		case r, ok := <-a.search.Results():
			if !ok {
				return search.Result{}, errors.New("search closed")
			}
			if r.Query == query {
				return r, nil
			}
		case <-timer.C:
			return search.Result{}, errors.New("search timed out")
		case <-ctx.Done():
			return search.Result{}, ctx.Err()
		}
	}
}

// Avatar uploads a JPEG file as the signed-in user's profile picture.
func (a *App) Avatar(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printf("Usage: avatar <file.jpg>\n")
		return nil
	}
	if a.avatars == nil {
		return a.report(ctx, "avatar", errNoAvatars)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return a.report(ctx, "avatar", err)
	}
	defer f.Close()

	if err := a.avatars.UploadAvatar(ctx, a.auth.Owner(), f); err != nil {
		return a.report(ctx, "avatar", err)
	}
	a.printf("Profile picture updated.\n")
	return nil
}
