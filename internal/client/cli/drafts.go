package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/engine"
	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/client/pingate"
	"github.com/dmitrijs2005/gophjournal/internal/common"
)

// shortID is how many id characters the shell prints and accepts as a prefix.
const shortID = 8

var (
	errNeedID    = errors.New("usage: <command> <id>")
	errAmbiguous = errors.New("id prefix matches more than one draft")
)

var getMultiline = GetMultiline

var views = map[string]engine.View{
	"":          engine.ViewJournal,
	"journal":   engine.ViewJournal,
	"fav":       engine.ViewFavorites,
	"favorites": engine.ViewFavorites,
	"archived":  engine.ViewArchived,
	"published": engine.ViewPublished,
}

// List reloads the signed-in user's drafts and prints one view of them.
// Hidden drafts are never listed here; see Hidden.
func (a *App) List(ctx context.Context, args []string) error {
	name := ""
	if len(args) > 0 {
		name = strings.ToLower(args[0])
	}
	view, ok := views[name]
	if !ok {
		a.printf("Unknown view %q. Use one of: journal, fav, archived, published.\n", name)
		return nil
	}

	if err := a.engine.Load(ctx, a.auth.Owner()); err != nil {
		return a.report(ctx, "list", err)
	}

	ds := engine.Select(a.engine.Drafts(), view)
	if len(ds) == 0 {
		a.printf("No drafts.\n")
		return nil
	}
	a.printDrafts(ds)
	return nil
}

func (a *App) printDrafts(ds []models.Draft) {
	for _, d := range ds {
		title := d.Title
		if title == "" {
			title = "(untitled)"
		}
		a.printf("%-8s  %s  %s%s\n", abbrev(d.ID), d.LastModifiedAt.Local().Format("2006-01-02 15:04"), title, flagSuffix(d))
	}
}

func abbrev(id string) string {
	if len(id) > shortID {
		return id[:shortID]
	}
	return id
}

func flagSuffix(d models.Draft) string {
	var on []string
	for _, f := range models.Flags {
		if d.Flag(f) {
			on = append(on, string(f))
		}
	}
	if len(on) == 0 {
		return ""
	}
	return "  [" + strings.Join(on, ",") + "]"
}

// New reads a multi-line body and creates a draft. The draft shows up in
// list immediately and disappears again if the store rejects it.
func (a *App) New(ctx context.Context) error {
	return a.create(ctx, "Write your entry")
}

func (a *App) create(ctx context.Context, prompt string, opts ...models.DraftOption) error {
	content, err := getMultiline(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		a.printf("Nothing to save.\n")
		return nil
	}

	d, err := a.engine.Create(ctx, a.auth.Owner(), content, opts...)
	if err != nil {
		return a.report(ctx, "create", err)
	}
	a.printf("Saved %s.\n", abbrev(d.ID))
	return nil
}

// Edit replaces a draft's content and bumps its modification time.
func (a *App) Edit(ctx context.Context, args []string) error {
	d, err := a.resolve(args)
	if err != nil {
		return a.report(ctx, "edit", err)
	}

	a.printf("Current text:\n%s\n", d.Content)
	content, err := getMultiline(a.reader, "Enter the new text", a.out)
	if err != nil {
		return err
	}
	if content == "" || content == d.Content {
		a.printf("Unchanged.\n")
		return nil
	}

	if err := a.engine.Patch(ctx, d.ID, models.ContentChanged{Content: content}); err != nil {
		return a.report(ctx, "edit", err)
	}
	if err := a.engine.Patch(ctx, d.ID, models.TimestampTouched{At: time.Now()}); err != nil {
		return a.report(ctx, "edit", err)
	}
	a.printf("Updated %s.\n", abbrev(d.ID))
	return nil
}

// Toggle sets or flips one flag. An explicit "on" or "off" after the id sets
// the value; otherwise the current value is inverted.
func (a *App) Toggle(ctx context.Context, flag models.Flag, args []string) error {
	d, err := a.resolve(args)
	if err != nil {
		return a.report(ctx, string(flag), err)
	}

	value := !d.Flag(flag)
	if len(args) > 1 {
		switch strings.ToLower(args[1]) {
		case "on", "true", "yes":
			value = true
		case "off", "false", "no":
			value = false
		default:
			a.printf("Expected on or off, got %q.\n", args[1])
			return nil
		}
	}

	if err := a.engine.Patch(ctx, d.ID, models.FlagChanged{Flag: flag, Value: value}); err != nil {
		return a.report(ctx, string(flag), err)
	}
	a.printf("%s %s = %t\n", abbrev(d.ID), flag, value)
	return nil
}

// Delete removes a draft. It stays listed until the store confirms.
func (a *App) Delete(ctx context.Context, args []string) error {
	d, err := a.resolve(args)
	if err != nil {
		return a.report(ctx, "delete", err)
	}
	if err := a.engine.Delete(ctx, d.ID); err != nil {
		return a.report(ctx, "delete", err)
	}
	a.printf("Deleted %s.\n", abbrev(d.ID))
	return nil
}

// Counts refreshes and prints the two badges computed by the store.
func (a *App) Counts(ctx context.Context) error {
	err := a.engine.RefreshCounts(ctx, a.auth.Owner())
	snap := a.engine.Snapshot()
	a.printf("Drafts:    %s\n", countText(snap.OwnCount))
	a.printf("Published: %s\n", countText(snap.PublishedCount))
	if err != nil {
		a.log.Debug(ctx, "count refresh failed", "error", err)
	}
	return err
}

func countText(s models.Slice[int]) string {
	switch s.Status {
	case models.SliceComplete, models.SliceEmpty:
		return fmt.Sprint(s.Value)
	case models.SliceError:
		return "unavailable (" + s.Err + ")"
	default:
		return s.Status.String()
	}
}

// resolve finds a cached draft by full id or unique prefix. Hidden drafts
// resolve only while the PIN gate is unlocked.
func (a *App) resolve(args []string) (models.Draft, error) {
	if len(args) == 0 || args[0] == "" {
		return models.Draft{}, errNeedID
	}
	ref := args[0]
	unlocked := a.gate.State().Status == pingate.Unlocked

	var (
		found models.Draft
		n     int
	)
	for _, d := range a.engine.Drafts() {
		if d.Hidden && !unlocked {
			continue
		}
		if d.ID == ref {
			return d, nil
		}
		if strings.HasPrefix(d.ID, ref) {
			found = d
			n++
		}
	}

	switch n {
	case 0:
		return models.Draft{}, common.Wrap(common.ErrNotFound, fmt.Errorf("no draft %q", ref))
	case 1:
		return found, nil
	default:
		return models.Draft{}, errAmbiguous
	}
}
