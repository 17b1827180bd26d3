package cli

import (
	"context"
	"strconv"

	"github.com/dmitrijs2005/gophjournal/internal/client/engine"
	"github.com/dmitrijs2005/gophjournal/internal/client/models"
)

// Prompts asks for writing prompts based on the visible journal.
func (a *App) Prompts(ctx context.Context) error {
	drafts := engine.Select(a.engine.Drafts(), engine.ViewJournal)

	res, err := a.prompts.Generate(ctx, drafts)
	if err != nil {
		a.lastPrompts = nil
		a.printf("%s\n", res.Message)
		a.log.Debug(ctx, "prompt generation failed", "error", err)
		return err
	}

	a.lastPrompts = res.Prompts
	for i, p := range res.Prompts {
		a.printf("%d. %s\n", i+1, p)
	}
	a.printf("Use 'answer <n>' to write about one of them.\n")
	return nil
}

// Answer creates a draft in reply to one of the prompts last shown.
func (a *App) Answer(ctx context.Context, args []string) error {
	if len(a.lastPrompts) == 0 {
		a.printf("No prompts yet. Run 'prompts' first.\n")
		return nil
	}
	n := 0
	if len(args) > 0 {
		n, _ = strconv.Atoi(args[0])
	}
	if n < 1 || n > len(a.lastPrompts) {
		a.printf("Usage: answer <1-%d>\n", len(a.lastPrompts))
		return nil
	}

	prompt := a.lastPrompts[n-1]
	return a.create(ctx, prompt, models.FromPrompt(prompt))
}
