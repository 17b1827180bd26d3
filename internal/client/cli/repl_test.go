package cli

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
}

func (f *fakeExec) record(name string, args ...string) error {
	if len(args) > 0 {
		name += " " + strings.Join(args, " ")
	}
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) SignUp(context.Context) error {
	f.loggedIn = true
	return f.record("signup")
}
func (f *fakeExec) SignIn(context.Context) error {
	f.loggedIn = true
	return f.record("signin")
}
func (f *fakeExec) SignOut(context.Context) error {
	f.loggedIn = false
	return f.record("signout")
}
func (f *fakeExec) ResetPassword(context.Context) error { return f.record("reset") }
func (f *fakeExec) List(_ context.Context, args []string) error {
	return f.record("list", args...)
}
func (f *fakeExec) New(context.Context) error { return f.record("new") }
func (f *fakeExec) Edit(_ context.Context, args []string) error {
	return f.record("edit", args...)
}
func (f *fakeExec) Toggle(_ context.Context, flag models.Flag, args []string) error {
	return f.record("toggle:"+string(flag), args...)
}
func (f *fakeExec) Delete(_ context.Context, args []string) error {
	return f.record("delete", args...)
}
func (f *fakeExec) Counts(context.Context) error { return f.record("counts") }
func (f *fakeExec) User(_ context.Context, args []string) error {
	return f.record("user", args...)
}
func (f *fakeExec) Search(_ context.Context, args []string) error {
	return f.record("search", args...)
}
func (f *fakeExec) Avatar(_ context.Context, args []string) error {
	return f.record("avatar", args...)
}
func (f *fakeExec) Pin(_ context.Context, args []string) error {
	return f.record("pin", args...)
}
func (f *fakeExec) Hidden(context.Context) error  { return f.record("hidden") }
func (f *fakeExec) Prompts(context.Context) error { return f.record("prompts") }
func (f *fakeExec) Answer(_ context.Context, args []string) error {
	return f.record("answer", args...)
}

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_Dispatch(t *testing.T) {
	capturePrintln(t)

	input := strings.Join([]string{
		"signin",
		"list fav",
		"new",
		"edit abc",
		"fav abc on",
		"hide abc",
		"archive abc",
		"publish abc off",
		"delete abc",
		"counts",
		"user alice",
		"search al",
		"avatar me.jpg",
		"pin set",
		"hidden",
		"prompts",
		"answer 2",
		"signout",
		"exit",
		"list",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, rdr(input))

	assert.Equal(t, []string{
		"signin",
		"list fav",
		"new",
		"edit abc",
		"toggle:favorited abc on",
		"toggle:hidden abc",
		"toggle:archived abc",
		"toggle:published abc off",
		"delete abc",
		"counts",
		"user alice",
		"search al",
		"avatar me.jpg",
		"pin set",
		"hidden",
		"prompts",
		"answer 2",
		"signout",
	}, exec.calls)
}

func TestRunREPL_SignedOutGate(t *testing.T) {
	lines := capturePrintln(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("list\nfoobar\nhelp\nreset\n"))

	assert.Equal(t, []string{"reset"}, exec.calls)
	assert.Contains(t, *lines, "Please sign in first.")
	assert.Contains(t, *lines, "Unknown command: foobar")
	assert.Contains(t, *lines, helpSignedOut)
}

func TestRunREPL_HelpSignedIn(t *testing.T) {
	lines := capturePrintln(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, rdr("\nhelp\nquit\n"))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *lines, helpSignedIn)
	assert.Contains(t, *lines, "Bye!")
	assert.Contains(t, *lines, "journal s>")
}

func TestRunREPL_StopsOnCancel(t *testing.T) {
	capturePrintln(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "" }, rdr("signin\n"))
	assert.Empty(t, exec.calls)
}
