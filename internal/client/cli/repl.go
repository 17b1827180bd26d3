package cli

import (
	"bufio"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	SignUp(ctx context.Context) error
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	List(ctx context.Context, args []string) error
	New(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Toggle(ctx context.Context, flag models.Flag, args []string) error
	Delete(ctx context.Context, args []string) error
	Counts(ctx context.Context) error
	User(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Avatar(ctx context.Context, args []string) error
	Pin(ctx context.Context, args []string) error
	Hidden(ctx context.Context) error
	Prompts(ctx context.Context) error
	Answer(ctx context.Context, args []string) error
}

const (
	helpSignedOut = "Available commands: signup, signin, reset, exit"
	helpSignedIn  = "Available commands: (l)ist [fav|archived|published], new, edit <id>, " +
		"fav|hide|archive|publish <id> [on|off], delete <id>, counts, user <name>, search <prefix>, " +
		"avatar <file>, pin set|unlock|lock|clear, hidden, prompts, answer <n>, signout, exit"
)

// runREPL starts a simple read–eval–print loop for the journal shell.
//
// It reads a line from r, parses the first token as the command, and
// dispatches to methods on 'a' with the remaining tokens as arguments.
// Unknown commands are reported back to the user. The loop exits on EOF,
// when ctx is done, or when the user types "exit" or "quit".
//
// Commands that need a session are refused with a hint while signed out.
// Errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("journal %s> ", statusFn()))
		line, err := readLine(r)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}
			continue
		case "signup":
			_ = a.SignUp(ctx)
			continue
		case "signin", "login":
			_ = a.SignIn(ctx)
			continue
		case "reset":
			_ = a.ResetPassword(ctx)
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		if !a.isLoggedIn() {
			if known(cmd) {
				printlnFn("Please sign in first.")
			} else {
				printlnFn("Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "signout", "logout":
			_ = a.SignOut(ctx)
		case "l", "list":
			_ = a.List(ctx, args)
		case "new":
			_ = a.New(ctx)
		case "edit":
			_ = a.Edit(ctx, args)
		case "fav", "hide", "archive", "publish":
			flag, _ := models.ParseFlag(cmd)
			_ = a.Toggle(ctx, flag, args)
		case "delete", "rm":
			_ = a.Delete(ctx, args)
		case "counts":
			_ = a.Counts(ctx)
		case "user":
			_ = a.User(ctx, args)
		case "search":
			_ = a.Search(ctx, args)
		case "avatar":
			_ = a.Avatar(ctx, args)
		case "pin":
			_ = a.Pin(ctx, args)
		case "hidden":
			_ = a.Hidden(ctx)
		case "prompts":
			_ = a.Prompts(ctx)
		case "answer":
			_ = a.Answer(ctx, args)
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

var sessionCommands = []string{
	"signout", "logout", "l", "list", "new", "edit", "fav", "hide", "archive", "publish",
	"delete", "rm", "counts", "user", "search", "avatar", "pin", "hidden", "prompts", "answer",
}

func known(cmd string) bool {
	return slices.Contains(sessionCommands, cmd)
}
