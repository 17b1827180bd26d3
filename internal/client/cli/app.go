package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/blobstore"
	"github.com/dmitrijs2005/gophjournal/internal/client/config"
	"github.com/dmitrijs2005/gophjournal/internal/client/engine"
	"github.com/dmitrijs2005/gophjournal/internal/client/gateway"
	"github.com/dmitrijs2005/gophjournal/internal/client/gateway/postgres"
	"github.com/dmitrijs2005/gophjournal/internal/client/gateway/surreal"
	"github.com/dmitrijs2005/gophjournal/internal/client/identity"
	"github.com/dmitrijs2005/gophjournal/internal/client/llm"
	"github.com/dmitrijs2005/gophjournal/internal/client/localdb"
	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/client/pingate"
	"github.com/dmitrijs2005/gophjournal/internal/client/prompts"
	"github.com/dmitrijs2005/gophjournal/internal/client/search"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
)

// syncWait bounds how long a command waits for the engine to pick up a
// sign-in published by the identity client.
const (
	syncWait = 5 * time.Second
	syncPoll = 50 * time.Millisecond
)

// AuthService is the identity surface the shell needs. *identity.Client
// implements it.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	Owner() string
	Events() <-chan models.IdentityEvent
}

// PromptService produces writing prompts. *prompts.Orchestrator implements it.
type PromptService interface {
	Generate(ctx context.Context, drafts []models.Draft) (prompts.Result, error)
}

// AvatarStore uploads and resolves profile pictures. *blobstore.Store
// implements it.
type AvatarStore interface {
	search.AvatarResolver
	UploadAvatar(ctx context.Context, ownerID string, body io.Reader) error
}

type App struct {
	config *config.Config
	log    logging.Logger

	store   gateway.Gateway
	auth    AuthService
	engine  *engine.Engine
	search  *search.Controller
	gate    *pingate.Gate
	prompts PromptService
	avatars AvatarStore

	// lastPrompts backs the answer command.
	lastPrompts []string

	reader *bufio.Reader
	out    io.Writer

	closers []func(context.Context) error
}

// openGateway is swapped in tests.
var openGateway = func(ctx context.Context, c *config.Config) (gateway.Gateway, error) {
	switch c.Backend {
	case config.BackendPostgres:
		return postgres.Open(ctx, c.PostgresDSN)
	case config.BackendMemory:
		return gateway.NewMemory(), nil
	default:
		return surreal.Open(ctx, surreal.Config{
			URL:       c.SurrealURL,
			Namespace: c.SurrealNamespace,
			Database:  c.SurrealDatabase,
			User:      c.SurrealUser,
			Pass:      c.SurrealPass,
		})
	}
}

// NewApp connects every component described by c. Profile pictures are
// optional: without a bucket, or when the S3 client cannot be built, search
// results simply carry no avatar.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(c.LogBackend, c.LogLevel, os.Stderr)

	local, err := localdb.Open(ctx, c.LocalDBPath)
	if err != nil {
		log.Error(ctx, "error initializing local database", "error", err)
		return nil, err
	}

	gate, err := pingate.Open(ctx, local.Metadata)
	if err != nil {
		_ = local.Close()
		return nil, err
	}

	store, err := openGateway(ctx, c)
	if err != nil {
		_ = local.Close()
		return nil, fmt.Errorf("open %s store: %w", c.Backend, err)
	}

	auth, err := identity.New(c.IdentityAddr, identity.WithLogger(log))
	if err != nil {
		_ = store.Close(ctx)
		_ = local.Close()
		return nil, err
	}

	var avatars AvatarStore
	if c.S3Bucket != "" {
		bs, err := blobstore.New(ctx, blobstore.Config{
			Endpoint:  c.S3Endpoint,
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
		}, log)
		if err != nil {
			log.Warn(ctx, "profile pictures disabled", "error", err)
		} else {
			avatars = bs
		}
	}

	gen := llm.NewClient(c.LLMBaseURL, c.LLMAPIKey, c.LLMModel)

	a := newApp(c, log, store, auth, gate, prompts.New(gen,
		prompts.WithExpectedCount(c.PromptCount),
		prompts.WithLogger(log),
	), avatars)
	a.closers = append(a.closers,
		func(context.Context) error { return auth.Close() },
		store.Close,
		func(context.Context) error { return local.Close() },
	)
	return a, nil
}

func newApp(c *config.Config, log logging.Logger, store gateway.Gateway, auth AuthService,
	gate *pingate.Gate, ps PromptService, avatars AvatarStore) *App {

	opts := []search.Option{
		search.WithDebounce(c.SearchDebounce),
		search.WithLogger(log),
	}
	if avatars != nil {
		opts = append(opts, search.WithAvatars(avatars))
	}

	return &App{
		config:  c,
		log:     log,
		store:   store,
		auth:    auth,
		engine:  engine.New(store, engine.WithLogger(log)),
		search:  search.New(store, opts...),
		gate:    gate,
		prompts: ps,
		avatars: avatars,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
}

// Run feeds identity events to the engine and blocks in the REPL until the
// user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close(context.WithoutCancel(ctx))

	go a.engine.Run(ctx, a.auth.Events())

	fmt.Fprintln(a.out, "Welcome to the journal shell (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

// Close releases every connection opened by NewApp.
func (a *App) Close(ctx context.Context) {
	a.search.Close()
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			a.log.Warn(ctx, "close failed", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) isLoggedIn() bool {
	return a.auth.Owner() != ""
}

func (a *App) getStatus() string {
	owner := a.auth.Owner()
	if owner == "" {
		return ""
	}
	s := owner
	if len(s) > 8 {
		s = s[:8]
	}
	if a.gate.State().Status == pingate.Unlocked {
		s += " unlocked"
	}
	return fmt.Sprintf("(%s)", s)
}

// awaitSync waits until changes carries the identity reset for a new session
// and the resync that follows it has settled for owner, so a command issued
// right after sign-in does not race it. changes must be subscribed before
// the identity call.
func (a *App) awaitSync(ctx context.Context, changes <-chan engine.Change, owner string) error {
	timer := time.NewTimer(syncWait)
	defer timer.Stop()
	poll := time.NewTicker(syncPoll)
	defer poll.Stop()

	reset := false
	for {
		if reset && a.synced(owner) {
			return nil
		}
		select {
		case c, ok := <-changes:
			if !ok {
				return errors.New("engine subscription closed")
			}
			if c.Kind == engine.ChangeIdentity {
				reset = true
			}
		case <-poll.C:
		case <-timer.C:
			return errors.New("timed out waiting for sign-in to apply")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (a *App) synced(owner string) bool {
	snap := a.engine.Snapshot()
	return snap.OwnerID == owner &&
		settled(snap.Drafts.Status) &&
		settled(snap.OwnCount.Status) &&
		settled(snap.PublishedCount.Status)
}

func settled(s models.SliceStatus) bool {
	return s == models.SliceEmpty || s == models.SliceError || s == models.SliceComplete
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// report prints a failed command for the user and logs it.
func (a *App) report(ctx context.Context, what string, err error) error {
	a.printf("%s failed: %v\n", what, err)
	a.log.Debug(ctx, "command failed", "command", what, "error", err)
	return err
}
