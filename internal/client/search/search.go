// Package search runs debounced username prefix searches. Each keystroke
// restarts the debounce window and supersedes any query still in flight:
// results are published only while the generation they were started for is
// still current, so a slow early query never overwrites a newer answer.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/gateway"
	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is the quiet period after the last keystroke before a
// query is sent.
const DefaultDebounce = 250 * time.Millisecond

const resultsBuffer = 8

// AvatarResolver finds the picture URL for an owner.
type AvatarResolver interface {
	AvatarURL(ctx context.Context, ownerID string) (string, error)
}

type State int

const (
	Idle State = iota
	Debouncing
	Querying
)

func (s State) String() string {
	switch s {
	case Debouncing:
		return "debouncing"
	case Querying:
		return "querying"
	default:
		return "idle"
	}
}

// Result is one published search outcome. An empty Query means the input
// was cleared.
type Result struct {
	Query string
	Items []models.Suggestion
	Err   error
}

type Option func(*Controller)

func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

func WithLimit(n int) Option {
	return func(c *Controller) { c.limit = n }
}

func WithAvatars(r AvatarResolver) Option {
	return func(c *Controller) { c.avatars = r }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

type Controller struct {
	searcher gateway.UsernameSearcher
	avatars  AvatarResolver
	debounce time.Duration
	limit    int
	log      logging.Logger

	base     context.Context
	shutdown context.CancelFunc

	mu       sync.Mutex
	gen      uint64
	state    State
	timer    *time.Timer
	inflight context.CancelFunc
	closed   bool
	latest   Result
	results  chan Result
}

func New(searcher gateway.UsernameSearcher, opts ...Option) *Controller {
	base, shutdown := context.WithCancel(context.Background())
	c := &Controller{
		searcher: searcher,
		debounce: DefaultDebounce,
		limit:    gateway.DefaultSuggestionLimit,
		log:      logging.Nop(),
		base:     base,
		shutdown: shutdown,
		results:  make(chan Result, resultsBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Results delivers published results. It is closed by Close. When the reader
// falls behind, older undelivered results are dropped in favor of newer ones.
func (c *Controller) Results() <-chan Result {
	return c.results
}

// Latest returns the most recently published result.
func (c *Controller) Latest() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Type handles the full current input text. Blank input publishes an empty
// result before returning, without a store call; anything else (re)starts
// the debounce window.
func (c *Controller) Type(text string) {
	query := strings.TrimSpace(text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.gen++
	c.stopLocked()

	if query == "" {
		c.state = Idle
		c.publishLocked(Result{})
		return
	}

	gen := c.gen
	c.state = Debouncing
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(gen, query) })
}

// Close cancels pending and in-flight work. Nothing is published after
// Close returns.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	c.stopLocked()
	c.shutdown()
	c.state = Idle
	close(c.results)
}

// stopLocked stops the debounce timer and cancels the in-flight query.
func (c *Controller) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
}

func (c *Controller) fire(gen uint64, query string) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(c.base)
	c.inflight = cancel
	c.timer = nil
	c.state = Querying
	c.mu.Unlock()
	defer cancel()

	items, err := c.run(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		c.log.Debug(ctx, "stale search result dropped", "query", query)
		return
	}
	c.inflight = nil
	c.state = Idle
	if err != nil {
		c.log.Warn(ctx, "username search failed", "query", query, "err", err)
	}
	c.publishLocked(Result{Query: query, Items: items, Err: err})
}

// run queries the index and resolves every hit's avatar concurrently. The
// list is returned only once all lookups have finished.
func (c *Controller) run(ctx context.Context, query string) ([]models.Suggestion, error) {
	entries, err := c.searcher.SearchUsernamesByPrefix(ctx, query, c.limit)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]models.Suggestion, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		items[i].UsernameEntry = entry
		if c.avatars == nil {
			continue
		}
		g.Go(func() error {
			url, err := c.avatars.AvatarURL(gctx, entry.OwnerID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.log.Debug(gctx, "avatar lookup failed", "owner", entry.OwnerID, "err", err)
				return nil
			}
			items[i].AvatarURL = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Controller) publishLocked(r Result) {
	c.latest = r
	select {
	case c.results <- r:
		return
	default:
	}
	select {
	case <-c.results:
	default:
	}
	select {
	case c.results <- r:
	default:
	}
}
