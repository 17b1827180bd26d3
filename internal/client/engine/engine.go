package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/gateway"
	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Store is the part of the remote store the engine talks to.
type Store interface {
	gateway.Drafts
	gateway.UsernameSearcher
}

var (
	// ErrNoOwner is returned, without touching the store, by owner-scoped
	// calls made while nobody is signed in.
	ErrNoOwner = fmt.Errorf("%w: no signed-in user", common.ErrUnauthenticated)
	// ErrOwnerMismatch rejects calls naming an owner other than the one
	// whose data is cached.
	ErrOwnerMismatch = fmt.Errorf("%w: owner does not match signed-in user", common.ErrPermissionDenied)
	// ErrDraftNotCached is returned by Patch for ids missing from the cache.
	ErrDraftNotCached = fmt.Errorf("%w: draft is not cached", common.ErrNotFound)
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for client-side timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger; the default discards output.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine owns the cached drafts and counts of the signed-in owner and funnels
// every write to the store.
type Engine struct {
	store Store
	log   logging.Logger
	now   func() time.Time

	mu    sync.Mutex
	owner string
	// epoch changes on every identity change.
	epoch uint64
	gens  [sliceCount]uint64

	drafts       models.Slice[[]models.Draft]
	ownCount     models.Slice[int]
	pubCount     models.Slice[int]
	published    models.Slice[[]models.Draft]
	publishedFor string
	suggestions  models.Slice[[]models.UsernameEntry]

	// pending holds creates the store has not answered yet. Patches and
	// deletes of the same id wait for them.
	pending map[string]*pendingCreate
	// writes counts store patches in flight per id.
	writes map[string]int
	// touched collects ids changed locally while a drafts load is running.
	touched map[string]struct{}

	subs subscribers
}

type pendingCreate struct {
	done chan struct{}
	err  error
}

type sliceID int

const (
	sliceDrafts sliceID = iota
	sliceOwnCount
	slicePubCount
	slicePublished
	sliceSuggestions
	sliceCount
)

// New returns an Engine with nobody signed in.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		log:     logging.Nop(),
		now:     time.Now,
		pending: map[string]*pendingCreate{},
		writes:  map[string]int{},
		touched: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("component", "engine")
	return e
}

// checkOwner must be called with e.mu held.
func (e *Engine) checkOwner(ownerID string) error {
	if e.owner == "" || ownerID == "" {
		return ErrNoOwner
	}
	if ownerID != e.owner {
		return ErrOwnerMismatch
	}
	return nil
}

// begin marks a slice fetch as started and returns the token that must still
// be current when its result arrives. Called with e.mu held.
func (e *Engine) begin(s sliceID) (epoch, gen uint64) {
	e.gens[s]++
	return e.epoch, e.gens[s]
}

// current reports whether a fetch started with (epoch, gen) may still apply.
func (e *Engine) current(s sliceID, epoch, gen uint64) bool {
	return e.epoch == epoch && e.gens[s] == gen
}

// markLocked records a local change to id made while a drafts load is in
// flight. Called with e.mu held.
func (e *Engine) markLocked(id string) {
	if e.drafts.Status == models.SliceLoading {
		e.touched[id] = struct{}{}
	}
}

// localWins reports whether the cached copy of id, or its absence, must
// survive a load that is being applied. Called with e.mu held.
func (e *Engine) localWins(id string) bool {
	if _, ok := e.pending[id]; ok {
		return true
	}
	if e.writes[id] > 0 {
		return true
	}
	_, ok := e.touched[id]
	return ok
}

// Owner returns the signed-in owner id, or "".
func (e *Engine) Owner() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}

// Load fetches ownerID's drafts and replaces the cached list, newest first.
func (e *Engine) Load(ctx context.Context, ownerID string) error {
	e.mu.Lock()
	if err := e.checkOwner(ownerID); err != nil {
		e.mu.Unlock()
		return err
	}
	epoch, gen := e.begin(sliceDrafts)
	e.drafts = models.Slice[[]models.Draft]{Status: models.SliceLoading, Value: e.drafts.Value}
	e.emit(Change{Kind: ChangeDrafts})
	e.mu.Unlock()

	fetched, err := e.store.FetchByOwner(ctx, ownerID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(sliceDrafts, epoch, gen) {
		e.log.Debug(ctx, "stale load discarded", "owner", ownerID)
		return nil
	}
	if err != nil {
		clear(e.touched)
		e.drafts = models.Failed[[]models.Draft](err)
		e.emit(Change{Kind: ChangeDrafts})
		e.log.Error(ctx, "load failed", "owner", ownerID, "err", err)
		return err
	}

	// Drafts created, patched or deleted since the fetch started keep their
	// local state; the fetched copy may predate the change.
	list := make([]models.Draft, 0, len(fetched))
	for _, d := range fetched {
		if !e.localWins(d.ID) {
			list = append(list, d)
		}
	}
	for _, d := range e.drafts.Value {
		if e.localWins(d.ID) {
			list = append(list, d)
		}
	}
	clear(e.touched)
	models.SortByRecency(list)
	e.drafts = models.Loaded(list, len(list) == 0)
	e.emit(Change{Kind: ChangeDrafts})
	return nil
}

// Create inserts a new draft at the head of the cached list and then writes
// it to the store. If the store write fails the draft is removed again and
// returned together with the error; it is never retried automatically.
func (e *Engine) Create(ctx context.Context, ownerID, content string, opts ...models.DraftOption) (models.Draft, error) {
	e.mu.Lock()
	if err := e.checkOwner(ownerID); err != nil {
		e.mu.Unlock()
		return models.Draft{}, err
	}
	d := models.NewDraft(ownerID, content, e.now(), opts...)
	epoch := e.epoch
	p := &pendingCreate{done: make(chan struct{})}
	e.pending[d.ID] = p
	e.markLocked(d.ID)
	e.drafts.Value = append([]models.Draft{d}, e.drafts.Value...)
	if e.drafts.Status == models.SliceInitial || e.drafts.Status == models.SliceEmpty {
		e.drafts.Status = models.SliceComplete
	}
	e.emit(Change{Kind: ChangeDrafts, ID: d.ID})
	e.mu.Unlock()

	err := e.store.Create(context.WithoutCancel(ctx), d)

	e.mu.Lock()
	defer e.mu.Unlock()
	p.err = err
	close(p.done)
	if e.pending[d.ID] == p {
		delete(e.pending, d.ID)
	}
	if e.epoch == epoch {
		e.markLocked(d.ID)
	}
	if err == nil {
		return d, nil
	}
	if e.epoch == epoch {
		e.removeLocked(d.ID)
		e.emit(Change{Kind: ChangeDrafts, ID: d.ID})
	}
	e.log.Warn(ctx, "create rolled back", "id", d.ID, "err", err)
	return d, err
}

// Patch applies delta to the cached draft immediately and then writes it to
// the store. A failed write is logged and returned but the local change
// stays. Calling Patch twice with the same delta applies it once per call to
// the one cached copy, so the last call wins. A patch of a draft whose create
// is still in flight is sent only after the create is confirmed.
func (e *Engine) Patch(ctx context.Context, id string, delta models.Delta) error {
	if err := models.ValidateDelta(delta); err != nil {
		return common.Wrap(common.ErrMalformed, err)
	}

	e.mu.Lock()
	if e.owner == "" {
		e.mu.Unlock()
		return ErrNoOwner
	}
	i := indexOf(e.drafts.Value, id)
	if i < 0 {
		e.mu.Unlock()
		return ErrDraftNotCached
	}
	if touch, ok := delta.(models.TimestampTouched); ok && touch.At.IsZero() {
		delta = models.TimestampTouched{At: e.now()}
	}
	delta.Apply(&e.drafts.Value[i])
	if _, ok := delta.(models.TimestampTouched); ok {
		models.SortByRecency(e.drafts.Value)
	}
	e.markLocked(id)
	e.writes[id]++
	epoch := e.epoch
	p := e.pending[id]
	e.emit(Change{Kind: ChangeDrafts, ID: id})
	e.mu.Unlock()
	defer e.endWrite(id, epoch)

	if p != nil {
		<-p.done
		if p.err != nil {
			return fmt.Errorf("create of %s failed: %w", id, p.err)
		}
	}

	if err := e.store.Patch(context.WithoutCancel(ctx), id, delta); err != nil {
		e.log.Warn(ctx, "patch not confirmed, local edit kept", "id", id, "err", err)
		return err
	}
	return nil
}

// endWrite settles one in-flight store patch of id.
func (e *Engine) endWrite(id string, epoch uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		return
	}
	if n := e.writes[id]; n > 1 {
		e.writes[id] = n - 1
	} else {
		delete(e.writes, id)
	}
	e.markLocked(id)
}

// Delete removes the draft from the store and, once that succeeds, from the
// cache. A failed delete leaves the draft visible. Deleting a draft whose
// create is in flight waits for that create first.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	if e.owner == "" {
		e.mu.Unlock()
		return ErrNoOwner
	}
	epoch := e.epoch
	p := e.pending[id]
	e.mu.Unlock()

	if p != nil {
		<-p.done
	}

	if err := e.store.Delete(context.WithoutCancel(ctx), id); err != nil {
		e.log.Warn(ctx, "delete failed", "id", id, "err", err)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		return nil
	}
	e.markLocked(id)
	if e.removeLocked(id) {
		e.emit(Change{Kind: ChangeDrafts, ID: id})
	}
	return nil
}

// Reconcile asks the store whether id still exists and drops the cached copy
// if it does not. It reports whether the draft exists remotely.
func (e *Engine) Reconcile(ctx context.Context, id string) (bool, error) {
	e.mu.Lock()
	if e.owner == "" {
		e.mu.Unlock()
		return false, ErrNoOwner
	}
	epoch := e.epoch
	e.mu.Unlock()

	ok, err := e.store.Exists(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, inFlight := e.pending[id]; inFlight || e.epoch != epoch {
		return false, nil
	}
	e.markLocked(id)
	if e.removeLocked(id) {
		e.emit(Change{Kind: ChangeDrafts, ID: id})
	}
	return false, nil
}

// RefreshCounts reloads the total and published counts for ownerID. The two
// slices load independently; the returned error joins both failures.
func (e *Engine) RefreshCounts(ctx context.Context, ownerID string) error {
	e.mu.Lock()
	if err := e.checkOwner(ownerID); err != nil {
		e.mu.Unlock()
		return err
	}
	epoch, ownGen := e.begin(sliceOwnCount)
	_, pubGen := e.begin(slicePubCount)
	e.ownCount = models.Loading[int]()
	e.pubCount = models.Loading[int]()
	e.emit(Change{Kind: ChangeCounts})
	e.mu.Unlock()

	var ownErr, pubErr error
	var g errgroup.Group
	g.Go(func() error {
		n, err := e.store.CountByOwner(ctx, ownerID, nil)
		ownErr = err
		e.settleCount(ctx, sliceOwnCount, epoch, ownGen, n, err)
		return nil
	})
	g.Go(func() error {
		n, err := e.store.CountByOwner(ctx, ownerID, models.PublishedOnly())
		pubErr = err
		e.settleCount(ctx, slicePubCount, epoch, pubGen, n, err)
		return nil
	})
	_ = g.Wait()

	return errors.Join(ownErr, pubErr)
}

func (e *Engine) settleCount(ctx context.Context, s sliceID, epoch, gen uint64, n int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(s, epoch, gen) {
		return
	}
	target := &e.ownCount
	if s == slicePubCount {
		target = &e.pubCount
	}
	if err != nil {
		*target = models.Failed[int](err)
		e.log.Error(ctx, "count failed", "published", s == slicePubCount, "err", err)
	} else {
		*target = models.Loaded(n, n == 0)
	}
	e.emit(Change{Kind: ChangeCounts})
}

// LoadPublished loads another user's published drafts by username. An
// unknown username settles as Empty.
func (e *Engine) LoadPublished(ctx context.Context, username string) error {
	e.mu.Lock()
	if e.owner == "" {
		e.mu.Unlock()
		return ErrNoOwner
	}
	epoch, gen := e.begin(slicePublished)
	e.published = models.Loading[[]models.Draft]()
	e.publishedFor = models.NormalizeUsername(username)
	e.emit(Change{Kind: ChangePublished})
	e.mu.Unlock()

	fetched, err := e.store.FetchPublishedByUsername(ctx, username)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(slicePublished, epoch, gen) {
		return nil
	}
	if err != nil {
		e.published = models.Failed[[]models.Draft](err)
		e.emit(Change{Kind: ChangePublished})
		return err
	}
	list := slices.Clone(fetched)
	models.SortByRecency(list)
	e.published = models.Loaded(list, len(list) == 0)
	e.emit(Change{Kind: ChangePublished})
	return nil
}

// Suggest loads username suggestions for prefix. A blank prefix settles as
// Empty without a store call.
func (e *Engine) Suggest(ctx context.Context, prefix string, limit int) error {
	e.mu.Lock()
	if e.owner == "" {
		e.mu.Unlock()
		return ErrNoOwner
	}
	epoch, gen := e.begin(sliceSuggestions)
	if gateway.BlankPrefix(prefix) {
		e.suggestions = models.Loaded([]models.UsernameEntry{}, true)
		e.emit(Change{Kind: ChangeSuggestions})
		e.mu.Unlock()
		return nil
	}
	e.suggestions = models.Loading[[]models.UsernameEntry]()
	e.emit(Change{Kind: ChangeSuggestions})
	e.mu.Unlock()

	found, err := e.store.SearchUsernamesByPrefix(ctx, prefix, limit)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(sliceSuggestions, epoch, gen) {
		return nil
	}
	if err != nil {
		e.suggestions = models.Failed[[]models.UsernameEntry](err)
	} else {
		e.suggestions = models.Loaded(slices.Clone(found), len(found) == 0)
	}
	e.emit(Change{Kind: ChangeSuggestions})
	return err
}

// removeLocked drops id from the cached list and settles the list as Empty
// when nothing is left. Called with e.mu held.
func (e *Engine) removeLocked(id string) bool {
	i := indexOf(e.drafts.Value, id)
	if i < 0 {
		return false
	}
	e.drafts.Value = slices.Delete(e.drafts.Value, i, i+1)
	if len(e.drafts.Value) == 0 && e.drafts.Status == models.SliceComplete {
		e.drafts.Status = models.SliceEmpty
	}
	return true
}

func indexOf(ds []models.Draft, id string) int {
	return slices.IndexFunc(ds, func(d models.Draft) bool { return d.ID == id })
}
