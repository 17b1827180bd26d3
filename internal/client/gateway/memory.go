package gateway

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/common"
)

// Op names a gateway operation for Memory's failure injection and call log.
type Op string

const (
	OpFetchByOwner    Op = "fetch_by_owner"
	OpFetchPublished  Op = "fetch_published"
	OpCreate          Op = "create"
	OpPatch           Op = "patch"
	OpDelete          Op = "delete"
	OpExists          Op = "exists"
	OpCount           Op = "count"
	OpSearchUsernames Op = "search_usernames"
	OpRegisterProfile Op = "register_profile"
	OpProfile         Op = "profile"
	OpResolveUsername Op = "resolve_username"
)

// Call is one recorded gateway invocation.
type Call struct {
	Op  Op
	Arg string
}

var errOffline = errors.New("remote store is offline")

// Memory is an in-process Gateway. It behaves like the remote store
// (server-side timestamps, per-field patches, atomic profile batches) and
// lets callers inject latency and failures.
type Memory struct {
	mu        sync.Mutex
	drafts    map[string]models.Draft
	profiles  map[string]models.Profile
	usernames map[string]string

	latency   time.Duration
	opLatency map[Op]time.Duration
	offline   bool
	failNext  map[Op][]error
	calls     []Call

	now func() time.Time
}

var _ Gateway = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		drafts:    map[string]models.Draft{},
		profiles:  map[string]models.Profile{},
		usernames: map[string]string{},
		opLatency: map[Op]time.Duration{},
		failNext:  map[Op][]error{},
		now:       time.Now,
	}
}

// SetClock replaces the store's notion of "now".
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetLatency delays every operation by d.
func (m *Memory) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

// SetOpLatency delays op by d, overriding SetLatency for that op.
func (m *Memory) SetOpLatency(op Op, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opLatency[op] = d
}

// SetOffline makes every operation fail with common.ErrUnavailable.
func (m *Memory) SetOffline(offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = offline
}

// FailNext queues err as the result of the next call to op.
func (m *Memory) FailNext(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[op] = append(m.failNext[op], err)
}

// Calls returns the recorded call log.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount returns how many times op was invoked.
func (m *Memory) CallCount(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Seed stores drafts as-is, bypassing latency and failures.
func (m *Memory) Seed(ds ...models.Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range ds {
		m.drafts[d.ID] = d
	}
}

// Stored returns the stored copy of id.
func (m *Memory) Stored(id string) (models.Draft, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	return d, ok
}

// enter records the call, waits out the configured latency and returns any
// injected failure.
func (m *Memory) enter(ctx context.Context, op Op, arg string) error {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Op: op, Arg: arg})
	delay, ok := m.opLatency[op]
	if !ok {
		delay = m.latency
	}
	m.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return common.Wrap(common.ErrUnavailable, ctx.Err())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return common.Wrap(common.ErrUnavailable, errOffline)
	}
	if q := m.failNext[op]; len(q) > 0 {
		m.failNext[op] = q[1:]
		return q[0]
	}
	return nil
}

func (m *Memory) FetchByOwner(ctx context.Context, ownerID string) ([]models.Draft, error) {
	if err := m.enter(ctx, OpFetchByOwner, ownerID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(d models.Draft) bool { return d.OwnerID == ownerID }), nil
}

func (m *Memory) FetchPublishedByUsername(ctx context.Context, username string) ([]models.Draft, error) {
	if err := m.enter(ctx, OpFetchPublished, username); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.usernames[models.NormalizeUsername(username)]
	if !ok {
		return []models.Draft{}, nil
	}
	return m.filter(func(d models.Draft) bool { return d.OwnerID == owner && d.Published }), nil
}

func (m *Memory) filter(keep func(models.Draft) bool) []models.Draft {
	out := []models.Draft{}
	for _, d := range m.drafts {
		if keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) Create(ctx context.Context, d models.Draft) error {
	if err := m.enter(ctx, OpCreate, d.ID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[d.ID]; ok {
		return common.Wrap(common.ErrAlreadyExists, errors.New("draft "+d.ID))
	}
	now := m.now()
	d.CreatedAt, d.LastModifiedAt = now, now
	m.drafts[d.ID] = d
	return nil
}

func (m *Memory) Patch(ctx context.Context, id string, delta models.Delta) error {
	if err := models.ValidateDelta(delta); err != nil {
		return common.Wrap(common.ErrMalformed, err)
	}
	if err := m.enter(ctx, OpPatch, id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return common.Wrap(common.ErrNotFound, errors.New("draft "+id))
	}
	if _, touch := delta.(models.TimestampTouched); touch {
		delta = models.TimestampTouched{At: m.now()}
	}
	delta.Apply(&d)
	m.drafts[id] = d
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := m.enter(ctx, OpDelete, id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

func (m *Memory) Exists(ctx context.Context, id string) (bool, error) {
	if err := m.enter(ctx, OpExists, id); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.drafts[id]
	return ok, nil
}

func (m *Memory) CountByOwner(ctx context.Context, ownerID string, filter *models.CountFilter) (int, error) {
	if err := m.enter(ctx, OpCount, ownerID); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.drafts {
		if d.OwnerID == ownerID && filter.Matches(d) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) SearchUsernamesByPrefix(ctx context.Context, prefix string, limit int) ([]models.UsernameEntry, error) {
	if err := m.enter(ctx, OpSearchUsernames, prefix); err != nil {
		return nil, err
	}
	if BlankPrefix(prefix) {
		return []models.UsernameEntry{}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.usernames))
	for name := range m.usernames {
		if InPrefixRange(name, prefix) {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	if n := ClampLimit(limit); len(keys) > n {
		keys = keys[:n]
	}

	out := make([]models.UsernameEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.UsernameEntry{Username: k, OwnerID: m.usernames[k]})
	}
	return out, nil
}

func (m *Memory) RegisterProfile(ctx context.Context, p models.Profile) error {
	p, err := p.Normalize()
	if err != nil {
		return err
	}
	if err := m.enter(ctx, OpRegisterProfile, p.Username); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.usernames[p.Username]; taken {
		return common.Wrap(common.ErrAlreadyExists, errors.New("username "+p.Username))
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now()
	}
	m.usernames[p.Username] = p.OwnerID
	m.profiles[p.OwnerID] = p
	return nil
}

func (m *Memory) Profile(ctx context.Context, ownerID string) (models.Profile, error) {
	if err := m.enter(ctx, OpProfile, ownerID); err != nil {
		return models.Profile{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[ownerID]
	if !ok {
		return models.Profile{}, common.Wrap(common.ErrNotFound, errors.New("profile "+ownerID))
	}
	return p, nil
}

func (m *Memory) ResolveUsername(ctx context.Context, username string) (string, error) {
	if err := m.enter(ctx, OpResolveUsername, username); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.usernames[models.NormalizeUsername(username)]
	if !ok {
		return "", common.Wrap(common.ErrNotFound, errors.New("username "+username))
	}
	return owner, nil
}

func (m *Memory) Close(context.Context) error { return nil }
