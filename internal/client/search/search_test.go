package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/gateway"
	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSearcher answers from a fixed index. Queries listed in hold block
// until their channel is closed, ignoring cancellation, so a late answer
// can be simulated.
type fakeSearcher struct {
	mu      sync.Mutex
	calls   []string
	index   []models.UsernameEntry
	hold    map[string]chan struct{}
	started chan string
	err     error
	ctxErrs []error
}

func newFakeSearcher(names ...string) *fakeSearcher {
	f := &fakeSearcher{hold: map[string]chan struct{}{}, started: make(chan string, 16)}
	for i, n := range names {
		f.index = append(f.index, models.UsernameEntry{Username: n, OwnerID: fmt.Sprint("o", i)})
	}
	return f
}

func (f *fakeSearcher) SearchUsernamesByPrefix(ctx context.Context, prefix string, limit int) ([]models.UsernameEntry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, prefix)
	hold := f.hold[prefix]
	f.mu.Unlock()
	f.started <- prefix

	if hold != nil {
		<-hold
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if f.err != nil {
		return nil, f.err
	}
	var out []models.UsernameEntry
	for _, e := range f.index {
		if gateway.InPrefixRange(e.Username, prefix) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSearcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func next(t *testing.T, c *Controller) Result {
	t.Helper()
	select {
	case r, ok := <-c.Results():
		require.True(t, ok, "results channel closed")
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no result published")
	}
	return Result{}
}

func names(items []models.Suggestion) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Username
	}
	return out
}

func TestType_BlankIsSynchronousAndOffline(t *testing.T) {
	f := newFakeSearcher("alice")
	c := New(f, WithDebounce(time.Hour))
	defer c.Close()

	c.Type("al")
	require.Equal(t, Debouncing, c.State())

	c.Type("   ")
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, Result{}, c.Latest())

	r := next(t, c)
	assert.Empty(t, r.Query)
	assert.Empty(t, r.Items)
	assert.Empty(t, f.Calls(), "blank input never reaches the store")
}

func TestType_DebounceCoalescesKeystrokes(t *testing.T) {
	f := newFakeSearcher("alice", "albert", "bob")
	c := New(f, WithDebounce(30*time.Millisecond))
	defer c.Close()

	for _, text := range []string{"a", "al", "al "} {
		c.Type(text)
		time.Sleep(5 * time.Millisecond)
	}

	r := next(t, c)
	assert.Equal(t, "al", r.Query)
	assert.ElementsMatch(t, []string{"alice", "albert"}, names(r.Items))
	assert.Equal(t, []string{"al"}, f.Calls())
}

func TestType_LateEarlierResultIsDiscarded(t *testing.T) {
	f := newFakeSearcher("alice", "albert")
	release := make(chan struct{})
	f.hold["a"] = release
	c := New(f, WithDebounce(time.Millisecond))
	defer c.Close()

	c.Type("a")
	require.Equal(t, "a", <-f.started)

	c.Type("ali")
	require.Equal(t, "ali", <-f.started)
	r := next(t, c)
	assert.Equal(t, "ali", r.Query)
	assert.Equal(t, []string{"alice"}, names(r.Items))

	close(release)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, "ali", c.Latest().Query, "the earlier query must not overwrite the newer result")
	select {
	case extra := <-c.Results():
		t.Fatalf("stale result published: %+v", extra)
	default:
	}
}

func TestType_SearchError(t *testing.T) {
	f := newFakeSearcher()
	f.err = errors.New("unavailable: backend down")
	c := New(f, WithDebounce(time.Millisecond))
	defer c.Close()

	c.Type("zz")
	r := next(t, c)
	require.Error(t, r.Err)
	assert.Equal(t, "unavailable: backend down", r.Err.Error())
}

// barrierAvatars only answers once every expected lookup has started, so a
// serialized fan-out would time out.
type barrierAvatars struct {
	want    int32
	started atomic.Int32
	fail    map[string]bool
}

func (b *barrierAvatars) AvatarURL(ctx context.Context, ownerID string) (string, error) {
	b.started.Add(1)
	deadline := time.Now().Add(time.Second)
	for b.started.Load() < b.want {
		if time.Now().After(deadline) {
			return "", errors.New("lookups were not concurrent")
		}
		time.Sleep(time.Millisecond)
	}
	if b.fail[ownerID] {
		return "", errors.New("no picture")
	}
	return "https://img.example/" + ownerID, nil
}

func TestType_AvatarFanOutIsConcurrent(t *testing.T) {
	f := newFakeSearcher("ann", "anna", "annie", "anton", "anya")
	av := &barrierAvatars{want: 5, fail: map[string]bool{"o2": true}}
	c := New(f, WithDebounce(time.Millisecond), WithAvatars(av))
	defer c.Close()

	c.Type("an")
	r := next(t, c)
	require.NoError(t, r.Err)
	require.Len(t, r.Items, 5)

	for _, it := range r.Items {
		if it.OwnerID == "o2" {
			assert.Empty(t, it.AvatarURL, "a failed lookup degrades to no picture")
			continue
		}
		assert.Equal(t, "https://img.example/"+it.OwnerID, it.AvatarURL)
	}
}

func TestClose_CancelsInFlight(t *testing.T) {
	f := newFakeSearcher("alice")
	release := make(chan struct{})
	f.hold["al"] = release
	c := New(f, WithDebounce(time.Millisecond))

	c.Type("al")
	<-f.started
	c.Close()
	close(release)

	_, ok := <-c.Results()
	assert.False(t, ok, "nothing is published after Close")

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.ctxErrs) == 1
	}, time.Second, time.Millisecond)
	f.mu.Lock()
	assert.ErrorIs(t, f.ctxErrs[0], context.Canceled)
	f.mu.Unlock()

	c.Type("alice")
	c.Close()
	assert.Len(t, f.Calls(), 1)
}

func TestClose_BeforeDebounceFires(t *testing.T) {
	f := newFakeSearcher("alice")
	c := New(f, WithDebounce(20*time.Millisecond))

	c.Type("al")
	c.Close()
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, f.Calls())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "debouncing", Debouncing.String())
	assert.Equal(t, "querying", Querying.String())
}
