package engine

import "sync"

// ChangeKind says which part of the state a Change touched.
type ChangeKind int

const (
	ChangeDrafts ChangeKind = iota + 1
	ChangeCounts
	ChangePublished
	ChangeSuggestions
	ChangeIdentity
)

// Change notifies subscribers that the state moved. ID is set for changes to
// a single draft.
type Change struct {
	Kind ChangeKind
	ID   string
}

const subscriberBuffer = 64

type subscribers struct {
	mu   sync.Mutex
	next int
	chs  map[int]chan Change
}

// Subscribe returns a channel receiving a Change after every state
// transition, and a function that ends the subscription and closes the
// channel. Slow readers miss notifications rather than block the engine; a
// reader should treat any Change as "take a new Snapshot".
func (e *Engine) Subscribe() (<-chan Change, func()) {
	e.subs.mu.Lock()
	defer e.subs.mu.Unlock()
	if e.subs.chs == nil {
		e.subs.chs = map[int]chan Change{}
	}
	id := e.subs.next
	e.subs.next++
	ch := make(chan Change, subscriberBuffer)
	e.subs.chs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subs.mu.Lock()
			defer e.subs.mu.Unlock()
			delete(e.subs.chs, id)
			close(ch)
		})
	}
}

func (e *Engine) emit(c Change) {
	e.subs.mu.Lock()
	defer e.subs.mu.Unlock()
	for _, ch := range e.subs.chs {
		select {
		case ch <- c:
		default:
		}
	}
}
