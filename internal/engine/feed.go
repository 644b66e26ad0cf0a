package engine

import "sync"

// changeFeed fans out "state changed" signals to subscribers.
//
// Each subscriber owns a channel with a buffer of one. Publishing never
// blocks: if a subscriber has not consumed the previous signal, the new one
// is coalesced into it. Subscribers therefore always re-read the current
// state instead of replaying a diff, so a burst of mutations costs them one
// wake-up.
type changeFeed struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func newChangeFeed() *changeFeed {
	return &changeFeed{subs: make(map[int]chan struct{})}
}

// subscribe registers a new subscriber. The returned cancel func is
// idempotent; the channel is never closed so a late receive cannot observe
// a spurious signal.
func (f *changeFeed) subscribe() (<-chan struct{}, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	ch := make(chan struct{}, 1)
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// publish signals every subscriber without blocking.
func (f *changeFeed) publish() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// len reports the number of live subscribers.
func (f *changeFeed) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
