package repo

import (
	"context"
	"sync"
)

// Feed is an in-process ChangeFeed for stores that live in this process.
type Feed struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Change)
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[int]func(Change))}
}

func (f *Feed) Subscribe(_ context.Context, fn func(Change)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	return &feedSub{f: f, id: id}, nil
}

// Publish delivers c to every subscriber synchronously, outside the lock so
// a subscriber may unsubscribe from its own callback.
func (f *Feed) Publish(c Change) {
	f.mu.RLock()
	fns := make([]func(Change), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.RUnlock()
	for _, fn := range fns {
		fn(c)
	}
}

func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

type feedSub struct {
	f    *Feed
	id   int
	once sync.Once
}

func (s *feedSub) Close() error {
	s.once.Do(func() {
		s.f.mu.Lock()
		delete(s.f.subs, s.id)
		s.f.mu.Unlock()
	})
	return nil
}
