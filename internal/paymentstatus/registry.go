package paymentstatus

import (
	"context"
	"sort"
	"sync"

	"github.com/opaquedelicia/restaurant-platform/internal/models"
)

type WatcherFactory func() *Watcher

// Registry keeps at most one running watcher per reference and remembers references that
// already settled so they are never polled again.
type Registry struct {
	factory WatcherFactory

	mu       sync.Mutex
	watchers map[string]*Watcher
	settled  map[string]models.PaymentStatus
}

func NewRegistry(factory WatcherFactory) *Registry {
	return &Registry{
		factory:  factory,
		watchers: make(map[string]*Watcher),
		settled:  make(map[string]models.PaymentStatus),
	}
}

// Watch starts watching reference. It returns the running watcher and true, or nil and
// false when the reference is empty or already settled.
func (r *Registry) Watch(ctx context.Context, reference string, callbacks ...StatusChangeFunc) (*Watcher, bool) {

	if reference == "" {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, done := r.settled[reference]; done {
		return nil, false
	}

	if w, ok := r.watchers[reference]; ok {
		for _, cb := range callbacks {
			w.OnStatusChange(cb)
		}
		return w, true
	}

	w := r.factory()
	w.OnStatusChange(func(_ context.Context, ref string, _, to models.PaymentStatus) {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.settled[ref] = to
		delete(r.watchers, ref)
	})

	for _, cb := range callbacks {
		w.OnStatusChange(cb)
	}

	r.watchers[reference] = w
	w.Start(ctx, reference)

	go func() {
		<-w.Done()

		r.mu.Lock()
		defer r.mu.Unlock()

		if r.watchers[reference] == w {
			delete(r.watchers, reference)
		}
	}()

	return w, true
}

// Unwatch stops the watcher for reference, if any.
func (r *Registry) Unwatch(reference string) {

	r.mu.Lock()
	w, ok := r.watchers[reference]
	delete(r.watchers, reference)
	r.mu.Unlock()

	if ok {
		w.Stop()
	}
}

func (r *Registry) StopAll() {

	r.mu.Lock()
	watchers := r.watchers
	r.watchers = make(map[string]*Watcher)
	r.mu.Unlock()

	for _, w := range watchers {
		w.Stop()
	}
}

// Active lists the references being watched, sorted.
func (r *Registry) Active() []string {

	r.mu.Lock()
	defer r.mu.Unlock()

	refs := make([]string, 0, len(r.watchers))
	for ref := range r.watchers {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	return refs
}

func (r *Registry) Settled(reference string) (models.PaymentStatus, bool) {

	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.settled[reference]

	return status, ok
}
