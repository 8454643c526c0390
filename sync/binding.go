package sync

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
)

// ErrNoMutator is returned by mutation triggers on a binding built without a coordinator.
var ErrNoMutator = errors.New("sync: binding has no mutation coordinator")

// Snapshot is the view-facing projection of a cache entry. Purely derived:
// everything here is reconstructible from the store.
type Snapshot struct {
	Data      []core.Record
	Record    core.Record
	IsLoading bool
	IsError   bool
	Err       error
	UpdatedAt time.Time
}

func project(e Entry) Snapshot {
	return Snapshot{
		Data:      e.Data,
		Record:    e.Record,
		IsLoading: e.IsLoading(),
		IsError:   e.IsError(),
		Err:       e.Err,
		UpdatedAt: e.UpdatedAt,
	}
}

type BindOptions struct {
	// Realtime keeps the entity's change feed open while the binding lives.
	Realtime *Reconciler
	// Mutator exposes mutation triggers through the binding.
	Mutator *Coordinator
}

// Binding ties one query to a consumer: cached snapshots, conflated updates,
// and bound mutation triggers. It holds no state of its own.
type Binding struct {
	store   *Store
	q       Query
	w       *Watcher
	sub     *Subscription
	mutator *Coordinator
}

// Bind attaches to q's cache entry, dispatching a fetch if the entry is
// absent or stale, and (optionally) holds a realtime reference for the
// query's entity.
func Bind(store *Store, q Query, opts *BindOptions) *Binding {
	b := &Binding{store: store, q: q}
	if opts != nil {
		b.mutator = opts.Mutator
		if opts.Realtime != nil {
			b.sub = opts.Realtime.Subscribe(q.Key.Entity)
		}
	}
	b.w = store.Watch(q)
	return b
}

// Snapshot returns the current projection without side effects.
func (b *Binding) Snapshot() Snapshot {
	e, ok := b.store.Peek(b.q.Key)
	if !ok {
		return Snapshot{IsLoading: true}
	}
	return project(e)
}

// Refresh re-invokes the fetch path (the manual retry for errored reads) and
// returns the resulting projection.
func (b *Binding) Refresh() Snapshot {
	return project(b.store.Get(b.q))
}

// Updates delivers a snapshot whenever the entry changes. Conflated: slow
// consumers only see the latest state.
func (b *Binding) Updates() <-chan Entry {
	return b.w.C
}

// Mutate triggers a mutation through the bound coordinator.
func (b *Binding) Mutate(ctx context.Context, m Mutation) (core.Record, error) {
	if b.mutator == nil {
		return nil, ErrNoMutator
	}
	return b.mutator.Mutate(ctx, m)
}

// MutateAll triggers a bulk mutation through the bound coordinator.
func (b *Binding) MutateAll(ctx context.Context, muts []Mutation) (*BulkResult, error) {
	if b.mutator == nil {
		return nil, ErrNoMutator
	}
	return b.mutator.MutateAll(ctx, muts)
}

// Close detaches the binding: the watcher is removed and the realtime
// reference released. In-flight fetches continue; their results land in the
// shared cache.
func (b *Binding) Close() {
	b.w.Close()
	if b.sub != nil {
		b.sub.Unsubscribe()
	}
}

// Records converts a snapshot's collection to its concrete type, skipping
// records of any other type.
func Records[T core.Record](snap Snapshot) []T {
	out := make([]T, 0, len(snap.Data))
	for _, rec := range snap.Data {
		if v, ok := rec.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// RecordAs converts a snapshot's single record to its concrete type.
func RecordAs[T core.Record](snap Snapshot) (T, bool) {
	v, ok := snap.Record.(T)
	return v, ok
}
