package sync

import (
	"context"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/shulehq/shule/core"
)

type (
	// Stream is one live change feed. Events is closed when the feed fails
	// or is closed; the reconciler decides whether to redial.
	Stream interface {
		Events() <-chan core.ChangeEvent
		Close() error
	}

	// Dialer opens the platform's realtime channel for one entity type.
	Dialer interface {
		Dial(ctx context.Context, entity core.Entity) (Stream, error)
	}
)

// SubState is the lifecycle state of one entity subscription.
type SubState int32

const (
	Disconnected SubState = iota
	Connecting
	Subscribed
	Closed // terminal: last reference released
)

func (s SubState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Subscribed:
		return "subscribed"
	case Closed:
		return "closed"
	}
	return "unknown"
}

type ReconcilerOptions struct {
	InitialBackoff time.Duration // default 500ms
	MaxBackoff     time.Duration // default 30s
}

// Reconciler consumes pushed change events and folds them into the store.
// Subscriptions are reference-counted per entity: the underlying channel
// stays open while at least one handle is held and closes with the last one.
// Lost connections are redialed with capped exponential backoff.
type Reconciler struct {
	store   *Store
	dialer  Dialer
	log     core.Logger
	initial time.Duration
	max     time.Duration

	mu   stdsync.Mutex
	subs map[core.Entity]*subscription
}

type subscription struct {
	refs    int
	closing bool // guarded by Reconciler.mu; set with the last release
	state   atomic.Int32
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewReconciler(store *Store, dialer Dialer, log core.Logger, opts *ReconcilerOptions) *Reconciler {
	r := &Reconciler{
		store:   store,
		dialer:  dialer,
		log:     log,
		initial: 500 * time.Millisecond,
		max:     30 * time.Second,
		subs:    make(map[core.Entity]*subscription),
	}
	if opts != nil {
		if opts.InitialBackoff > 0 {
			r.initial = opts.InitialBackoff
		}
		if opts.MaxBackoff > 0 {
			r.max = opts.MaxBackoff
		}
	}
	return r
}

// Subscription is one held reference to an entity channel.
type Subscription struct {
	r    *Reconciler
	sub  *subscription
	once stdsync.Once
}

// Subscribe adds a reference to the entity's channel, opening it if this is
// the first. A channel in teardown counts as gone: the reference lands on a
// fresh one.
func (r *Reconciler) Subscribe(entity core.Entity) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := r.subs[entity]
	if sub == nil || sub.closing {
		ctx, cancel := context.WithCancel(context.Background())
		sub = &subscription{cancel: cancel, done: make(chan struct{})}
		sub.state.Store(int32(Connecting))
		r.subs[entity] = sub
		go r.run(ctx, entity, sub)
	}
	sub.refs++
	return &Subscription{r: r, sub: sub}
}

// Unsubscribe releases the reference. Releasing the last one closes the
// channel permanently (state Closed). Safe to call more than once.
func (h *Subscription) Unsubscribe() {
	h.once.Do(func() { h.r.release(h.sub) })
}

func (r *Reconciler) release(sub *subscription) {
	r.mu.Lock()
	if sub.closing {
		r.mu.Unlock()
		return
	}
	sub.refs--
	if sub.refs > 0 {
		r.mu.Unlock()
		return
	}
	// marked inside the lock so a concurrent Subscribe dials a fresh channel
	// instead of joining the one being torn down
	sub.closing = true
	r.mu.Unlock()

	sub.cancel()
	<-sub.done
}

// State reports the entity channel's current lifecycle state.
func (r *Reconciler) State(entity core.Entity) SubState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub := r.subs[entity]; sub != nil {
		return SubState(sub.state.Load())
	}
	return Disconnected
}

// Close releases every channel regardless of reference counts.
func (r *Reconciler) Close() {
	r.mu.Lock()
	subs := make([]*subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		if sub.closing {
			continue
		}
		subs = append(subs, sub)
		sub.refs = 0
		sub.closing = true
	}
	r.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
		<-sub.done
	}
}

func (r *Reconciler) run(ctx context.Context, entity core.Entity, sub *subscription) {
	defer close(sub.done)
	defer sub.state.Store(int32(Closed))

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.initial
	bo.MaxInterval = r.max

	for {
		sub.state.Store(int32(Connecting))
		stream, err := r.dialer.Dial(ctx, entity)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			sub.state.Store(int32(Disconnected))
			r.log.Warn("sync: realtime dial failed", string(entity), err)
			if !sleep(ctx, bo.NextBackOff()) {
				return
			}
			continue
		}

		bo.Reset()
		sub.state.Store(int32(Subscribed))
		r.consume(ctx, stream)
		_ = stream.Close()

		if ctx.Err() != nil {
			return
		}
		sub.state.Store(int32(Disconnected))
		r.log.Warn("sync: realtime channel lost, reconnecting", string(entity))
		if !sleep(ctx, bo.NextBackOff()) {
			return
		}
	}
}

// consume forwards events into the store until the stream ends or ctx is done.
func (r *Reconciler) consume(ctx context.Context, stream Stream) {
	for {
		select {
		case ev, ok := <-stream.Events():
			if !ok {
				return
			}
			r.store.ApplyEvent(ev)
		case <-ctx.Done():
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
