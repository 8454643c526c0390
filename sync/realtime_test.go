package sync

import (
	"context"
	stdsync "sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
)

type fakeStream struct {
	ch   chan core.ChangeEvent
	once stdsync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{ch: make(chan core.ChangeEvent, 8)}
}

func (s *fakeStream) Events() <-chan core.ChangeEvent { return s.ch }

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.ch) })
	return nil
}

// fakeDialer fails a configured number of dials, then hands out streams.
type fakeDialer struct {
	mu       stdsync.Mutex
	failures int
	dials    int
	current  *fakeStream
}

func (d *fakeDialer) Dial(ctx context.Context, entity core.Entity) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.failures > 0 {
		d.failures--
		return nil, errors.New("dial refused")
	}
	d.current = newFakeStream()
	return d.current, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) stream() *fakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func fastOpts() *ReconcilerOptions {
	return &ReconcilerOptions{InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestReconcilerDeliversEvents(t *testing.T) {
	s := NewStore(nopLogger{})
	defer s.Close()
	seedCollection(t, s, NewKey(core.EntityStudent, nil), rec{ID: "1", Name: "a"})

	d := &fakeDialer{}
	r := NewReconciler(s, d, nopLogger{}, fastOpts())
	defer r.Close()

	sub := r.Subscribe(core.EntityStudent)
	defer sub.Unsubscribe()
	waitFor(t, "subscribed", func() bool { return r.State(core.EntityStudent) == Subscribed })

	d.stream().ch <- core.ChangeEvent{
		Entity: core.EntityStudent, Op: core.ChangeInsert,
		ID: "2", Record: rec{ID: "2", Name: "b"},
	}
	waitFor(t, "event applied", func() bool {
		e, _ := s.Peek(NewKey(core.EntityStudent, nil))
		return len(e.Data) == 2
	})
}

func TestReconcilerRedialsWithBackoff(t *testing.T) {
	s := NewStore(nopLogger{})
	defer s.Close()

	d := &fakeDialer{failures: 2}
	r := NewReconciler(s, d, nopLogger{}, fastOpts())
	defer r.Close()

	sub := r.Subscribe(core.EntityStudent)
	defer sub.Unsubscribe()

	waitFor(t, "subscribed after failures", func() bool { return r.State(core.EntityStudent) == Subscribed })
	if got := d.dialCount(); got != 3 {
		t.Errorf("dialed %d times, want 3", got)
	}

	// a lost stream is redialed
	d.stream().Close()
	waitFor(t, "redial after stream loss", func() bool {
		return d.dialCount() == 4 && r.State(core.EntityStudent) == Subscribed
	})
}

func TestReconcilerRefcounting(t *testing.T) {
	s := NewStore(nopLogger{})
	defer s.Close()

	d := &fakeDialer{}
	r := NewReconciler(s, d, nopLogger{}, fastOpts())
	defer r.Close()

	sub1 := r.Subscribe(core.EntityStudent)
	sub2 := r.Subscribe(core.EntityStudent)
	waitFor(t, "subscribed", func() bool { return r.State(core.EntityStudent) == Subscribed })
	if got := d.dialCount(); got != 1 {
		t.Fatalf("dialed %d times for two references, want 1", got)
	}

	// dropping one reference keeps the channel open
	sub1.Unsubscribe()
	sub1.Unsubscribe() // idempotent
	if got := r.State(core.EntityStudent); got != Subscribed {
		t.Fatalf("state after partial release = %v, want subscribed", got)
	}

	// dropping the last closes it permanently
	sub2.Unsubscribe()
	waitFor(t, "closed", func() bool { return r.State(core.EntityStudent) == Closed })

	// a fresh subscription opens a new channel
	sub3 := r.Subscribe(core.EntityStudent)
	defer sub3.Unsubscribe()
	waitFor(t, "resubscribed", func() bool { return r.State(core.EntityStudent) == Subscribed })
	if got := d.dialCount(); got != 2 {
		t.Errorf("dialed %d times after resubscribe, want 2", got)
	}
}

func TestReconcilerSubscribeDuringLastRelease(t *testing.T) {
	s := NewStore(nopLogger{})
	defer s.Close()

	d := &fakeDialer{}
	r := NewReconciler(s, d, nopLogger{}, fastOpts())
	defer r.Close()

	// race the last release against a fresh subscription: the new reference
	// must never land on the channel being torn down
	for i := 0; i < 200; i++ {
		sub1 := r.Subscribe(core.EntityStudent)
		released := make(chan struct{})
		go func() {
			sub1.Unsubscribe()
			close(released)
		}()
		sub2 := r.Subscribe(core.EntityStudent)
		<-released

		if got := r.State(core.EntityStudent); got == Closed {
			t.Fatalf("iteration %d: held reference observes a closed channel", i)
		}
		sub2.Unsubscribe()
	}
}

func TestReconcilerCloseReleasesEverything(t *testing.T) {
	s := NewStore(nopLogger{})
	defer s.Close()

	d := &fakeDialer{}
	r := NewReconciler(s, d, nopLogger{}, fastOpts())

	r.Subscribe(core.EntityStudent)
	r.Subscribe(core.EntityTeacher)
	waitFor(t, "both subscribed", func() bool {
		return r.State(core.EntityStudent) == Subscribed && r.State(core.EntityTeacher) == Subscribed
	})

	r.Close()
	if r.State(core.EntityStudent) != Closed || r.State(core.EntityTeacher) != Closed {
		t.Error("Close() left channels open")
	}
}
