package sync

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
)

func TestBindingLifecycle(t *testing.T) {
	s := NewStore(nopLogger{})
	defer s.Close()

	d := &fakeDialer{}
	r := NewReconciler(s, d, nopLogger{}, fastOpts())
	defer r.Close()
	c := NewCoordinator(s, nopLogger{})

	f := newCtlFetch()
	q := collectionQuery(f)
	b := Bind(s, q, &BindOptions{Realtime: r, Mutator: c})

	// binding dispatches the initial fetch and holds a realtime reference
	if snap := b.Snapshot(); !snap.IsLoading {
		t.Fatalf("initial snapshot = %+v, want loading", snap)
	}
	waitFor(t, "subscribed", func() bool { return r.State(core.EntityStudent) == Subscribed })

	f.feed(fetchResult{data: recs(rec{ID: "1", Name: "a"})})
	waitFor(t, "fetch", settled(s, q.Key))

	if got := Records[rec](b.Snapshot()); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("Records() = %v, want the fetched record", got)
	}

	// updates flow through the conflated channel
	d.stream().ch <- core.ChangeEvent{Entity: core.EntityStudent, Op: core.ChangeInsert, ID: "2", Record: rec{ID: "2", Name: "b"}}
	waitFor(t, "update delivered", func() bool {
		select {
		case e := <-b.Updates():
			return len(e.Data) == 2
		default:
			return false
		}
	})

	// mutations run through the bound coordinator
	r3 := rec{ID: "3", Name: "c"}
	got, err := b.Mutate(context.Background(), Mutation{
		Entity: core.EntityStudent,
		Op:     OpCreate,
		Record: r3,
		Write:  func(ctx context.Context) (core.Record, error) { return r3, nil },
	})
	if err != nil || got.RecordID() != "3" {
		t.Fatalf("Mutate() = %v, %v", got, err)
	}

	// closing releases the realtime reference
	b.Close()
	waitFor(t, "realtime released", func() bool { return r.State(core.EntityStudent) == Closed })
}

func TestBindingWithoutMutator(t *testing.T) {
	s := NewStore(nopLogger{})
	defer s.Close()

	f := newCtlFetch()
	b := Bind(s, collectionQuery(f), nil)
	defer b.Close()

	if _, err := b.Mutate(context.Background(), Mutation{}); !errors.Is(err, ErrNoMutator) {
		t.Errorf("Mutate() error = %v, want ErrNoMutator", err)
	}
	if _, err := b.MutateAll(context.Background(), nil); !errors.Is(err, ErrNoMutator) {
		t.Errorf("MutateAll() error = %v, want ErrNoMutator", err)
	}
}

func TestBindingRefreshRetriesError(t *testing.T) {
	s := NewStore(nopLogger{})
	defer s.Close()

	f := newCtlFetch()
	q := collectionQuery(f)
	b := Bind(s, q, nil)
	defer b.Close()

	f.feed(fetchResult{err: errors.New("boom")})
	waitFor(t, "errored fetch", settled(s, q.Key))
	if snap := b.Snapshot(); !snap.IsError {
		t.Fatalf("snapshot = %+v, want error", snap)
	}

	if snap := b.Refresh(); !snap.IsLoading {
		t.Fatalf("Refresh() = %+v, want loading", snap)
	}
	f.feed(fetchResult{data: recs(rec{ID: "1", Name: "a"})})
	waitFor(t, "retried fetch", settled(s, q.Key))
	if snap := b.Snapshot(); snap.IsError || len(snap.Data) != 1 {
		t.Errorf("snapshot after retry = %+v, want success", snap)
	}
}

func TestRecordAs(t *testing.T) {
	snap := Snapshot{Record: rec{ID: "1", Name: "a"}}
	if r, ok := RecordAs[rec](snap); !ok || r.ID != "1" {
		t.Errorf("RecordAs() = %v, %v", r, ok)
	}
	if _, ok := RecordAs[rec](Snapshot{}); ok {
		t.Error("RecordAs() on empty snapshot, want !ok")
	}
}
