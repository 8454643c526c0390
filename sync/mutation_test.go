package sync

import (
	"context"
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
)

// seedCollection settles a collection entry with the given records.
func seedCollection(t *testing.T, s *Store, key Key, data ...rec) *ctlFetch {
	t.Helper()
	f := newCtlFetch()
	s.Get(Query{Key: key, Fetch: f.fn, Less: recLess})
	f.feed(fetchResult{data: recs(data...)})
	waitFor(t, "seed fetch", settled(s, key))
	return f
}

func TestMutateCommitsAuthoritativeRecord(t *testing.T) {
	s := NewStore(nopLogger{})
	defer s.Close()
	c := NewCoordinator(s, nopLogger{})

	key := NewKey(core.EntityStudent, nil)
	seedCollection(t, s, key, rec{ID: "1", Name: "a"})

	optimistic := rec{ID: "tmp-2", Name: "b"}
	authoritative := rec{ID: "2", Name: "b"}

	m := Mutation{
		Entity: core.EntityStudent,
		Op:     OpCreate,
		Record: optimistic,
		Write: func(ctx context.Context) (core.Record, error) {
			// the optimistic copy must be visible while the write runs
			e, _ := s.Peek(key)
			if indexOf(e.Data, "tmp-2") < 0 {
				t.Error("optimistic record not staged during write")
			}
			return authoritative, nil
		},
	}

	got, err := c.Mutate(context.Background(), m)
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}
	if got.RecordID() != "2" {
		t.Errorf("Mutate() = %v, want authoritative record", got)
	}

	e, _ := s.Peek(key)
	if indexOf(e.Data, "tmp-2") >= 0 {
		t.Error("optimistic id still present after commit")
	}
	if indexOf(e.Data, "2") < 0 {
		t.Errorf("authoritative record missing: %v", e.Data)
	}
}

func TestMutateRollsBackOnFailure(t *testing.T) {
	s := NewStore(nopLogger{})
	defer s.Close()
	c := NewCoordinator(s, nopLogger{})

	key := NewKey(core.EntityStudent, nil)
	seedCollection(t, s, key, rec{ID: "1", Name: "a"}, rec{ID: "2", Name: "b"})
	before, _ := s.Peek(key)

	boom := errors.New("boom")
	tests := []struct {
		name string
		m    Mutation
	}{
		{name: "create", m: Mutation{Entity: core.EntityStudent, Op: OpCreate, Record: rec{ID: "3", Name: "c"}}},
		{name: "update", m: Mutation{Entity: core.EntityStudent, Op: OpUpdate, Record: rec{ID: "1", Name: "a2"}}},
		{name: "delete", m: Mutation{Entity: core.EntityStudent, Op: OpDelete, Record: rec{ID: "2", Name: "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.m.Write = func(ctx context.Context) (core.Record, error) { return nil, boom }

			_, err := c.Mutate(context.Background(), tt.m)
			if !errors.Is(err, boom) {
				t.Fatalf("Mutate() error = %v, want the write error", err)
			}
			after, _ := s.Peek(key)
			if !reflect.DeepEqual(after.Data, before.Data) {
				t.Errorf("rollback left %v, want %v", after.Data, before.Data)
			}
		})
	}
}

func TestMutateScopesOptimisticPatch(t *testing.T) {
	s := NewStore(nopLogger{})
	defer s.Close()
	c := NewCoordinator(s, nopLogger{})

	all := NewKey(core.EntityStudent, nil)
	c1 := NewKey(core.EntityStudent, Params{"class_id": "c1"})
	c2 := NewKey(core.EntityStudent, Params{"class_id": "c2"})
	seedCollection(t, s, all)
	seedCollection(t, s, c1)
	seedCollection(t, s, c2)

	newRec := rec{ID: "1", Name: "a"}
	m := Mutation{
		Entity: core.EntityStudent,
		Op:     OpCreate,
		Record: newRec,
		Affects: func(k Key) bool {
			return MatchParams(k, Params{"class_id": "c1"})
		},
		Write: func(ctx context.Context) (core.Record, error) { return newRec, nil },
	}
	if _, err := c.Mutate(context.Background(), m); err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}

	for _, tt := range []struct {
		key  Key
		want int
	}{
		{key: all, want: 1},
		{key: c1, want: 1},
		{key: c2, want: 0},
	} {
		if e, _ := s.Peek(tt.key); len(e.Data) != tt.want {
			t.Errorf("%s has %d records, want %d", tt.key, len(e.Data), tt.want)
		}
	}
}

func TestMutateAllPartialFailure(t *testing.T) {
	s := NewStore(nopLogger{})
	defer s.Close()
	c := NewCoordinator(s, nopLogger{})

	key := NewKey(core.EntityAttendance, nil)
	f := newCtlFetch()
	s.Get(Query{Key: key, Fetch: f.fn})
	f.feed(fetchResult{})
	waitFor(t, "seed fetch", settled(s, key))

	boom := errors.New("boom")
	mut := func(id string, fail bool) Mutation {
		r := rec{ID: id, Name: id}
		return Mutation{
			Entity: core.EntityAttendance,
			Op:     OpCreate,
			Record: r,
			Write: func(ctx context.Context) (core.Record, error) {
				if fail {
					return nil, boom
				}
				return r, nil
			},
		}
	}

	res, err := c.MutateAll(context.Background(), []Mutation{
		mut("1", false),
		mut("2", true),
		mut("3", false),
	})
	if err == nil {
		t.Fatal("MutateAll() error = nil, want bulk failure")
	}
	if len(res.Committed) != 2 || len(res.Failed) != 1 {
		t.Fatalf("result = %d committed / %d failed, want 2/1", len(res.Committed), len(res.Failed))
	}
	if res.Failed[0].Index != 1 || !errors.Is(res.Failed[0].Err, boom) {
		t.Errorf("Failed[0] = %+v, want index 1 with the write error", res.Failed[0])
	}
	want := []MutationState{StateCommitted, StateRolledBack, StateCommitted}
	if !reflect.DeepEqual(res.States, want) {
		t.Errorf("States = %v, want %v", res.States, want)
	}

	// succeeded records stay; the failed one is rolled back
	e, _ := s.Peek(key)
	if indexOf(e.Data, "1") < 0 || indexOf(e.Data, "3") < 0 {
		t.Errorf("committed records missing: %v", e.Data)
	}
	if indexOf(e.Data, "2") >= 0 {
		t.Errorf("rolled-back record still present: %v", e.Data)
	}
}

func TestMutateAllCommitsWholeUnit(t *testing.T) {
	s := NewStore(nopLogger{})
	defer s.Close()
	c := NewCoordinator(s, nopLogger{})

	// one class-day entry plus a date-wide summary entry
	classDay := NewKey(core.EntityAttendance, Params{"class_id": "c1", "date": "2026-08-28"})
	byDate := NewKey(core.EntityAttendance, Params{"date": "2026-08-28"})
	cdf := seedCollection(t, s, classDay)
	bdf := seedCollection(t, s, byDate)

	muts := make([]Mutation, 4)
	for i := range muts {
		r := rec{ID: string(rune('1' + i)), Name: "s"}
		muts[i] = Mutation{
			Entity: core.EntityAttendance,
			Op:     OpCreate,
			Record: r,
			Write:  func(ctx context.Context) (core.Record, error) { return r, nil },
		}
	}

	res, err := c.MutateAll(context.Background(), muts)
	if err != nil {
		t.Fatalf("MutateAll() error = %v", err)
	}
	if len(res.Committed) != 4 || len(res.Failed) != 0 {
		t.Fatalf("result = %d committed / %d failed, want 4/0", len(res.Committed), len(res.Failed))
	}
	for i, st := range res.States {
		if st != StateCommitted {
			t.Errorf("States[%d] = %v, want committed", i, st)
		}
	}
	if e, _ := s.Peek(classDay); len(e.Data) != 4 {
		t.Errorf("class-day entry has %d records, want 4", len(e.Data))
	}

	// every attendance key goes stale, including the date-wide one
	s.Get(Query{Key: classDay, Fetch: cdf.fn, Less: recLess})
	s.Get(Query{Key: byDate, Fetch: bdf.fn, Less: recLess})
	cdf.feed(fetchResult{})
	bdf.feed(fetchResult{})
	waitFor(t, "refetches after invalidation", func() bool {
		return cdf.count() == 2 && bdf.count() == 2
	})
}

func TestMutateInvalidatesRelatedEntities(t *testing.T) {
	s := NewStore(nopLogger{})
	defer s.Close()
	c := NewCoordinator(s, nopLogger{})

	studentsKey := NewKey(core.EntityStudent, nil)
	classesKey := NewKey(core.EntityClass, nil)
	sf := seedCollection(t, s, studentsKey)
	cf := newCtlFetch()
	s.Get(Query{Key: classesKey, Fetch: cf.fn})
	cf.feed(fetchResult{})
	waitFor(t, "classes fetch", settled(s, classesKey))

	r := rec{ID: "1", Name: "a"}
	_, err := c.Mutate(context.Background(), Mutation{
		Entity: core.EntityStudent,
		Op:     OpCreate,
		Record: r,
		Write:  func(ctx context.Context) (core.Record, error) { return r, nil },
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}

	// a student mutation invalidates both students and classes
	s.Get(Query{Key: studentsKey, Fetch: sf.fn, Less: recLess})
	s.Get(Query{Key: classesKey, Fetch: cf.fn})
	sf.feed(fetchResult{data: recs(r)})
	cf.feed(fetchResult{})
	waitFor(t, "refetches", func() bool {
		return sf.count() == 2 && cf.count() == 2
	})
}
