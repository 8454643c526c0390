package sync

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// WriteFunc issues the non-idempotent platform write and returns the
// authoritative record (nil for deletes).
type WriteFunc func(ctx context.Context) (core.Record, error)

// Mutation is one optimistic write unit.
type Mutation struct {
	Entity core.Entity
	Op     Op
	// Record is the optimistic prediction; deletes only use its ID.
	Record core.Record
	// Affects narrows the cache keys patched optimistically.
	// Nil patches every key of Entity.
	Affects func(Key) bool
	Write   WriteFunc
}

// MutationState is the settlement state of a staged mutation.
type MutationState int

const (
	StatePending MutationState = iota
	StateCommitted
	StateRolledBack
)

func (s MutationState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled back"
	}
	return "unknown"
}

// staged is a pending mutation: the applied optimistic patch plus the undo
// journal that restores the exact prior values on rollback.
type staged struct {
	m       Mutation
	state   MutationState
	undos   []func()
	touched []*entry
}

// DefaultInvalidations maps a mutated entity to every entity whose cached
// query keys go stale once the write is confirmed.
var DefaultInvalidations = map[core.Entity][]core.Entity{
	core.EntityStudent:      {core.EntityStudent, core.EntityClass},
	core.EntityTeacher:      {core.EntityTeacher, core.EntityTimetable},
	core.EntityClass:        {core.EntityClass, core.EntityTimetable},
	core.EntityAttendance:   {core.EntityAttendance},
	core.EntityTimetable:    {core.EntityTimetable},
	core.EntityAnnouncement: {core.EntityAnnouncement},
}

// Coordinator applies optimistic updates, issues writes, and reconciles the
// cache with the platform's authoritative responses. Writes are never
// retried automatically.
type Coordinator struct {
	store   *Store
	log     core.Logger
	affects map[core.Entity][]core.Entity
}

func NewCoordinator(store *Store, log core.Logger) *Coordinator {
	return &Coordinator{store: store, log: log, affects: DefaultInvalidations}
}

// Mutate stages m optimistically, issues the write, and commits or rolls back.
// On failure the prior cache values are restored exactly and the error is
// surfaced verbatim.
func (c *Coordinator) Mutate(ctx context.Context, m Mutation) (core.Record, error) {
	if m.Write == nil {
		return nil, errors.New("sync: mutation without a write")
	}

	var st *staged
	c.store.loop.call(func() { st = c.stageLocked(m) })

	rec, err := m.Write(ctx)

	c.store.loop.call(func() {
		if err != nil {
			c.rollbackLocked(st)
			return
		}
		c.commitLocked(st, rec)
		c.invalidateLocked(m.Entity)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

type (
	BulkFailure struct {
		Index int
		Err   error
	}

	// BulkResult reports a bulk unit's per-record outcome: succeeded writes
	// stay committed even when the unit as a whole failed.
	BulkResult struct {
		Committed []core.Record
		Failed    []BulkFailure
		States    []MutationState // per input mutation
	}
)

// MutateAll runs muts as one logical unit: all records staged optimistically,
// writes issued concurrently, each record settled independently. The unit
// fails if any write fails; only the failed subset is rolled back.
func (c *Coordinator) MutateAll(ctx context.Context, muts []Mutation) (*BulkResult, error) {
	res := &BulkResult{States: make([]MutationState, len(muts))}
	if len(muts) == 0 {
		return res, nil
	}

	stages := make([]*staged, len(muts))
	c.store.loop.call(func() {
		for i, m := range muts {
			stages[i] = c.stageLocked(m)
		}
	})

	recs := make([]core.Record, len(muts))
	errs := make([]error, len(muts))
	done := make(chan struct{})
	for i, m := range muts {
		go func(i int, m Mutation) {
			if m.Write == nil {
				errs[i] = errors.New("sync: mutation without a write")
			} else {
				recs[i], errs[i] = m.Write(ctx)
			}
			done <- struct{}{}
		}(i, m)
	}
	for range muts {
		<-done
	}

	c.store.loop.call(func() {
		// roll back failures in reverse staging order, then commit the rest
		for i := len(muts) - 1; i >= 0; i-- {
			if errs[i] != nil {
				c.rollbackLocked(stages[i])
			}
		}
		var invalidated []core.Entity
		for i := range muts {
			res.States[i] = stages[i].state
			if errs[i] != nil {
				res.Failed = append(res.Failed, BulkFailure{Index: i, Err: errs[i]})
				continue
			}
			c.commitLocked(stages[i], recs[i])
			res.States[i] = stages[i].state
			if recs[i] != nil {
				res.Committed = append(res.Committed, recs[i])
			}
			invalidated = appendEntity(invalidated, muts[i].Entity)
		}
		for _, ent := range invalidated {
			c.invalidateLocked(ent)
		}
	})

	if len(res.Failed) > 0 {
		return res, errors.Wrapf(res.Failed[0].Err,
			"bulk mutation: %d of %d writes failed", len(res.Failed), len(muts))
	}
	return res, nil
}

// --- loop-side helpers ---

func (c *Coordinator) stageLocked(m Mutation) *staged {
	st := &staged{m: m, state: StatePending}
	if m.Record == nil {
		return st
	}
	for _, e := range c.store.entries {
		if e.key.Entity != m.Entity {
			continue
		}
		if m.Affects != nil && !m.Affects(e.key) {
			continue
		}
		c.applyOpLocked(st, e)
	}
	return st
}

func (c *Coordinator) applyOpLocked(st *staged, e *entry) {
	id := st.m.Record.RecordID()

	if e.single {
		if e.record == nil || e.record.RecordID() != id {
			return
		}
		prior := e.record
		switch st.m.Op {
		case OpCreate, OpUpdate:
			e.record = st.m.Record
		case OpDelete:
			e.record = nil
		default:
			return
		}
		st.undos = append(st.undos, func() { e.record = prior })
	} else {
		switch st.m.Op {
		case OpCreate:
			if indexOf(e.data, id) >= 0 {
				return
			}
			e.data = insertOrdered(e.data, st.m.Record, e.less)
			st.undos = append(st.undos, func() { removeByID(e, id) })
		case OpUpdate:
			i := indexOf(e.data, id)
			if i < 0 {
				return
			}
			prior := e.data[i]
			e.data[i] = st.m.Record
			st.undos = append(st.undos, func() {
				if j := indexOf(e.data, id); j >= 0 {
					e.data[j] = prior
				}
			})
		case OpDelete:
			i := indexOf(e.data, id)
			if i < 0 {
				return
			}
			prior := e.data[i]
			e.data = append(e.data[:i], e.data[i+1:]...)
			at := i
			st.undos = append(st.undos, func() { e.data = insertAt(e.data, at, prior) })
		default:
			return
		}
	}

	e.updatedAt = time.Now().UTC()
	st.touched = append(st.touched, e)
	c.store.notify(e)
}

func (c *Coordinator) rollbackLocked(st *staged) {
	for i := len(st.undos) - 1; i >= 0; i-- {
		st.undos[i]()
	}
	st.state = StateRolledBack
	for _, e := range st.touched {
		e.updatedAt = time.Now().UTC()
		c.store.notify(e)
	}
}

// commitLocked swaps the optimistic record for the authoritative one wherever
// the staging pass touched. The follow-up invalidation re-fetches anything
// commit cannot know about (ordering, filtered membership, new entries).
func (c *Coordinator) commitLocked(st *staged, rec core.Record) {
	st.state = StateCommitted
	if rec == nil || st.m.Record == nil {
		return
	}
	oldID := st.m.Record.RecordID()
	for _, e := range st.touched {
		if e.single {
			if e.record != nil && e.record.RecordID() == oldID {
				e.record = rec
			}
		} else if i := indexOf(e.data, oldID); i >= 0 {
			e.data[i] = rec
		}
		e.updatedAt = time.Now().UTC()
		c.store.notify(e)
	}
}

func (c *Coordinator) invalidateLocked(entity core.Entity) {
	affected, ok := c.affects[entity]
	if !ok {
		affected = []core.Entity{entity}
	}
	for _, e := range c.store.entries {
		for _, ent := range affected {
			if e.key.Entity == ent {
				e.stale = true
				break
			}
		}
	}
}

func removeByID(e *entry, id string) {
	if i := indexOf(e.data, id); i >= 0 {
		e.data = append(e.data[:i], e.data[i+1:]...)
	}
}

func insertAt(data []core.Record, i int, rec core.Record) []core.Record {
	if i > len(data) {
		i = len(data)
	}
	data = append(data, nil)
	copy(data[i+1:], data[i:])
	data[i] = rec
	return data
}

func appendEntity(entities []core.Entity, ent core.Entity) []core.Entity {
	for _, cur := range entities {
		if cur == ent {
			return entities
		}
	}
	return append(entities, ent)
}

// MatchParams reports whether a key's parameters are consistent with p: every
// parameter the key pins must either be absent from p or carry the same value.
// Gateways use it to scope optimistic patches to compatible filtered queries.
func MatchParams(k Key, p Params) bool {
	if k.Params == "" || len(p) == 0 {
		return true
	}
	for _, pair := range strings.Split(k.Params, "&") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if want, pinned := p[name]; pinned && want != value {
			return false
		}
	}
	return true
}
