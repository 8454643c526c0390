package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shulehq/shule/core"
)

// Status is the freshness state of a cache entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

type (
	// FetchFunc loads the authoritative result set for a query.
	FetchFunc func(ctx context.Context) ([]core.Record, error)

	// LessFunc is the sort order of a cached collection. When known, pushed
	// inserts keep the collection ordered; otherwise they append.
	LessFunc func(a, b core.Record) bool

	// Query couples a Key with the means to fetch it.
	Query struct {
		Key    Key
		Fetch  FetchFunc
		Less   LessFunc
		Single bool // single-record query (get by ID)
	}

	// Entry is an immutable snapshot of one cache slot.
	Entry struct {
		Key       Key
		Data      []core.Record // collection queries
		Record    core.Record   // single-record queries
		Status    Status
		Err       error
		UpdatedAt time.Time
	}
)

func (e Entry) IsLoading() bool { return e.Status == StatusLoading }
func (e Entry) IsError() bool   { return e.Status == StatusError }

type entry struct {
	key    Key
	single bool
	data   []core.Record
	record core.Record

	status    Status
	err       error
	updatedAt time.Time
	stale     bool

	fetch FetchFunc
	less  LessFunc

	// fetch ordering: a response is applied only if its sequence number is
	// the highest applied so far; the entry settles when the applied
	// sequence is the last dispatched.
	lastDispatched uint64
	lastApplied    uint64
	inflight       bool

	// events received while a fetch is in flight, applied after it settles
	buffered []core.ChangeEvent

	watchers map[uint64]chan Entry
}

// Store is the process-local cache, shared by every view binding. All access
// goes through its API; every state transition runs on the internal loop.
type Store struct {
	loop   *loop
	ctx    context.Context
	cancel context.CancelFunc
	log    core.Logger

	entries     map[Key]*entry
	nextWatcher uint64
}

func NewStore(log core.Logger) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		loop:    newLoop(),
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
		entries: make(map[Key]*entry),
	}
}

// Get returns the current entry for q, dispatching a fetch when the slot is
// absent, stale or errored. Repeated calls while a fetch is in flight do not
// dispatch duplicates.
func (s *Store) Get(q Query) Entry {
	var out Entry
	s.loop.call(func() {
		e := s.ensure(q)
		s.maybeFetch(e)
		out = snapshotEntry(e)
	})
	return out
}

// Peek returns the entry for key without triggering a fetch.
func (s *Store) Peek(key Key) (Entry, bool) {
	var (
		out Entry
		ok  bool
	)
	s.loop.call(func() {
		if e, found := s.entries[key]; found {
			out = snapshotEntry(e)
			ok = true
		}
	})
	return out, ok
}

// Invalidate marks every entry matching pred stale. A stale entry keeps its
// data for display and refetches on next access.
func (s *Store) Invalidate(pred func(Key) bool) {
	s.loop.call(func() {
		for key, e := range s.entries {
			if pred(key) {
				e.stale = true
			}
		}
	})
}

// InvalidateEntities marks every entry of the given entity types stale.
func (s *Store) InvalidateEntities(entities ...core.Entity) {
	s.Invalidate(func(key Key) bool {
		for _, ent := range entities {
			if key.Entity == ent {
				return true
			}
		}
		return false
	})
}

// ApplyEvent folds a pushed change event into every same-entity entry.
// Entries with an in-flight fetch buffer the event until the fetch settles.
// Events for entity types with no cached entries are dropped.
func (s *Store) ApplyEvent(ev core.ChangeEvent) {
	s.loop.do(func() {
		for _, e := range s.entries {
			if e.key.Entity != ev.Entity {
				continue
			}
			if e.inflight {
				e.buffered = append(e.buffered, ev)
				continue
			}
			s.applyEventTo(e, ev)
		}
	})
}

// Watcher delivers entry snapshots to one consumer. The channel is conflated:
// an unread snapshot is replaced by a newer one.
type Watcher struct {
	C <-chan Entry

	store *Store
	key   Key
	id    uint64
	ch    chan Entry
}

// Watch registers a watcher on q's entry and dispatches a fetch if needed.
// The initial snapshot is delivered immediately.
func (s *Store) Watch(q Query) *Watcher {
	w := &Watcher{store: s, key: q.Key, ch: make(chan Entry, 1)}
	w.C = w.ch
	s.loop.call(func() {
		e := s.ensure(q)
		s.nextWatcher++
		w.id = s.nextWatcher
		e.watchers[w.id] = w.ch
		s.maybeFetch(e)
		sendConflated(w.ch, snapshotEntry(e))
	})
	return w
}

func (w *Watcher) Close() {
	w.store.loop.call(func() {
		if e, ok := w.store.entries[w.key]; ok {
			delete(e.watchers, w.id)
		}
	})
}

// Close cancels in-flight fetches and stops the loop after draining queued work.
func (s *Store) Close() {
	s.cancel()
	s.loop.close()
}

// --- loop-side helpers (only called from loop tasks) ---

func (s *Store) ensure(q Query) *entry {
	e, ok := s.entries[q.Key]
	if !ok {
		e = &entry{
			key:      q.Key,
			single:   q.Single,
			status:   StatusIdle,
			watchers: make(map[uint64]chan Entry),
		}
		s.entries[q.Key] = e
	}
	if q.Fetch != nil {
		e.fetch = q.Fetch
	}
	if q.Less != nil {
		e.less = q.Less
	}
	return e
}

func (s *Store) maybeFetch(e *entry) {
	if e.fetch == nil {
		return
	}
	if e.inflight {
		// invalidated mid-fetch: dispatch a superseding fetch, the higher
		// sequence number wins
		if e.stale {
			s.dispatch(e)
		}
		return
	}
	if e.status == StatusIdle || e.status == StatusError || e.stale {
		s.dispatch(e)
	}
}

// dispatch starts a fetch for e. Callers may dispatch while an older fetch is
// still in flight (stale entry); the sequence number decides which response wins.
func (s *Store) dispatch(e *entry) {
	e.lastDispatched++
	seq := e.lastDispatched
	e.stale = false
	e.inflight = true
	e.status = StatusLoading
	e.err = nil
	s.notify(e)

	fetch := e.fetch
	key := e.key
	go func() {
		data, err := fetch(s.ctx)
		s.loop.do(func() { s.applyFetch(key, seq, data, err) })
	}()
}

func (s *Store) applyFetch(key Key, seq uint64, data []core.Record, err error) {
	e, ok := s.entries[key]
	if !ok {
		return
	}
	if seq <= e.lastApplied {
		// superseded: a newer response already committed
		return
	}
	e.lastApplied = seq

	if err != nil {
		if seq == e.lastDispatched {
			// settle as error; previous data stays for display
			e.status = StatusError
			e.err = err
			s.settle(e)
		}
		return
	}

	if e.single {
		e.record = nil
		if len(data) > 0 {
			e.record = data[0]
		}
	} else {
		e.data = data
	}
	e.err = nil
	e.updatedAt = time.Now().UTC()
	if seq == e.lastDispatched {
		e.status = StatusSuccess
		s.settle(e)
	} else {
		// newest response so far, but a later fetch is still in flight:
		// render it and stay loading
		s.notify(e)
	}
}

// settle clears the in-flight flag, flushes buffered events and notifies.
func (s *Store) settle(e *entry) {
	e.inflight = false
	if len(e.buffered) > 0 {
		evs := e.buffered
		e.buffered = nil
		for _, ev := range evs {
			s.applyEventTo(e, ev)
		}
	}
	s.notify(e)
}

func (s *Store) applyEventTo(e *entry, ev core.ChangeEvent) {
	if e.single {
		if e.record == nil || e.record.RecordID() != ev.ID {
			return
		}
		switch ev.Op {
		case core.ChangeUpdate, core.ChangeInsert:
			e.record = ev.Record
		case core.ChangeDelete:
			e.record = nil
		}
		e.updatedAt = time.Now().UTC()
		s.notify(e)
		return
	}

	switch ev.Op {
	case core.ChangeInsert:
		if i := indexOf(e.data, ev.ID); i >= 0 {
			e.data[i] = ev.Record // replayed insert: replace, never duplicate
		} else {
			e.data = insertOrdered(e.data, ev.Record, e.less)
		}
	case core.ChangeUpdate:
		// records outside this (possibly filtered) collection stay outside;
		// invalidation re-fetches authoritative membership
		if i := indexOf(e.data, ev.ID); i >= 0 {
			e.data[i] = ev.Record
		} else {
			return
		}
	case core.ChangeDelete:
		kept := e.data[:0]
		for _, rec := range e.data {
			if rec.RecordID() != ev.ID {
				kept = append(kept, rec)
			}
		}
		e.data = kept
	}
	e.updatedAt = time.Now().UTC()
	s.notify(e)
}

func (s *Store) notify(e *entry) {
	if len(e.watchers) == 0 {
		return
	}
	snap := snapshotEntry(e)
	for _, ch := range e.watchers {
		sendConflated(ch, snap)
	}
}

func indexOf(data []core.Record, id string) int {
	for i, rec := range data {
		if rec.RecordID() == id {
			return i
		}
	}
	return -1
}

func insertOrdered(data []core.Record, rec core.Record, less LessFunc) []core.Record {
	if less == nil {
		return append(data, rec)
	}
	for i, cur := range data {
		if less(rec, cur) {
			data = append(data, nil)
			copy(data[i+1:], data[i:])
			data[i] = rec
			return data
		}
	}
	return append(data, rec)
}

func snapshotEntry(e *entry) Entry {
	snap := Entry{
		Key:       e.key,
		Record:    e.record,
		Status:    e.status,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
	}
	if e.data != nil {
		snap.Data = make([]core.Record, len(e.data))
		copy(snap.Data, e.data)
	}
	return snap
}

// sendConflated delivers the latest snapshot, dropping an unread older one.
// Only the loop goroutine sends on watcher channels.
func sendConflated(ch chan Entry, snap Entry) {
	select {
	case ch <- snap:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// --- warm-start snapshots ---

// SnapshotRow is the persistable form of a successful cache entry.
type SnapshotRow struct {
	Key       Key
	Single    bool
	Data      []byte // JSON: array for collections, object for single records
	UpdatedAt time.Time
}

// DecodeFunc rebuilds typed records from a persisted snapshot row.
type DecodeFunc func(entity core.Entity, single bool, data []byte) ([]core.Record, error)

// Export returns the persistable rows of every settled-successful entry.
func (s *Store) Export() []SnapshotRow {
	var rows []SnapshotRow
	s.loop.call(func() {
		for _, e := range s.entries {
			if e.status != StatusSuccess {
				continue
			}
			var (
				raw []byte
				err error
			)
			if e.single {
				if e.record == nil {
					continue
				}
				raw, err = json.Marshal(e.record)
			} else {
				raw, err = json.Marshal(e.data)
			}
			if err != nil {
				s.log.Warn("sync: skipping snapshot export", e.key.String(), err)
				continue
			}
			rows = append(rows, SnapshotRow{Key: e.key, Single: e.single, Data: raw, UpdatedAt: e.updatedAt})
		}
	})
	return rows
}

// Restore seeds the store from persisted rows. Restored entries are stale:
// they render immediately and refetch on first access. Live entries win over
// restored ones; undecodable rows are logged and skipped.
func (s *Store) Restore(rows []SnapshotRow, decode DecodeFunc) {
	s.loop.call(func() {
		for _, row := range rows {
			if _, exists := s.entries[row.Key]; exists {
				continue
			}
			recs, err := decode(row.Key.Entity, row.Single, row.Data)
			if err != nil {
				s.log.Warn("sync: skipping snapshot restore", row.Key.String(), err)
				continue
			}
			e := &entry{
				key:       row.Key,
				single:    row.Single,
				status:    StatusSuccess,
				stale:     true,
				updatedAt: row.UpdatedAt,
				watchers:  make(map[uint64]chan Entry),
			}
			if row.Single {
				if len(recs) > 0 {
					e.record = recs[0]
				}
			} else {
				e.data = recs
			}
			s.entries[row.Key] = e
		}
	})
}
