package emulator

import (
	stdsync "sync"

	"github.com/google/uuid"

	"github.com/shulehq/shule/core"
)

// row is a stored record in its decoded JSON form.
type row map[string]interface{}

func (r row) id() string {
	id, _ := r["id"].(string)
	return id
}

func (r row) str(field string) string {
	v, _ := r[field].(string)
	return v
}

func (r row) clone() row {
	out := make(row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// table holds one entity's rows in insertion order.
type table struct {
	mu    stdsync.RWMutex
	rows  map[string]row
	order []string
}

func newTable() *table {
	return &table{rows: make(map[string]row)}
}

// tables is the emulator's whole dataset, one table per known entity.
type tables struct {
	byEntity map[core.Entity]*table
}

var knownEntities = []core.Entity{
	core.EntityStudent,
	core.EntityTeacher,
	core.EntityClass,
	core.EntityAttendance,
	core.EntityTimetable,
	core.EntityAnnouncement,
}

// uniqueEmail lists the entities whose email field must be unique.
var uniqueEmail = map[core.Entity]bool{
	core.EntityStudent: true,
	core.EntityTeacher: true,
}

func newTables() *tables {
	ts := &tables{byEntity: make(map[core.Entity]*table, len(knownEntities))}
	for _, e := range knownEntities {
		ts.byEntity[e] = newTable()
	}
	return ts
}

func (ts *tables) get(entity core.Entity) (*table, bool) {
	t, ok := ts.byEntity[entity]
	return t, ok
}

// list returns copies of the rows matching every filter, in insertion order.
func (t *table) list(filters map[string]string) []row {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]row, 0, len(t.order))
	for _, id := range t.order {
		r := t.rows[id]
		if matches(r, filters) {
			out = append(out, r.clone())
		}
	}
	return out
}

func matches(r row, filters map[string]string) bool {
	for field, want := range filters {
		if r.str(field) != want {
			return false
		}
	}
	return true
}

func (t *table) find(id string) (row, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	return r.clone(), true
}

// insert stores a new row, keeping a client-assigned id when present.
// Returns false when another row already owns the email.
func (t *table) insert(r row, checkEmail bool) (row, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if checkEmail {
		if email := r.str("email"); email != "" {
			for _, other := range t.rows {
				if other.str("email") == email {
					return nil, false
				}
			}
		}
	}
	id := r.id()
	if id == "" {
		id = uuid.NewString()
		r["id"] = id
	}
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = r.clone()
	return r.clone(), true
}

// update merges `patch` into the row. Zero-length string values clear nothing;
// only provided fields change.
func (t *table) update(id string, patch row) (row, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		r[k] = v
	}
	t.rows[id] = r
	return r.clone(), true
}

func (t *table) remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}
