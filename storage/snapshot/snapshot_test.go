package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/sync"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	older := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	rows := []sync.SnapshotRow{
		{
			Key:       sync.NewKey(core.EntityStudent, sync.Params{"class_id": "c1"}),
			Data:      []byte(`[{"id":"1","name":"Juma"}]`),
			UpdatedAt: newer,
		},
		{
			Key:       sync.NewKey(core.EntityStudent, sync.Params{"id": "1"}),
			Single:    true,
			Data:      []byte(`{"id":"1","name":"Juma"}`),
			UpdatedAt: older,
		},
	}
	if err := db.Save(ctx, rows); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Load() = %d rows, want 2", len(got))
	}
	// oldest first
	if !got[0].Single || got[0].Key != rows[1].Key {
		t.Errorf("Load()[0] = %+v, want the single-record row", got[0])
	}
	if got[1].Key != rows[0].Key || string(got[1].Data) != string(rows[0].Data) {
		t.Errorf("Load()[1] = %+v, want the collection row", got[1])
	}
	if !got[0].UpdatedAt.Equal(older) {
		t.Errorf("UpdatedAt = %v, want %v", got[0].UpdatedAt, older)
	}
}

func TestSaveReplacesPrevious(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := []sync.SnapshotRow{{
		Key:       sync.NewKey(core.EntityClass, nil),
		Data:      []byte(`[]`),
		UpdatedAt: time.Now().UTC(),
	}}
	if err := db.Save(ctx, first); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	second := []sync.SnapshotRow{{
		Key:       sync.NewKey(core.EntityTeacher, nil),
		Data:      []byte(`[]`),
		UpdatedAt: time.Now().UTC(),
	}}
	if err := db.Save(ctx, second); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(got) != 1 || got[0].Key.Entity != core.EntityTeacher {
		t.Errorf("Load() = %+v, want only the second snapshot", got)
	}
}

func TestLoadEmpty(t *testing.T) {
	db := openTestDB(t)
	got, err := db.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load() on empty db = %v, want none", got)
	}
}
