package sync

import (
	"testing"
	"time"

	"github.com/shulehq/shule/core"
)

// rec is the record type used across the package's tests.
type rec struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (r rec) RecordID() string { return r.ID }

func recs(rs ...rec) []core.Record {
	out := make([]core.Record, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}

func recLess(a, b core.Record) bool {
	ra, oka := a.(rec)
	rb, okb := b.(rec)
	return oka && okb && ra.Name < rb.Name
}

// nopLogger drops everything; tests assert on state, not logs.
type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// waitFor polls until cond holds; the loop applies state asynchronously.
func waitFor(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}
