package sync

import (
	"testing"

	"github.com/shulehq/shule/core"
)

func TestNewKeyCanonicalization(t *testing.T) {
	tests := []struct {
		name string
		a, b Params
		same bool
	}{
		{name: "nil equals empty", a: nil, b: Params{}, same: true},
		{name: "order independent", a: Params{"a": "1", "b": "2"}, b: Params{"b": "2", "a": "1"}, same: true},
		{name: "different values", a: Params{"a": "1"}, b: Params{"a": "2"}, same: false},
		{name: "different names", a: Params{"a": "1"}, b: Params{"b": "1"}, same: false},
		{name: "subset differs", a: Params{"a": "1"}, b: Params{"a": "1", "b": "2"}, same: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := NewKey(core.EntityStudent, tt.a)
			kb := NewKey(core.EntityStudent, tt.b)
			if (ka == kb) != tt.same {
				t.Errorf("NewKey() %q vs %q, want same=%v", ka, kb, tt.same)
			}
		})
	}

	if ka, kb := NewKey(core.EntityStudent, nil), NewKey(core.EntityTeacher, nil); ka == kb {
		t.Error("keys of different entities must differ")
	}
}

func TestKeyString(t *testing.T) {
	if got := NewKey(core.EntityStudent, nil).String(); got != "students" {
		t.Errorf("String() = %q, want %q", got, "students")
	}
	got := NewKey(core.EntityStudent, Params{"class_id": "c1", "id": "s1"}).String()
	if want := "students?class_id=c1&id=s1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestMatchParams(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		p    Params
		want bool
	}{
		{name: "unfiltered key matches anything", key: NewKey(core.EntityStudent, nil), p: Params{"class_id": "c1"}, want: true},
		{name: "no pins matches anything", key: NewKey(core.EntityStudent, Params{"class_id": "c1"}), p: nil, want: true},
		{name: "same pinned value", key: NewKey(core.EntityStudent, Params{"class_id": "c1"}), p: Params{"class_id": "c1"}, want: true},
		{name: "different pinned value", key: NewKey(core.EntityStudent, Params{"class_id": "c2"}), p: Params{"class_id": "c1"}, want: false},
		{name: "unpinned key param ignored", key: NewKey(core.EntityStudent, Params{"date": "2026-02-02"}), p: Params{"class_id": "c1"}, want: true},
		{name: "one of two pins differs", key: NewKey(core.EntityStudent, Params{"class_id": "c1", "date": "2026-02-02"}), p: Params{"class_id": "c1", "date": "2026-02-03"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchParams(tt.key, tt.p); got != tt.want {
				t.Errorf("MatchParams(%q, %v) = %v, want %v", tt.key, tt.p, got, tt.want)
			}
		})
	}
}
