package core

import "testing"

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"required,email"`
	}

	tests := []struct {
		name       string
		in         payload
		wantFields []string
	}{
		{name: "valid", in: payload{Name: "A", Email: "a@b.cd"}},
		{name: "missing name", in: payload{Email: "a@b.cd"}, wantFields: []string{"name"}},
		{name: "bad email", in: payload{Name: "A", Email: "nope"}, wantFields: []string{"email"}},
		{name: "everything wrong", in: payload{}, wantFields: []string{"name", "email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.in)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("ValidateStruct() error = %v, want nil", err)
				}
				return
			}
			if !IsValidation(err) {
				t.Fatalf("ValidateStruct() error = %v, want validation error", err)
			}
			flds := ValidationFields(err)
			if len(flds) != len(tt.wantFields) {
				t.Fatalf("got %d field errors, want %d: %v", len(flds), len(tt.wantFields), flds)
			}
			// json tag names, not Go field names
			for i, want := range tt.wantFields {
				if flds[i].Field != want {
					t.Errorf("field[%d] = %q, want %q", i, flds[i].Field, want)
				}
				if flds[i].Error == "" {
					t.Errorf("field[%d] has no translated message", i)
				}
			}
		})
	}
}

func TestCleanString(t *testing.T) {
	tests := []struct {
		in    string
		lower bool
		want  string
	}{
		{in: "  Amina  ", want: "Amina"},
		{in: " A.Hassan@Demo.School ", lower: true, want: "a.hassan@demo.school"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := CleanString(tt.in, tt.lower); got != tt.want {
			t.Errorf("CleanString(%q, %v) = %q, want %q", tt.in, tt.lower, got, tt.want)
		}
	}
}
