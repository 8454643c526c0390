package core

import (
	"testing"

	"github.com/pkg/errors"
)

func TestErrorPredicates(t *testing.T) {
	netErr := NewNetworkError(errors.New("conn refused"))
	authErr := NewAuthorizationError("permission denied")
	nfErr := NewNotFoundError("students")
	valErr := NewValidationError(errors.New("validation failed"), FieldError{Field: "email", Error: "required"})

	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{name: "network", err: netErr, check: IsNetwork, want: true},
		{name: "wrapped network", err: errors.Wrap(netErr, "fetching"), check: IsNetwork, want: true},
		{name: "network is not auth", err: netErr, check: IsAuthorization, want: false},
		{name: "authorization", err: authErr, check: IsAuthorization, want: true},
		{name: "not found", err: nfErr, check: IsNotFound, want: true},
		{name: "wrapped not found", err: errors.Wrap(nfErr, "reading"), check: IsNotFound, want: true},
		{name: "validation", err: valErr, check: IsValidation, want: true},
		{name: "plain error", err: errors.New("nope"), check: IsNetwork, want: false},
		{name: "nil", err: nil, check: IsValidation, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.want {
				t.Errorf("predicate(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestValidationFields(t *testing.T) {
	err := NewValidationError(errors.New("validation failed"), FieldError{Field: "email", Error: "required"})
	flds := ValidationFields(errors.Wrap(err, "creating student"))
	if len(flds) != 1 || flds[0].Field != "email" {
		t.Errorf("ValidationFields() = %v, want the email field", flds)
	}
	if got := ValidationFields(errors.New("nope")); got != nil {
		t.Errorf("ValidationFields() on plain error = %v, want nil", got)
	}
}

func TestErrorMessages(t *testing.T) {
	if got, want := NewNotFoundError("students").Error(), "students not found"; got != want {
		t.Errorf("NotFoundError = %q, want %q", got, want)
	}
	if got, want := NewNetworkError(errors.New("timeout")).Error(), "network error: timeout"; got != want {
		t.Errorf("NetworkError = %q, want %q", got, want)
	}
}
