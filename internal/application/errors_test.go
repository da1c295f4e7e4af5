package application

import (
	"errors"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"field": "invalid"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected consistent message for populated error, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).HasErrors(); err {
		t.Fatalf("expected HasErrors to report false for empty error")
	}

	if err := (&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors(); !err {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected add to populate map, got %q", got)
	}

	other := &ValidationError{FieldErrors: map[string]string{"second": "another"}}
	base.merge(other)
	if got := base.FieldErrors["second"]; got != "another" {
		t.Fatalf("expected merge to copy field, got %q", got)
	}

	base.merge(nil)
	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected merge with nil to leave fields unchanged")
	}
}

func TestPersistenceError(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := &PersistenceError{Op: "create appointment", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("expected PersistenceError to unwrap to its cause")
	}
	if got := err.Error(); got != "persistence: create appointment: disk full" {
		t.Fatalf("unexpected message %q", got)
	}

	var nilErr *PersistenceError
	if nilErr.Error() != "" || nilErr.Unwrap() != nil {
		t.Fatalf("expected nil PersistenceError to be inert")
	}
}

func TestValidationError_AddKeepsFirstMessage(t *testing.T) {
	t.Parallel()

	vErr := &ValidationError{}
	vErr.add("staff_id", "staff id is required")
	vErr.add("staff_id", "staff member does not exist")
	if got := vErr.FieldErrors["staff_id"]; got != "staff id is required" {
		t.Fatalf("expected first message to win, got %q", got)
	}
}
