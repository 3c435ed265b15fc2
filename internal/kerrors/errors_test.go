package kerrors

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"plain", New(NotFound, "artifact missing"), "not_found: artifact missing"},
		{"wrapped", Wrap(ParseError, "bad xml", errors.New("unexpected EOF")), "parse_error: bad xml: unexpected EOF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(PrimitiveExecution, "write failed", cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
}

func TestError_WithDetailsHintSolution(t *testing.T) {
	err := New(ValidationFailed, "bad directive").
		WithDetails("missing <name>", "missing <version>").
		WithHint("run validate to see all issues").
		WithSolution(map[string]any{"field": "name"})

	if len(err.Details) != 2 {
		t.Fatalf("len(Details) = %d, want 2", len(err.Details))
	}
	if err.Hint != "run validate to see all issues" {
		t.Errorf("Hint = %q, want %q", err.Hint, "run validate to see all issues")
	}
	if err.Solution["field"] != "name" {
		t.Errorf("Solution[field] = %v, want name", err.Solution["field"])
	}
}

func TestError_WithDetails_Appends(t *testing.T) {
	err := New(ValidationFailed, "bad tool")
	err.WithDetails("a")
	err.WithDetails("b", "c")

	if len(err.Details) != 3 {
		t.Fatalf("len(Details) = %d, want 3", len(err.Details))
	}
	if err.Details[0] != "a" || err.Details[1] != "b" || err.Details[2] != "c" {
		t.Errorf("Details = %v, want [a b c]", err.Details)
	}
}

func TestOk(t *testing.T) {
	env := Ok(map[string]string{"id": "fetch_url"})

	if env.Status != "ok" {
		t.Errorf("Status = %q, want ok", env.Status)
	}
	if env.Error != "" {
		t.Errorf("Error = %q, want empty", env.Error)
	}
}

func TestFromError_Nil(t *testing.T) {
	env := FromError(nil)
	if env.Status != "ok" {
		t.Errorf("Status = %q, want ok", env.Status)
	}
}

func TestFromError_StructuredError(t *testing.T) {
	src := New(IntegrityMismatch, "hash mismatch").
		WithDetails("expected abc", "got def").
		WithHint("re-sign the artifact")

	env := FromError(src)

	if env.Status != "error" {
		t.Errorf("Status = %q, want error", env.Status)
	}
	if env.Error != "integrity_mismatch: hash mismatch" {
		t.Errorf("Error = %q, want %q", env.Error, "integrity_mismatch: hash mismatch")
	}
	if len(env.Details) != 2 {
		t.Errorf("len(Details) = %d, want 2", len(env.Details))
	}
	if env.Hint != "re-sign the artifact" {
		t.Errorf("Hint = %q, want %q", env.Hint, "re-sign the artifact")
	}
}

func TestFromError_PlainError(t *testing.T) {
	env := FromError(errors.New("file not found"))

	if env.Status != "error" {
		t.Errorf("Status = %q, want error", env.Status)
	}
	want := ": file not found"
	if env.Error != want {
		t.Errorf("Error = %q, want %q", env.Error, want)
	}
	if env.Hint != "" {
		t.Errorf("Hint = %q, want empty", env.Hint)
	}
}
