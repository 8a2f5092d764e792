package taskflow

import "testing"

func TestErrToolNotFoundError(t *testing.T) {
	e := &ErrToolNotFound{Tool: "http_fetch"}
	want := `tool "http_fetch" not found`
	if got := e.Error(); got != want {
		t.Errorf("ErrToolNotFound.Error() = %q, want %q", got, want)
	}
}

func TestErrToolNotFoundImplementsError(t *testing.T) {
	var _ error = (*ErrToolNotFound)(nil)
}

func TestErrValidationError(t *testing.T) {
	e := &ErrValidation{Errors: []string{"duplicate step ids found"}}
	want := `configuration validation failed: [duplicate step ids found]`
	if got := e.Error(); got != want {
		t.Errorf("ErrValidation.Error() = %q, want %q", got, want)
	}
}

func TestErrUnknownScopeError(t *testing.T) {
	e := &ErrUnknownScope{Scope: "step-1"}
	want := `unknown context scope "step-1"`
	if got := e.Error(); got != want {
		t.Errorf("ErrUnknownScope.Error() = %q, want %q", got, want)
	}
}
