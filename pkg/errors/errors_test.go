package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeMissingParameters, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeInvalidFormat, status: http.StatusBadRequest},
		{code: CodeInvalidKey, status: http.StatusUnauthorized},
		{code: CodeRevokedKey, status: http.StatusForbidden},
		{code: CodeExpiredKey, status: http.StatusForbidden},
		{code: CodeMachineLimit, status: http.StatusForbidden, detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, detailsOK: true},
		{code: CodeDatabase, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage == "" {
			t.Fatalf("code %s has no public message", tt.code)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("something_unknown")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestCodePublic(t *testing.T) {
	if !CodeRevokedKey.Public() {
		t.Fatal("revoked_key should be public")
	}
	if CodeDatabase.Public() {
		t.Fatal("database_error must not expose its message")
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeMachineLimit, "limit reached")
	if base.Code() != CodeMachineLimit {
		t.Fatalf("expected machine limit code, got %s", base.Code())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"max_machines": 1}).WithDetails(map[string]any{"current_machines": 1})
	if len(base.Details()) != 2 {
		t.Fatalf("details should merge, got %v", base.Details())
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDatabase, cause, "lookup license")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if CodeOf(wrapped) != CodeDatabase {
		t.Fatalf("unexpected code %s", CodeOf(wrapped))
	}
	if CodeOf(cause) != CodeInternal {
		t.Fatalf("untyped errors should map to internal")
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}
