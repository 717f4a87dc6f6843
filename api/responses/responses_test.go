package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/petlife-licenser/pkg/errors"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return body
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if body := decode(t, w); body["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body)
	}
}

func TestWriteErrorFlattensAllowedDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeMachineLimit, "limit reached").
		WithDetails(map[string]any{"max_machines": 1, "current_machines": 1, "error": "ignored"})
	WriteValidationError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusForbidden {
		t.Fatalf("expected status 403 but got %d", got)
	}
	body := decode(t, w)
	if body["error"] != string(pkgerrors.CodeMachineLimit) {
		t.Fatalf("details must not override the code, got %v", body["error"])
	}
	if body["message"] != "limit reached" {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if body["valid"] != false {
		t.Fatalf("expected valid=false, got %v", body["valid"])
	}
	if body["max_machines"] != float64(1) || body["current_machines"] != float64(1) {
		t.Fatalf("expected flattened details, got %v", body)
	}
}

func TestWriteErrorDropsDetailsWhenNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeRevokedKey, "this license has been revoked").
		WithDetails(map[string]any{"license_id": "secret"})
	WriteError(context.Background(), nil, w, err)

	body := decode(t, w)
	if _, ok := body["license_id"]; ok {
		t.Fatalf("details leaked: %v", body)
	}
	if _, ok := body["valid"]; ok {
		t.Fatalf("valid only belongs to the validation surface")
	}
}

func TestWriteErrorHidesServerMessages(t *testing.T) {
	var logs bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "responses-test", Output: &logs})

	w := httptest.NewRecorder()
	WriteError(context.Background(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDatabase, errors.New("pq: connection refused"), "lookup license"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}
	body := decode(t, w)
	if body["message"] != pkgerrors.MetadataFor(pkgerrors.CodeDatabase).PublicMessage {
		t.Fatalf("expected generic message, got %v", body["message"])
	}
	if !strings.Contains(logs.String(), "connection refused") {
		t.Fatalf("expected cause in logs, got %s", logs.String())
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}
	body := decode(t, w)
	if body["error"] != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %v", body["error"])
	}
	if body["message"] == "boom" {
		t.Fatalf("raw error leaked to client")
	}
}
