package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/petlife-licenser/pkg/errors"
)

type strictBody struct {
	Username string `json:"username" validate:"required"`
	Days     *int   `json:"days" validate:"omitempty,min=1"`
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"a","extra":1}`))
	var dest strictBody
	if err := DecodeJSONBody(r, &dest); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"a","extra":1}`))
	if err := DecodeLenientJSONBody(r, &dest); err != nil {
		t.Fatalf("lenient decode: %v", err)
	}
	if dest.Username != "a" {
		t.Fatalf("unexpected username %q", dest.Username)
	}
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"days":0}`))
	var dest strictBody
	err := DecodeJSONBody(r, &dest)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields, ok := typed.Details()["fields"].(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %v", typed.Details())
	}
	if fields["username"] != "is required" {
		t.Fatalf("unexpected username message %q", fields["username"])
	}
	if fields["days"] != "must be at least 1" {
		t.Fatalf("unexpected days message %q", fields["days"])
	}
}

func TestDecodeJSONBodyMalformed(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	var dest strictBody
	if err := DecodeLenientJSONBody(r, &dest); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&limit=abc&big=500", nil)
	if v, err := ParseQueryInt(r, "page", 1, 1, 100); err != nil || v != 3 {
		t.Fatalf("page: v=%d err=%v", v, err)
	}
	if v, err := ParseQueryInt(r, "missing", 7, 1, 100); err != nil || v != 7 {
		t.Fatalf("default: v=%d err=%v", v, err)
	}
	if _, err := ParseQueryInt(r, "limit", 1, 1, 100); err == nil {
		t.Fatal("expected numeric error")
	}
	if _, err := ParseQueryInt(r, "big", 1, 1, 200); err == nil {
		t.Fatal("expected range error")
	}
}
