package env

import "testing"

func TestGetFallsBackOnBlank(t *testing.T) {
	t.Setenv("LICENSER_TEST_VALUE", "   ")
	if got := Get("LICENSER_TEST_VALUE", "json"); got != "json" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("LICENSER_TEST_VALUE", " console ")
	if got := Get("LICENSER_TEST_VALUE", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}
