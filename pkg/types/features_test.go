package types

import "testing"

func TestFeaturesNormalize(t *testing.T) {
	got := Features{" reports ", "", "full", "reports"}.Normalize()
	if len(got) != 2 || got[0] != "reports" || got[1] != "full" {
		t.Fatalf("unexpected normalized set %v", got)
	}
	if got := Features(nil).Normalize(); len(got) != 1 || got[0] != DefaultFeature {
		t.Fatalf("expected default feature, got %v", got)
	}
}

func TestFeaturesScan(t *testing.T) {
	var f Features
	if err := f.Scan(`["full","multi_store"]`); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if !f.Has("multi_store") || len(f) != 2 {
		t.Fatalf("unexpected scan result %v", f)
	}

	if err := f.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if !f.Has(DefaultFeature) {
		t.Fatalf("nil column should read as defaults, got %v", f)
	}

	if err := f.Scan([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed column")
	}
	if err := f.Scan(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestFeaturesValue(t *testing.T) {
	v, err := Features{"full"}.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != `["full"]` {
		t.Fatalf("unexpected column value %v", v)
	}
	v, _ = Features(nil).Value()
	if v != `["full"]` {
		t.Fatalf("nil features should persist defaults, got %v", v)
	}
}
