package models

import (
	"testing"
	"time"

	"github.com/angelmondragon/petlife-licenser/pkg/enums"
)

func TestLicenseActivity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name    string
		license License
		expired bool
		active  bool
	}{
		{"perpetual", License{Status: enums.LicenseStatusActive}, false, true},
		{"future expiry", License{Status: enums.LicenseStatusActive, ExpiresAt: &future}, false, true},
		{"past expiry", License{Status: enums.LicenseStatusActive, ExpiresAt: &past}, true, false},
		{"revoked", License{Status: enums.LicenseStatusRevoked}, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.license.IsExpired(now); got != tc.expired {
				t.Fatalf("IsExpired = %v, want %v", got, tc.expired)
			}
			if got := tc.license.IsActive(now); got != tc.active {
				t.Fatalf("IsActive = %v, want %v", got, tc.active)
			}
		})
	}
}

func TestLicenseBeforeCreateDefaults(t *testing.T) {
	l := &License{Key: "AB3K-9XQZ-2M4P-7TWY"}
	if err := l.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if l.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatal("expected id to be assigned")
	}
	if l.Status != enums.LicenseStatusActive {
		t.Fatalf("expected active status, got %q", l.Status)
	}
	if !l.Features.Has("full") {
		t.Fatalf("expected default features, got %v", l.Features)
	}
}
