package enums

import "testing"

func TestParseLicenseStatus(t *testing.T) {
	got, err := ParseLicenseStatus("revoked")
	if err != nil || got != LicenseStatusRevoked {
		t.Fatalf("expected revoked, got %q err=%v", got, err)
	}
	if _, err := ParseLicenseStatus("expired"); err == nil {
		t.Fatal("expired is computed and must not parse as a stored status")
	}
}

func TestParseLicenseStatusFilter(t *testing.T) {
	for _, raw := range []string{"", "all"} {
		f, err := ParseLicenseStatusFilter(raw)
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		if _, ok := f.Status(); ok {
			t.Fatalf("%q should match every status", raw)
		}
	}

	f, err := ParseLicenseStatusFilter("active")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if status, ok := f.Status(); !ok || status != LicenseStatusActive {
		t.Fatalf("unexpected filter status %q ok=%v", status, ok)
	}

	if _, err := ParseLicenseStatusFilter("bogus"); err == nil {
		t.Fatal("expected error for unknown filter")
	}
}

func TestAdminRole(t *testing.T) {
	if !AdminRoleAdmin.IsValid() {
		t.Fatal("admin should be valid")
	}
	if _, err := ParseAdminRole("owner"); err == nil {
		t.Fatal("owner is not an admin role")
	}
}

func TestValidationOutcomeSuccess(t *testing.T) {
	if !ValidationOutcomeActivated.Success() || !ValidationOutcomeRenewed.Success() {
		t.Fatal("activated and renewed are successes")
	}
	if ValidationOutcomeRevoked.Success() || ValidationOutcomeError.Success() {
		t.Fatal("rejections are not successes")
	}
}
