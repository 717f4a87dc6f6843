package enums

import "fmt"

// LicenseStatus is the stored lifecycle state of a license. Expiry is computed, never stored.
type LicenseStatus string

const (
	LicenseStatusActive  LicenseStatus = "active"
	LicenseStatusRevoked LicenseStatus = "revoked"
)

var validLicenseStatuses = []LicenseStatus{
	LicenseStatusActive,
	LicenseStatusRevoked,
}

// String implements fmt.Stringer.
func (l LicenseStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known license status.
func (l LicenseStatus) IsValid() bool {
	for _, candidate := range validLicenseStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLicenseStatus converts raw input into LicenseStatus.
func ParseLicenseStatus(value string) (LicenseStatus, error) {
	for _, candidate := range validLicenseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid license status %q", value)
}

// LicenseStatusFilter narrows admin listings. The zero value and "all" match every license.
type LicenseStatusFilter string

const LicenseStatusFilterAll LicenseStatusFilter = "all"

// ParseLicenseStatusFilter accepts "", "all" or a concrete status.
func ParseLicenseStatusFilter(value string) (LicenseStatusFilter, error) {
	if value == "" || value == string(LicenseStatusFilterAll) {
		return LicenseStatusFilterAll, nil
	}
	status, err := ParseLicenseStatus(value)
	if err != nil {
		return "", err
	}
	return LicenseStatusFilter(status), nil
}

// Status returns the concrete status and false when the filter matches everything.
func (f LicenseStatusFilter) Status() (LicenseStatus, bool) {
	if f == "" || f == LicenseStatusFilterAll {
		return "", false
	}
	return LicenseStatus(f), true
}
