package enums

// ValidationOutcome labels a validation attempt in metrics and the audit trail.
type ValidationOutcome string

const (
	ValidationOutcomeActivated            ValidationOutcome = "activated"
	ValidationOutcomeRenewed              ValidationOutcome = "renewed"
	ValidationOutcomeInvalidFormat        ValidationOutcome = "invalid_format"
	ValidationOutcomeInvalidKey           ValidationOutcome = "invalid_key"
	ValidationOutcomeRevoked              ValidationOutcome = "revoked_key"
	ValidationOutcomeExpired              ValidationOutcome = "expired_key"
	ValidationOutcomeMachineLimitExceeded ValidationOutcome = "machine_limit_exceeded"
	ValidationOutcomeError                ValidationOutcome = "error"
)

// String implements fmt.Stringer.
func (o ValidationOutcome) String() string {
	return string(o)
}

// Success reports whether the outcome granted the license.
func (o ValidationOutcome) Success() bool {
	return o == ValidationOutcomeActivated || o == ValidationOutcomeRenewed
}
