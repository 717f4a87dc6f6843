// Package licenseclient is the desktop side of license activation. It keeps the last
// known-good license in a local store and decides at startup whether to trust it,
// revalidate it over the network, or ask for activation.
package licenseclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/petlife-licenser/pkg/logger"
	"github.com/angelmondragon/petlife-licenser/pkg/machineid"
)

const (
	ValidationInterval = 7 * 24 * time.Hour
	OfflineGracePeriod = 30 * 24 * time.Hour

	storeKeyLicense = "license"
)

type State string

const (
	StateNoLicense       State = "NO_LICENSE"
	StateValid           State = "VALID"
	StateValidOffline    State = "VALID_OFFLINE"
	StateNeedsActivation State = "NEEDS_ACTIVATION"
)

// Result codes surfaced alongside a state. Server rejections carry the server's own code.
const (
	CodeNoLicense           = "no_license"
	CodeLicenseExpired      = "license_expired"
	CodeOfflineGraceExpired = "offline_grace_expired"
	CodeNetworkError        = "network_error"
)

const (
	msgNoLicense       = "No license found. Please activate the application."
	msgExpired         = "Your license has expired. Please renew your license."
	msgValid           = "License is valid."
	msgValidated       = "License validated successfully."
	msgOffline         = "Using the cached license in offline mode. Connect to the internet to validate it."
	msgRejected        = "The license was rejected by the server."
	msgGraceExpired    = "Could not validate the license and the offline grace period has expired."
	msgNetworkRequired = "Could not reach the license server. Check your connection."
)

var (
	ErrNoCachedLicense = errors.New("no cached license")
	ErrGraceExpired    = errors.New("offline grace period expired")
)

// CachedLicense is the last successful validation, as kept on disk.
type CachedLicense struct {
	Key             string     `json:"key"`
	ValidatedAt     time.Time  `json:"validatedAt"`
	ExpiresAt       *time.Time `json:"expiresAt"`
	Features        []string   `json:"features"`
	MaxUsers        int        `json:"maxUsers"`
	MaxMachines     int        `json:"maxMachines"`
	CurrentMachines int64      `json:"currentMachines"`
}

// Result is the decision handed to the application shell.
type Result struct {
	State   State          `json:"state"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message"`
	License *CachedLicense `json:"license,omitempty"`
	Offline bool           `json:"offline"`
}

// Valid reports whether the application may run.
func (r *Result) Valid() bool {
	return r != nil && (r.State == StateValid || r.State == StateValidOffline)
}

type licenseAPI interface {
	Validate(ctx context.Context, req ValidateRequest) (*ValidateResponse, error)
	Status(ctx context.Context, key string) (*StatusResponse, error)
	Deactivate(ctx context.Context, key, machineID string) (*DeactivateResponse, error)
}

type ManagerOptions struct {
	Store      Store
	API        licenseAPI
	AppID      string
	AppVersion string
	Logger     *logger.Logger
	// MachineID returns the hashed fingerprint. Defaults to machineid.Hashed.
	MachineID func() (string, error)
	Now       func() time.Time
}

type Manager struct {
	store      Store
	api        licenseAPI
	appID      string
	appVersion string
	logg       *logger.Logger
	machineID  func() (string, error)
	now        func() time.Time

	startup singleflight.Group
	mu      sync.Mutex
	state   State

	hashOnce sync.Once
	hash     string
	hashErr  error
}

func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.API == nil {
		return nil, errors.New("license api client is required")
	}
	if strings.TrimSpace(opts.AppID) == "" {
		return nil, errors.New("app id is required")
	}
	m := &Manager{
		store:      opts.Store,
		api:        opts.API,
		appID:      opts.AppID,
		appVersion: opts.AppVersion,
		logg:       opts.Logger,
		machineID:  opts.MachineID,
		now:        opts.Now,
		state:      StateNoLicense,
	}
	if m.machineID == nil {
		m.machineID = machineid.Hashed
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// HashedMachineID returns this machine's fingerprint digest.
func (m *Manager) HashedMachineID() (string, error) {
	m.hashOnce.Do(func() {
		m.hash, m.hashErr = m.machineID()
		if m.hashErr == nil && m.hash == "" {
			m.hashErr = errors.New("empty machine id")
		}
	})
	return m.hash, m.hashErr
}

// State is the outcome of the most recent startup check or offline request.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// StoredLicense returns the cached license. A record whose seal does not verify on this
// machine is reported as absent.
func (m *Manager) StoredLicense() (*CachedLicense, error) {
	var sealed sealedLicense
	ok, err := m.store.Get(storeKeyLicense, &sealed)
	if err != nil {
		return nil, fmt.Errorf("reading cached license: %w", err)
	}
	if !ok {
		return nil, nil
	}
	hash, err := m.HashedMachineID()
	if err != nil {
		return nil, fmt.Errorf("machine id: %w", err)
	}
	if !sealed.verify(hash) {
		m.warn(context.Background(), "license.cache.seal_mismatch")
		return nil, nil
	}
	license := sealed.License
	return &license, nil
}

// ValidateLicense activates or renews key against the server and refreshes the cache on
// success. Rejections come back as *RejectionError, network failures wrap ErrUnavailable.
func (m *Manager) ValidateLicense(ctx context.Context, key string) (*ValidateResponse, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	hash, err := m.HashedMachineID()
	if err != nil {
		return nil, fmt.Errorf("machine id: %w", err)
	}

	resp, err := m.api.Validate(ctx, ValidateRequest{
		Key:        key,
		AppID:      m.appID,
		MachineID:  hash,
		AppVersion: m.appVersion,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Valid {
		code := resp.Error
		if code == "" {
			code = "invalid_license"
		}
		return nil, &RejectionError{Status: 200, Code: code, Message: resp.Message}
	}

	license := CachedLicense{
		Key:             key,
		ValidatedAt:     m.now().UTC(),
		ExpiresAt:       resp.ExpiresAt,
		Features:        resp.Features,
		MaxUsers:        resp.MaxUsers,
		MaxMachines:     resp.MaxMachines,
		CurrentMachines: resp.CurrentMachines,
	}
	if err := m.saveLicense(license, hash); err != nil {
		return nil, err
	}
	m.info(ctx, "license.cache.refreshed")
	return resp, nil
}

// CheckOnStartup decides whether the application may run. Concurrent calls share one
// in-flight check.
func (m *Manager) CheckOnStartup(ctx context.Context) (*Result, error) {
	v, err, _ := m.startup.Do("startup", func() (any, error) {
		return m.checkOnStartup(ctx)
	})
	if err != nil {
		return nil, err
	}
	res := v.(*Result)
	m.setState(res.State)
	return res, nil
}

func (m *Manager) checkOnStartup(ctx context.Context) (*Result, error) {
	license, err := m.StoredLicense()
	if err != nil {
		return nil, err
	}
	if license == nil {
		return &Result{State: StateNeedsActivation, Code: CodeNoLicense, Message: msgNoLicense}, nil
	}

	now := m.now()
	if expired(license, now) {
		return &Result{State: StateNeedsActivation, Code: CodeLicenseExpired, Message: msgExpired, License: license}, nil
	}
	if !needsRevalidation(license, now) {
		return &Result{State: StateValid, Message: msgValid, License: license}, nil
	}

	_, err = m.ValidateLicense(ctx, license.Key)
	var rejection *RejectionError
	switch {
	case err == nil:
		refreshed, err := m.StoredLicense()
		if err != nil {
			return nil, err
		}
		return &Result{State: StateValid, Message: msgValidated, License: refreshed}, nil
	case errors.As(err, &rejection):
		m.warn(m.withCode(ctx, rejection.Code), "license.startup.rejected")
		msg := rejection.Message
		if msg == "" {
			msg = msgRejected
		}
		return &Result{State: StateNeedsActivation, Code: rejection.Code, Message: msg}, nil
	case errors.Is(err, ErrUnavailable):
		if withinGrace(license, now) {
			m.warn(ctx, "license.startup.offline")
			return &Result{State: StateValidOffline, Message: msgOffline, License: license, Offline: true}, nil
		}
		m.warn(m.withCode(ctx, CodeOfflineGraceExpired), "license.startup.grace_expired")
		return &Result{State: StateNeedsActivation, Code: CodeOfflineGraceExpired, Message: msgGraceExpired}, nil
	default:
		return nil, err
	}
}

// UseOfflineMode runs on the cached license without contacting the server. It fails with
// ErrNoCachedLicense or ErrGraceExpired.
func (m *Manager) UseOfflineMode() (*Result, error) {
	license, err := m.StoredLicense()
	if err != nil {
		return nil, err
	}
	if license == nil {
		m.setState(StateNoLicense)
		return nil, ErrNoCachedLicense
	}
	if !withinGrace(license, m.now()) {
		m.setState(StateNeedsActivation)
		return nil, ErrGraceExpired
	}
	m.setState(StateValidOffline)
	return &Result{State: StateValidOffline, Message: msgOffline, License: license, Offline: true}, nil
}

// IsWithinOfflineGracePeriod reports whether the cache was validated less than the grace
// period ago.
func (m *Manager) IsWithinOfflineGracePeriod() bool {
	license, err := m.StoredLicense()
	if err != nil || license == nil {
		return false
	}
	return withinGrace(license, m.now())
}

// NeedsRevalidation reports whether the cache is missing or older than the validation interval.
func (m *Manager) NeedsRevalidation() bool {
	license, err := m.StoredLicense()
	if err != nil || license == nil {
		return true
	}
	return needsRevalidation(license, m.now())
}

// IsLicenseExpired reports whether the cached license is past its expiry. Perpetual and
// missing licenses are not expired.
func (m *Manager) IsLicenseExpired() bool {
	license, err := m.StoredLicense()
	if err != nil || license == nil {
		return false
	}
	return expired(license, m.now())
}

func (m *Manager) CheckLicenseStatus(ctx context.Context, key string) (*StatusResponse, error) {
	return m.api.Status(ctx, strings.ToUpper(strings.TrimSpace(key)))
}

// DeactivateMachine releases this machine from key and clears the cache on success.
func (m *Manager) DeactivateMachine(ctx context.Context, key string) (*DeactivateResponse, error) {
	hash, err := m.HashedMachineID()
	if err != nil {
		return nil, fmt.Errorf("machine id: %w", err)
	}
	resp, err := m.api.Deactivate(ctx, strings.ToUpper(strings.TrimSpace(key)), hash)
	if err != nil {
		return nil, err
	}
	if err := m.ClearLicense(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (m *Manager) ClearLicense() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Delete(storeKeyLicense); err != nil {
		return fmt.Errorf("clearing cached license: %w", err)
	}
	m.state = StateNoLicense
	return nil
}

// Message returns the user-facing text for an error from ValidateLicense or UseOfflineMode.
func Message(err error) string {
	var rejection *RejectionError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rejection):
		if rejection.Message != "" {
			return rejection.Message
		}
		return msgRejected
	case errors.Is(err, ErrUnavailable):
		return msgNetworkRequired
	case errors.Is(err, ErrNoCachedLicense):
		return msgNoLicense
	case errors.Is(err, ErrGraceExpired):
		return msgGraceExpired
	default:
		return err.Error()
	}
}

func (m *Manager) saveLicense(license CachedLicense, hash string) error {
	sealed, err := seal(license, hash)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Set(storeKeyLicense, sealed); err != nil {
		return fmt.Errorf("saving cached license: %w", err)
	}
	return nil
}

func (m *Manager) setState(state State) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

func (m *Manager) withCode(ctx context.Context, code string) context.Context {
	if m.logg == nil {
		return ctx
	}
	return m.logg.WithField(ctx, "error_code", code)
}

func (m *Manager) info(ctx context.Context, msg string) {
	if m.logg != nil {
		m.logg.Info(ctx, msg)
	}
}

func (m *Manager) warn(ctx context.Context, msg string) {
	if m.logg != nil {
		m.logg.Warn(ctx, msg)
	}
}

func expired(license *CachedLicense, now time.Time) bool {
	return license.ExpiresAt != nil && now.After(*license.ExpiresAt)
}

func needsRevalidation(license *CachedLicense, now time.Time) bool {
	if license.ValidatedAt.IsZero() {
		return true
	}
	return now.Sub(license.ValidatedAt) >= ValidationInterval
}

func withinGrace(license *CachedLicense, now time.Time) bool {
	if license.ValidatedAt.IsZero() {
		return false
	}
	return now.Sub(license.ValidatedAt) < OfflineGracePeriod
}
