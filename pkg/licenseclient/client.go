package licenseclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultAttempts       = 3
	DefaultRetryDelay     = time.Second

	maxResponseBytes = 1 << 20
)

// ErrUnavailable marks a call that never got a usable answer from the license server.
var ErrUnavailable = errors.New("license server unavailable")

// RejectionError is a well-formed refusal from the server. It is never retried.
type RejectionError struct {
	Status  int
	Code    string
	Message string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("license server rejected request: %s (%d)", e.Code, e.Status)
	}
	return fmt.Sprintf("license server rejected request: %s: %s", e.Code, e.Message)
}

// ValidateRequest is the activation payload.
type ValidateRequest struct {
	Key        string `json:"key"`
	AppID      string `json:"app_id"`
	MachineID  string `json:"machine_id"`
	AppVersion string `json:"app_version"`
}

type ValidateResponse struct {
	Valid           bool       `json:"valid"`
	ExpiresAt       *time.Time `json:"expires_at"`
	Features        []string   `json:"features"`
	MaxUsers        int        `json:"max_users"`
	MaxMachines     int        `json:"max_machines"`
	CurrentMachines int64      `json:"current_machines"`
	Error           string     `json:"error,omitempty"`
	Message         string     `json:"message,omitempty"`
}

type StatusResponse struct {
	Active        bool       `json:"active"`
	Status        string     `json:"status"`
	ExpiresAt     *time.Time `json:"expires_at"`
	DaysRemaining *int       `json:"days_remaining"`
	MachinesUsed  int64      `json:"machines_used"`
	MachinesLimit int        `json:"machines_limit"`
}

type DeactivateResponse struct {
	Message           string `json:"message"`
	MachinesRemaining int64  `json:"machines_remaining"`
}

type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Attempts   int
	RetryDelay time.Duration
}

// Client talks to the public license endpoints.
type Client struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	attempts int
	delay    time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("license server url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid license server url: %w", err)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	delay := opts.RetryDelay
	if delay < 0 {
		delay = 0
	} else if delay == 0 {
		delay = DefaultRetryDelay
	}
	return &Client{baseURL: base, http: httpClient, timeout: timeout, attempts: attempts, delay: delay}, nil
}

func (c *Client) Validate(ctx context.Context, req ValidateRequest) (*ValidateResponse, error) {
	var out ValidateResponse
	if err := c.do(ctx, http.MethodPost, "/api/license/validate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Status(ctx context.Context, key string) (*StatusResponse, error) {
	var out StatusResponse
	path := "/api/license/status?key=" + url.QueryEscape(key)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Deactivate(ctx context.Context, key, machineID string) (*DeactivateResponse, error) {
	var out DeactivateResponse
	body := map[string]string{"key": key, "machine_id": machineID}
	if err := c.do(ctx, http.MethodPost, "/api/license/deactivate", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do runs the request with a fixed per-attempt timeout. The caller's cancellation is not
// propagated: the timeout is the only thing that stops an attempt.
func (c *Client) do(ctx context.Context, method, path string, body any, dest any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		payload = encoded
	}

	detached := context.WithoutCancel(ctx)
	backoff := retry.WithMaxRetries(uint64(c.attempts-1), retry.NewConstant(c.delay))

	err := retry.Do(detached, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return c.attempt(attemptCtx, method, path, payload, dest)
	})
	if err == nil {
		return nil
	}
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, dest any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return retry.RetryableError(fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return retry.RetryableError(fmt.Errorf("server responded %d", resp.StatusCode))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var problem struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &problem); err != nil || problem.Error == "" {
			return retry.RetryableError(fmt.Errorf("server responded %d without an error body", resp.StatusCode))
		}
		return &RejectionError{Status: resp.StatusCode, Code: problem.Error, Message: problem.Message}
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return retry.RetryableError(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
