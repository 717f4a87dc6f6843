package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/petlife-licenser/api/middleware"
	"github.com/angelmondragon/petlife-licenser/internal/auth"
	"github.com/angelmondragon/petlife-licenser/internal/users"
	pkgerrors "github.com/angelmondragon/petlife-licenser/pkg/errors"
)

type stubAuthService struct {
	loginReq  auth.LoginRequest
	loginErr  error
	loggedOut string
	logoutErr error
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.loginReq = req
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &auth.LoginResponse{Token: "token", ExpiresAt: 1, User: &users.UserDTO{Username: req.Username}}, nil
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.loggedOut = accessID
	return s.logoutErr
}

func TestAdminLoginSuccess(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/license/login", strings.NewReader(`{"username":"admin","password":"secret"}`))
	resp := httptest.NewRecorder()

	AdminLogin(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	body := decodeBody(t, resp)
	if body["token"] != "token" {
		t.Fatalf("unexpected body %v", body)
	}
	user, ok := body["user"].(map[string]any)
	if !ok || user["username"] != "admin" {
		t.Fatalf("unexpected user %v", body["user"])
	}
}

func TestAdminLoginMissingPassword(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/license/login", strings.NewReader(`{"username":"admin"}`))
	resp := httptest.NewRecorder()

	AdminLogin(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.loginReq.Username != "" {
		t.Fatalf("service should not be called")
	}
}

func TestAdminLoginInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/license/login", strings.NewReader(`{"username":"admin","password":"nope"}`))
	resp := httptest.NewRecorder()

	AdminLogin(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if decodeBody(t, resp)["message"] != "invalid credentials" {
		t.Fatalf("unexpected message")
	}
}

func TestAdminLogoutRevokesAccessID(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/license/logout", nil)
	req = req.WithContext(middleware.WithAdmin(req.Context(), "u-1", "admin", "admin", "jti-42"))
	resp := httptest.NewRecorder()

	AdminLogout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.loggedOut != "jti-42" {
		t.Fatalf("unexpected access id %q", svc.loggedOut)
	}
}

func TestAdminLogoutDependencyFailure(t *testing.T) {
	svc := &stubAuthService{logoutErr: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("redis down"), "revoke session")}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/license/logout", nil)
	resp := httptest.NewRecorder()

	AdminLogout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
