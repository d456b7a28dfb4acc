package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/invoicedesk/internal/domain"
	"github.com/yourorg/invoicedesk/internal/security/auth"
	"github.com/yourorg/invoicedesk/internal/security/middleware"
	"github.com/yourorg/invoicedesk/internal/service"
)

type memCredRepo struct {
	byUsername map[string]*domain.Credential
}

func newMemCredRepo() *memCredRepo {
	return &memCredRepo{byUsername: map[string]*domain.Credential{}}
}

func (m *memCredRepo) Create(c *domain.Credential) error {
	if _, ok := m.byUsername[c.Username]; ok {
		return domain.ErrConflict
	}
	c.CreatedAt = time.Now()
	m.byUsername[c.Username] = c
	return nil
}

func (m *memCredRepo) GetByUsername(username string) (*domain.Credential, error) {
	if c, ok := m.byUsername[username]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func newTestAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	tm := auth.NewTokenManager("test-secret", "invoicedesk", time.Hour)
	svc := service.NewAuthService(newMemCredRepo(), tm, nil)
	return NewAuthHandler(svc, false, 3600, nil)
}

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegisterAndConflict(t *testing.T) {
	h := newTestAuthHandler(t)

	rec := postJSON(t, h.Register, "/api/register", `{"username":"alice","password":"Password123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var resp RegisterResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UserID == "" || resp.Username != "alice" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	dup := postJSON(t, h.Register, "/api/register", `{"username":"alice","password":"Other456"}`)
	if dup.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", dup.Code)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	h := newTestAuthHandler(t)
	postJSON(t, h.Register, "/api/register", `{"username":"alice","password":"Password123"}`)

	rec := postJSON(t, h.Login, "/api/login", `{"username":"alice","password":"Password123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != middleware.SessionCookieName || c.Value == "" {
		t.Fatalf("unexpected cookie: %+v", c)
	}
	if !c.HttpOnly || c.MaxAge != 3600 || c.Path != "/" {
		t.Fatalf("cookie attributes wrong: %+v", c)
	}
	if strings.Contains(rec.Body.String(), c.Value) {
		t.Fatalf("token leaked into the response body")
	}
}

func TestLoginFailuresAreBadRequests(t *testing.T) {
	h := newTestAuthHandler(t)
	postJSON(t, h.Register, "/api/register", `{"username":"alice","password":"Password123"}`)

	for _, body := range []string{
		`{"username":"alice","password":"wrong"}`,
		`{"username":"nobody","password":"Password123"}`,
	} {
		rec := postJSON(t, h.Login, "/api/login", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d for %s, want 400", rec.Code, body)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Fatalf("cookie set on failed login")
		}
	}
}

func TestLogoutExpiresCookie(t *testing.T) {
	h := newTestAuthHandler(t)

	rec := postJSON(t, h.Logout, "/api/logout", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 || cookies[0].Value != "" {
		t.Fatalf("expected an expiring cookie, got %+v", cookies)
	}
}
