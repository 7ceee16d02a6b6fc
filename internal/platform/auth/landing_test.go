package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestSigner(t *testing.T) *LandingSigner {
	t.Helper()
	s, err := NewLandingSigner(testSecret, "enrollment", "https://portal.example.com/welcome", time.Minute)
	if err != nil {
		t.Fatalf("NewLandingSigner: %v", err)
	}
	return s
}

func TestNewLandingSigner_ShortSecret(t *testing.T) {
	if _, err := NewLandingSigner("short", "", "https://x", time.Minute); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestLandingSigner_RoundTrip(t *testing.T) {
	s := newTestSigner(t)
	token, err := s.Sign("lead-42")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	got, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != "lead-42" {
		t.Errorf("expected lead-42, got %q", got)
	}
}

func TestLandingSigner_Expired(t *testing.T) {
	s := newTestSigner(t)
	issued := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }
	token, err := s.Sign("lead-1")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	s.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := s.Verify(token); !errors.Is(err, ErrInvalidLandingToken) {
		t.Errorf("expected ErrInvalidLandingToken, got %v", err)
	}
}

func TestLandingSigner_WrongSecret(t *testing.T) {
	s := newTestSigner(t)
	other, _ := NewLandingSigner("ffffffffffffffffffffffffffffffff", "enrollment", "https://x", time.Minute)
	token, _ := other.Sign("lead-1")
	if _, err := s.Verify(token); err == nil {
		t.Error("expected verification failure for foreign token")
	}
}

func TestLandingSigner_LandingURL(t *testing.T) {
	s := newTestSigner(t)
	raw, err := s.LandingURL("lead-7")
	if err != nil {
		t.Fatalf("LandingURL: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Host != "portal.example.com" || u.Path != "/welcome" {
		t.Errorf("unexpected landing url %s", raw)
	}
	lead, err := s.Verify(u.Query().Get("token"))
	if err != nil || lead != "lead-7" {
		t.Errorf("expected token for lead-7, got %q (%v)", lead, err)
	}
}

func TestLandingHandler(t *testing.T) {
	s := newTestSigner(t)
	token, _ := s.Sign("lead-9")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/landing?token="+token, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := s.Handler()(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["lead_id"] != "lead-9" {
		t.Errorf("expected lead-9, got %v", body)
	}
}

func TestLandingHandler_MissingToken(t *testing.T) {
	s := newTestSigner(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/landing", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	err := s.Handler()(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
