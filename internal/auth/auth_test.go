package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/yashsmehta/auto-apply/config"
)

var secret = []byte("test-secret")

func protectedCall(t *testing.T, decorate func(*http.Request)) (string, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	var seen string
	handler := Middleware(secret)(func(c echo.Context) error {
		seen, _ = c.Get("user_id").(string)
		if sub, ok := SubjectFromContext(c.Request().Context()); !ok || sub != seen {
			t.Fatalf("request context subject = %q, want %q", sub, seen)
		}
		return c.NoContent(http.StatusOK)
	})
	return seen, handler(ctx)
}

func TestMiddlewareBearerHeader(t *testing.T) {
	tok, err := SignJWT("user-7", secret, time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	seen, err := protectedCall(t, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+tok)
	})
	if err != nil {
		t.Fatalf("middleware rejected valid bearer token: %v", err)
	}
	if seen != "user-7" {
		t.Fatalf("user_id = %q, want user-7", seen)
	}
}

func TestMiddlewareAuthCookie(t *testing.T) {
	tok, err := SignJWT("user-9", secret, time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	seen, err := protectedCall(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "auth", Value: tok})
	})
	if err != nil {
		t.Fatalf("middleware rejected valid cookie token: %v", err)
	}
	if seen != "user-9" {
		t.Fatalf("user_id = %q, want user-9", seen)
	}
}

func TestMiddlewareRejects(t *testing.T) {
	otherSecret, err := SignJWT("user-1", []byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	expired, err := SignJWT("user-1", secret, -time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	tests := []struct {
		name     string
		decorate func(*http.Request)
	}{
		{"no token", nil},
		{"garbage token", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer not-a-jwt")
		}},
		{"wrong secret", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+otherSecret)
		}},
		{"expired", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+expired)
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := protectedCall(t, tt.decorate)
			httpErr, ok := err.(*echo.HTTPError)
			if !ok || httpErr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401 error, got %#v", err)
			}
		})
	}
}

func TestSignJWTSubjectRoundTrip(t *testing.T) {
	tok, err := SignJWT("user-42", secret, time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	parsed, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) { return secret, nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("parse: %v", err)
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub != "user-42" {
		t.Fatalf("subject = %q (%v), want user-42", sub, err)
	}
}

func TestLoadSecret(t *testing.T) {
	if _, err := LoadSecret(&config.Config{}); err == nil {
		t.Fatal("expected error for missing secret")
	}
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "hunter2hunter2"
	got, err := LoadSecret(cfg)
	if err != nil {
		t.Fatalf("LoadSecret: %v", err)
	}
	if string(got) != "hunter2hunter2" {
		t.Fatalf("secret = %q", got)
	}
}
