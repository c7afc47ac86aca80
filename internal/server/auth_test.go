package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/yashsmehta/auto-apply/internal/store"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &AuthHandler{Store: &store.Store{DB: db}, Secret: []byte("test-secret")}, mock
}

func authContext(e *echo.Echo, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSignupCreatesUser(t *testing.T) {
	e := echo.New()
	handler, mock := newAuthHandler(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("amy@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx, rec := authContext(e, "/api/auth/signup", `{"email":"amy@example.com","password":"hunter22hunter"}`)
	if err := handler.signup(ctx); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 got %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	e := echo.New()
	handler, mock := newAuthHandler(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("amy@example.com", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	ctx, _ := authContext(e, "/api/auth/signup", `{"email":"amy@example.com","password":"hunter22hunter"}`)
	err := handler.signup(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409 error, got %#v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSignupShortPassword(t *testing.T) {
	e := echo.New()
	handler, _ := newAuthHandler(t)

	ctx, _ := authContext(e, "/api/auth/signup", `{"email":"amy@example.com","password":"short"}`)
	err := handler.signup(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 error, got %#v", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	e := echo.New()
	handler, mock := newAuthHandler(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22hunter"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	mock.ExpectQuery(`SELECT id, password_hash FROM users WHERE email=\$1`).
		WithArgs("amy@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow("user-1", string(hash)))

	ctx, rec := authContext(e, "/api/auth/login", `{"email":"amy@example.com","password":"hunter22hunter"}`)
	if err := handler.login(ctx); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected token in body")
	}
	parsed, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	if sub, _ := parsed.Claims.GetSubject(); sub != "user-1" {
		t.Fatalf("token subject = %q, want user-1", sub)
	}

	var authCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "auth" {
			authCookie = ck
		}
	}
	if authCookie == nil || !authCookie.HttpOnly || authCookie.Value != resp.Token {
		t.Fatalf("expected HttpOnly auth cookie carrying the token, got %+v", authCookie)
	}
	if got := rec.Header().Get("Authorization"); got != "Bearer "+resp.Token {
		t.Fatalf("Authorization header = %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	e := echo.New()
	handler, mock := newAuthHandler(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("a-different-password"), bcrypt.MinCost)
	mock.ExpectQuery(`SELECT id, password_hash FROM users WHERE email=\$1`).
		WithArgs("amy@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow("user-1", string(hash)))

	ctx, _ := authContext(e, "/api/auth/login", `{"email":"amy@example.com","password":"hunter22hunter"}`)
	err := handler.login(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 error, got %#v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	e := echo.New()
	handler, mock := newAuthHandler(t)

	mock.ExpectQuery(`SELECT id, password_hash FROM users WHERE email=\$1`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	ctx, _ := authContext(e, "/api/auth/login", `{"email":"ghost@example.com","password":"hunter22hunter"}`)
	err := handler.login(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 error, got %#v", err)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	e := echo.New()
	handler, _ := newAuthHandler(t)

	ctx, rec := authContext(e, "/api/auth/logout", "")
	if err := handler.logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	var authCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "auth" {
			authCookie = ck
		}
	}
	if authCookie == nil || authCookie.MaxAge != -1 {
		t.Fatalf("expected expired auth cookie, got %+v", authCookie)
	}
}
