package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/cache"
	"github.com/dropDatabas3/littlejohn/internal/session"
)

func newManager() *session.Manager {
	return &session.Manager{
		Cache:      cache.NewMemory(time.Minute),
		CookieName: "lj_session",
		TTL:        time.Minute,
	}
}

func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range rec.Result().Cookies() {
		r.AddCookie(ck)
	}
	return r
}

func TestSession_EstablishAndResolve(t *testing.T) {
	m := newManager()
	ctx := context.Background()

	rec := httptest.NewRecorder()
	if err := m.Establish(ctx, rec, "u-1"); err != nil {
		t.Fatalf("Establish: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "lj_session" || cookies[0].Value == "" {
		t.Fatalf("cookies = %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}

	p, ok := m.FromRequest(ctx, requestWithCookies(rec))
	if !ok || p.UserID != "u-1" {
		t.Fatalf("FromRequest = %+v, %v", p, ok)
	}
}

func TestSession_UnknownCookie(t *testing.T) {
	m := newManager()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "lj_session", Value: "garbage"})

	if _, ok := m.FromRequest(context.Background(), r); ok {
		t.Fatal("garbage cookie must not resolve")
	}
}

func TestSession_Destroy(t *testing.T) {
	m := newManager()
	ctx := context.Background()

	rec := httptest.NewRecorder()
	if err := m.Establish(ctx, rec, "u-1"); err != nil {
		t.Fatalf("Establish: %v", err)
	}
	r := requestWithCookies(rec)

	rec2 := httptest.NewRecorder()
	m.Destroy(ctx, rec2, r)

	// La sesión ya no resuelve y la cookie de respuesta expira.
	if _, ok := m.FromRequest(ctx, r); ok {
		t.Fatal("session must be gone after Destroy")
	}
	cookies := rec2.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("cookies = %+v", cookies)
	}
}
