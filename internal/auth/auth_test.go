package auth_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"willr/internal/auth"
	"willr/internal/db"
)

func newManager(t *testing.T) (*auth.Manager, int64) {
	t.Helper()
	dbc, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { dbc.Close() })
	if err := db.Migrate(dbc); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	uid := seedUser(t, dbc)
	return auth.NewManager(dbc, []byte("test-secret"), time.Hour), uid
}

func seedUser(t *testing.T, dbc *sql.DB) int64 {
	t.Helper()
	res, err := dbc.Exec(`INSERT INTO user(username, password) VALUES('alice', 'x')`)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("pw1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "pw1" {
		t.Fatal("hash equals plaintext")
	}
	if !auth.CheckPassword("pw1", hash) {
		t.Error("correct password rejected")
	}
	if auth.CheckPassword("pw2", hash) {
		t.Error("wrong password accepted")
	}
}

func TestSessionLifecycle(t *testing.T) {
	m, uid := newManager(t)

	rec := httptest.NewRecorder()
	if err := m.Create(rec, uid); err != nil {
		t.Fatalf("create: %v", err)
	}
	c := sessionCookie(t, rec)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	got, ok := m.CurrentUserID(r)
	if !ok || got != uid {
		t.Fatalf("CurrentUserID = %d, %v; want %d, true", got, ok, uid)
	}

	m.Destroy(httptest.NewRecorder(), r)
	if _, ok := m.CurrentUserID(r); ok {
		t.Error("session still valid after Destroy")
	}
}

func TestTamperedCookieRejected(t *testing.T) {
	m, uid := newManager(t)

	rec := httptest.NewRecorder()
	if err := m.Create(rec, uid); err != nil {
		t.Fatalf("create: %v", err)
	}
	c := sessionCookie(t, rec)
	c.Value += "ff"

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	if _, ok := m.CurrentUserID(r); ok {
		t.Error("tampered cookie accepted")
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	dbc, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { dbc.Close() })
	if err := db.Migrate(dbc); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	uid := seedUser(t, dbc)
	m := auth.NewManager(dbc, []byte("test-secret"), -time.Minute)

	rec := httptest.NewRecorder()
	if err := m.Create(rec, uid); err != nil {
		t.Fatalf("create: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(sessionCookie(t, rec))
	if _, ok := m.CurrentUserID(r); ok {
		t.Error("expired session accepted")
	}
}

func TestDestroyWithoutSession(t *testing.T) {
	m, _ := newManager(t)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	m.Destroy(rec, r)
	m.Destroy(rec, r) // idempotent

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Value == "" && c.Expires.Before(time.Now()) {
			cleared = true
		}
	}
	if !cleared {
		t.Error("Destroy did not expire the cookie")
	}
}
