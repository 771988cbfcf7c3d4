package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const sessionCookie = "willr_session"

// Manager issues and checks login sessions. Each session is a row in
// the sessions table keyed by a random token; the cookie carries the
// token plus an HMAC over it with the configured secret key, so a
// forged or tampered cookie never reaches the database.
type Manager struct {
	db     *sql.DB
	secret []byte
	maxAge time.Duration
}

func NewManager(db *sql.DB, secret []byte, maxAge time.Duration) *Manager {
	return &Manager{db: db, secret: secret, maxAge: maxAge}
}

// Create clears any prior sessions for the user, starts a new one and
// sets the session cookie.
func (m *Manager) Create(w http.ResponseWriter, userID int64) error {
	if _, err := m.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return err
	}

	token := uuid.New().String()
	expires := time.Now().Add(m.maxAge)
	_, err := m.db.Exec(`INSERT INTO sessions(id, user_id, expires_at) VALUES(?, ?, ?)`,
		token, userID, expires)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    m.sign(token),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
	return nil
}

// Destroy drops the session named by the request cookie, if any, and
// expires the cookie. Safe to call with no session at all.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) {
	if c, _ := r.Cookie(sessionCookie); c != nil && c.Value != "" {
		if token, ok := m.verify(c.Value); ok {
			m.db.Exec(`DELETE FROM sessions WHERE id = ?`, token)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
	})
}

// CurrentUserID resolves the request's session cookie to a user id.
func (m *Manager) CurrentUserID(r *http.Request) (int64, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return 0, false
	}
	token, ok := m.verify(c.Value)
	if !ok {
		return 0, false
	}
	var uid int64
	var exp time.Time
	err = m.db.QueryRow(`SELECT user_id, expires_at FROM sessions WHERE id = ?`, token).
		Scan(&uid, &exp)
	if err != nil || time.Now().After(exp) {
		return 0, false
	}
	return uid, true
}

// sign produces the cookie value "token.mac".
func (m *Manager) sign(token string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(token))
	return token + "." + hex.EncodeToString(mac.Sum(nil))
}

// verify checks the cookie value's MAC and returns the bare token.
func (m *Manager) verify(value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i < 0 {
		return "", false
	}
	token := value[:i]
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(token))
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(value[i+1:])) {
		return "", false
	}
	return token, true
}

// --- password helpers (bcrypt) ---

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(pw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
