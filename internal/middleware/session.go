package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const sessionTokenKey = "token"

// SessionManager keeps the caller's JWT in a signed cookie so browser
// clients do not have to manage the Authorization header themselves.
type SessionManager struct {
	store sessions.Store
	name  string
}

// NewSessionManager creates a cookie-backed session manager
func NewSessionManager(secret, name string, secure bool, maxAge time.Duration) *SessionManager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, name: name}
}

// Token returns the JWT stored in the request's session cookie, if any
func (m *SessionManager) Token(r *http.Request) string {
	session, err := m.store.Get(r, m.name)
	if err != nil {
		return ""
	}
	token, _ := session.Values[sessionTokenKey].(string)
	return token
}

// Save stores token in the session cookie
func (m *SessionManager) Save(w http.ResponseWriter, r *http.Request, token string) error {
	// A stale or tampered cookie yields an error together with a fresh session
	session, _ := m.store.Get(r, m.name)
	session.Values[sessionTokenKey] = token
	return session.Save(r, w)
}

// Clear expires the session cookie
func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, m.name)
	delete(session.Values, sessionTokenKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
