package portal

import (
	"strings"
	"sync"
)

// Session accumulates the cookies the portal issues across the login
// handshake. Cookies are kept as an ordered name->value mapping so the
// serialized Cookie header is stable; a repeated Set-Cookie for the same
// name overwrites the earlier value in place.
type Session struct {
	names         []string
	values        map[string]string
	authenticated bool
}

func NewSession() *Session {
	return &Session{values: make(map[string]string)}
}

// Merge folds raw Set-Cookie header values into the session. Only the
// leading name=value pair of each header is kept; attributes (Path,
// Expires, HttpOnly, ...) are dropped. Last write for a name wins.
func (s *Session) Merge(setCookies []string) {
	for _, raw := range setCookies {
		pair, _, _ := strings.Cut(raw, ";")
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, exists := s.values[name]; !exists {
			s.names = append(s.names, name)
		}
		s.values[name] = strings.TrimSpace(value)
	}
}

// CookieHeader serializes the accumulated cookies for an outbound request.
func (s *Session) CookieHeader() string {
	parts := make([]string, 0, len(s.names))
	for _, name := range s.names {
		parts = append(parts, name+"="+s.values[name])
	}
	return strings.Join(parts, "; ")
}

func (s *Session) Authenticated() bool { return s.authenticated }

// MarkAuthenticated flags the session as accepted by the portal.
func (s *Session) MarkAuthenticated() { s.authenticated = true }

func (s *Session) CookieCount() int { return len(s.names) }

// SessionStore owns the process-wide portal session. All mutation goes
// through the store's lock; readers get a consistent snapshot of the
// cookie string rather than a live view.
type SessionStore struct {
	mu      sync.Mutex
	current *Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{current: NewSession()}
}

// Set replaces the current session wholesale, as happens on each fresh
// login attempt.
func (st *SessionStore) Set(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.current = s
}

// Snapshot returns the serialized cookie string, cookie count and
// authentication flag of the current session under one lock acquisition,
// so the three values always describe the same session.
func (st *SessionStore) Snapshot() (cookieHeader string, cookieCount int, authenticated bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current.CookieHeader(), st.current.CookieCount(), st.current.authenticated
}
