package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/creativeprojects/webmail/mailbox"
	"github.com/google/uuid"
)

const sessionCookie = "webmail_session"

// contextKey is a custom type for context keys.
type contextKey string

const callerContextKey contextKey = "caller"

// caller is the logged in user of an HTTP session. The credentials are kept in memory only.
type caller struct {
	token       string
	credentials mailbox.Credentials
	displayName string
	expires     time.Time
}

// sessionStore keeps the caller sessions, keyed by an opaque token sent in a cookie.
type sessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*caller
	now      func() time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:      ttl,
		sessions: make(map[string]*caller),
		now:      time.Now,
	}
}

// create a new session
func (s *sessionStore) create(credentials mailbox.Credentials, displayName string) *caller {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune()
	session := &caller{
		token:       uuid.NewString(),
		credentials: credentials,
		displayName: displayName,
		expires:     s.now().Add(s.ttl),
	}
	s.sessions[session.token] = session
	return session
}

// get returns the session of the token, nil when it does not exist or has expired
func (s *sessionStore) get(token string) *caller {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, found := s.sessions[token]
	if !found {
		return nil
	}
	if !s.now().Before(session.expires) {
		delete(s.sessions, token)
		return nil
	}
	return session
}

func (s *sessionStore) remove(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// count is the number of sessions, expired or not
func (s *sessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// prune must be called with the lock held
func (s *sessionStore) prune() {
	now := s.now()
	for token, session := range s.sessions {
		if !now.Before(session.expires) {
			delete(s.sessions, token)
		}
	}
}

// requireSession loads the caller session from the cookie, or answers 401
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "not logged in")
			return
		}
		session := s.sessions.get(cookie.Value)
		if session == nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session expired, please log in again")
			return
		}
		ctx := context.WithValue(r.Context(), callerContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerFrom(ctx context.Context) *caller {
	session, _ := ctx.Value(callerContextKey).(*caller)
	return session
}

func (s *Server) setSessionCookie(w http.ResponseWriter, session *caller) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.token,
		Path:     "/",
		Expires:  session.expires,
		MaxAge:   int(s.config.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
