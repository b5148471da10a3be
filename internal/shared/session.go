package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionManager issues opaque cookie sessions stored in Redis. The cookie
// carries only the session ID; identity and CSRF state live server-side.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	keyPrefix  string
	ttl        time.Duration
	secure     bool
}

// identity is the authenticated principal bound to a session. The role is
// recorded at login so request middleware can build an access subject
// without a user lookup.
type identity struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
}

type sessionRecord struct {
	Identity identity          `json:"identity"`
	Values   map[string]string `json:"values,omitempty"`
	IssuedAt int64             `json:"iat"`
}

// Session is the per-request view of a session record. Mutations mark the
// session dirty; Commit persists dirty sessions and refreshes the TTL.
type Session struct {
	ID        string
	ident     identity
	values    map[string]string
	issuedAt  time.Time
	isNew     bool
	dirty     bool
	destroyed bool
}

// NewSessionManager constructs a SessionManager. Session IDs are random,
// not derived, so no signing secret is involved.
func NewSessionManager(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		keyPrefix:  "meridian:sess:",
		ttl:        ttl,
		secure:     secure,
	}
}

// Load resolves the request's session. A missing cookie, an expired record,
// or a record that fails to decode all yield a fresh anonymous session; Load
// never resurrects identity it cannot read.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.fresh(""), nil
		}
		return nil, err
	}

	raw, err := sm.client.Get(ctx, sm.key(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sm.fresh(cookie.Value), nil
		}
		return nil, err
	}

	var record sessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return sm.fresh(cookie.Value), nil
	}

	return &Session{
		ID:       cookie.Value,
		ident:    record.Identity,
		values:   record.Values,
		issuedAt: time.Unix(record.IssuedAt, 0),
	}, nil
}

// Commit writes the session back to Redis and sets the cookie. Unchanged
// sessions only get their TTL slid forward, so active users stay signed in
// without rewriting the record on every request.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := sm.client.Del(ctx, sm.key(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		sm.setCookie(w, "", -1)
		return nil
	}

	switch {
	case sess.dirty || sess.isNew:
		record := sessionRecord{Identity: sess.ident, Values: sess.values, IssuedAt: time.Now().Unix()}
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if err := sm.client.Set(ctx, sm.key(sess.ID), data, sm.ttl).Err(); err != nil {
			return err
		}
		sess.dirty = false
	default:
		// Sliding expiration for read-only requests.
		if err := sm.client.Expire(ctx, sm.key(sess.ID), sm.ttl).Err(); err != nil {
			return err
		}
	}

	if sess.ID != "" {
		sm.setCookie(w, sess.ID, 0)
	}
	return nil
}

// Destroy marks the session for deletion on the next Commit.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

func (sm *SessionManager) setCookie(w http.ResponseWriter, value string, maxAge int) {
	cookie := &http.Cookie{
		Name:     sm.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	}
	if maxAge == 0 {
		cookie.Expires = time.Now().Add(sm.ttl)
	}
	http.SetCookie(w, cookie)
}

func (sm *SessionManager) fresh(id string) *Session {
	if id == "" {
		id = newSessionID()
	}
	return &Session{
		ID:     id,
		values: make(map[string]string),
		isNew:  true,
		dirty:  true,
	}
}

func (sm *SessionManager) key(id string) string {
	return sm.keyPrefix + id
}

func newSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// Set stores a key-value pair on the session.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a stored value, empty when absent.
func (s *Session) Get(key string) string {
	return s.values[key]
}

// Delete removes a stored value.
func (s *Session) Delete(key string) {
	if s.values == nil {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// SetUser binds an authenticated identity to the session.
func (s *Session) SetUser(id, role string) {
	s.ident = identity{UserID: id, Role: role}
	s.dirty = true
}

// ClearUser detaches the identity without discarding the session record.
func (s *Session) ClearUser() {
	s.ident = identity{}
	s.dirty = true
}

// User returns the bound user ID, empty when unauthenticated.
func (s *Session) User() string {
	return s.ident.UserID
}

// UserRole returns the role recorded at login, empty when unauthenticated.
func (s *Session) UserRole() string {
	return s.ident.Role
}
