package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	CookieName = "gfy.sid"
	DefaultTTL = 7 * 24 * time.Hour
)

type Options struct {
	Secret string
	TTL    time.Duration
	// Secure sets the cookie's Secure attribute; on in production.
	Secure bool
}

// Manager issues and reads the session cookie. The cookie value is an HS256
// token whose only claim of interest is the session id (jti).
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(store Store, opts Options) *Manager {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:  store,
		secret: []byte(opts.Secret),
		ttl:    ttl,
		secure: opts.Secure,
		now:    time.Now,
	}
}

// Start stores cred under a fresh session id and sets the cookie. A session
// the request already had is destroyed first.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request, cred *Credential) error {
	if old, err := m.sessionID(r); err == nil {
		_ = m.store.Destroy(r.Context(), old)
	}

	id := uuid.NewString()
	if err := m.store.Save(r.Context(), id, cred); err != nil {
		return err
	}
	return m.setCookie(w, id)
}

// Load returns the credential for the request's session and slides its
// expiry forward. It returns ErrNoSession if there is none.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Credential, error) {
	id, err := m.sessionID(r)
	if err != nil {
		return nil, ErrNoSession
	}
	cred, err := m.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			m.clearCookie(w)
		}
		return nil, err
	}
	if err := m.setCookie(w, id); err != nil {
		return nil, err
	}
	return cred, nil
}

// Save replaces the credential of the request's existing session.
func (m *Manager) Save(r *http.Request, cred *Credential) error {
	id, err := m.sessionID(r)
	if err != nil {
		return ErrNoSession
	}
	return m.store.Save(r.Context(), id, cred)
}

// Destroy removes the session's credential and expires the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	defer m.clearCookie(w)
	id, err := m.sessionID(r)
	if err != nil {
		return nil
	}
	return m.store.Destroy(r.Context(), id)
}

func (m *Manager) sessionID(r *http.Request) (string, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", ErrNoSession
	}
	return m.parse(c.Value)
}

func (m *Manager) sign(id string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) parse(value string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if claims.ID == "" {
		return "", ErrNoSession
	}
	return claims.ID, nil
}

func (m *Manager) setCookie(w http.ResponseWriter, id string) error {
	value, err := m.sign(id)
	if err != nil {
		return fmt.Errorf("sign session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		MaxAge:   int(m.ttl.Seconds()),
		Path:     "/",
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
