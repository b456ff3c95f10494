// Package session binds Discord credentials to a browser session. Only a
// signed session id travels in the cookie; the credential stays server-side.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNoSession means the request carries no usable session.
var ErrNoSession = errors.New("no session")

// Token is the OAuth token bundle returned by the code exchange.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope"`
	Expiry       time.Time `json:"expiry"`
	RefreshToken string    `json:"refresh_token"`
}

// Credential is what a logged-in session holds. Identity and Guilds are the
// upstream records, kept opaque.
type Credential struct {
	Identity json.RawMessage   `json:"identity,omitempty"`
	Guilds   []json.RawMessage `json:"guilds"`
	Token    Token             `json:"token"`
}

// HasProfile reports whether identity and guilds were cached at login. An
// empty guild list is a cached profile; only a nil one is missing.
func (c *Credential) HasProfile() bool {
	return len(c.Identity) > 0 && c.Guilds != nil
}

// Store keeps credentials by session id with a sliding TTL.
type Store interface {
	// Load returns ErrNoSession when id is unknown or expired. A successful
	// load renews the TTL.
	Load(ctx context.Context, id string) (*Credential, error)
	// Save replaces any credential stored under id.
	Save(ctx context.Context, id string, cred *Credential) error
	Destroy(ctx context.Context, id string) error
}
