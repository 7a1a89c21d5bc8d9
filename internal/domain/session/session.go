package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/GriffinCanCode/filemanager/internal/shared/id"
)

const tokenBytes = 32

// Session is the server-side state behind a session cookie.
type Session struct {
	ID            id.SessionID
	Token         string
	Authenticated bool
	AccountName   string
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// Expired reports whether the session is past its lifetime at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store holds sessions keyed by token.
type Store interface {
	// Create issues a fresh authenticated session for account.
	Create(ctx context.Context, account string) (*Session, error)
	// Get returns a live session; expired or unknown tokens report false.
	Get(ctx context.Context, token string) (*Session, bool)
	// Delete destroys the session if present.
	Delete(ctx context.Context, token string)
	// Count returns the number of live sessions.
	Count() int
}

// NewToken returns a URL-safe random token.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
