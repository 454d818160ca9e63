package service

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// visitor tokens are 16 random bytes hex encoded: 32 lowercase hex chars.
const visitorTokenLength = 32

// SessionService issues and validates the opaque per-browser visitor token
// used to deduplicate visits into unique visitors. There is no server-side
// session table; the token is the whole identity.
type SessionService struct {
	cookieName string
	cookieTTL  time.Duration
}

// NewSessionService constructs the service.
func NewSessionService(cookieName string, cookieTTL time.Duration) *SessionService {
	if cookieName == "" {
		cookieName = "sp_visitor"
	}
	if cookieTTL <= 0 {
		cookieTTL = 30 * 24 * time.Hour
	}
	return &SessionService{cookieName: cookieName, cookieTTL: cookieTTL}
}

// CookieName returns the cookie carrying the visitor token.
func (s *SessionService) CookieName() string {
	return s.cookieName
}

// CookieTTL returns the lifetime handed to the client when a token is issued.
func (s *SessionService) CookieTTL() time.Duration {
	return s.cookieTTL
}

// EnsureToken returns the presented token when it is syntactically valid, or
// a freshly generated one otherwise. A malformed token is treated the same as
// no token: silently reissue, never error. The second return value reports
// whether the caller must (re)persist the token on the client.
func (s *SessionService) EnsureToken(presented string) (string, bool) {
	if s.ValidToken(presented) {
		return presented, false
	}
	return s.generateToken(), true
}

// ValidToken reports whether a token has the expected shape.
func (s *SessionService) ValidToken(token string) bool {
	if len(token) != visitorTokenLength {
		return false
	}
	for _, c := range token {
		isDigit := c >= '0' && c <= '9'
		isHexLetter := c >= 'a' && c <= 'f'
		if !isDigit && !isHexLetter {
			return false
		}
	}
	return true
}

func (s *SessionService) generateToken() string {
	buf := make([]byte, visitorTokenLength/2)
	// rand.Read only fails when the OS entropy source is broken; hex of a
	// short read would be malformed anyway, so fall through regardless.
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
