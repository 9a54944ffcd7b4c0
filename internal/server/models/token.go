package models

import "time"

// Token kinds. A token row never stores the raw secret, only its SHA-256
// lookup hash.
const (
	TokenKindAccess      = "access"
	TokenKindRefresh     = "refresh"
	TokenKindEmailVerify = "email_verify"
	TokenKindReset       = "reset"
)

// Token is a persisted opaque-token row. A token is valid iff Revoked is
// false, the current time is before ExpiresAt and the lookup hash matches.
// Revocation is monotonic: once revoked, a token never becomes valid again.
type Token struct {
	ID        int64
	UserID    string
	TokenHash string
	Kind      string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}
