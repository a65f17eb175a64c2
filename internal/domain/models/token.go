package models

import (
	"time"

	"github.com/google/uuid"
)

// Token is an opaque bearer credential. Tokens are never deleted, only
// flagged invalid, and an invalid token never becomes valid again.
type Token struct {
	Token      uuid.UUID
	UserID     int64
	CreatedAt  time.Time
	ExpiresAt  time.Time
	LastUsedAt time.Time
	IsValid    bool
}

// Expired reports whether the token is past its expiry at now.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
