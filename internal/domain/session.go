package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server-side half of a sign-in: the token itself is never
// stored, only its keyed hash.
type Session struct {
	ID         uuid.UUID `db:"id"`
	UserID     uuid.UUID `db:"user_id"`
	TokenHash  string    `db:"token_hash"`
	DeviceInfo *string   `db:"device_info"`
	IPAddress  *string   `db:"ip_address"`
	ExpiresAt  time.Time `db:"expires_at"`
	CreatedAt  time.Time `db:"created_at"`
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Identity is what an external identity provider vouches for.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}
