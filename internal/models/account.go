package models

import "time"

// Account represents a registered user. The three emoji secrets are pairwise
// distinct and drawn from the combined challenge pool at signup; TrustEmoji
// is stored but never read by the verification flow.
type Account struct {
	ID            int64
	Username      string
	Email         string
	PasswordHash  string
	Round1Emoji   string
	Round2Emoji   string
	TrustEmoji    string
	GridSize      int
	OAuthProvider string
	OAuthSubject  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session represents a fully authenticated session, created only after both
// challenge rounds were passed.
type Session struct {
	ID        string
	AccountID int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// PasswordResetToken represents a token for password reset.
type PasswordResetToken struct {
	Token     string
	AccountID int64
	ExpiresAt time.Time
	CreatedAt time.Time
	Used      bool
}

// IsExpired checks if the reset token has expired.
func (t *PasswordResetToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
