package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidTicket covers expired, tampered or otherwise unusable challenge
// tickets. Holders are sent back to the login form.
var ErrInvalidTicket = errors.New("invalid challenge ticket")

// TicketIssuer signs and verifies the short-lived challenge tickets handed
// out after a successful password check. The ticket binds the browser to one
// server-side challenge (the JWT ID) and one username (the subject); the
// grid state itself never leaves the server.
type TicketIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTicketIssuer creates a ticket issuer with the given signing secret and
// ticket lifetime.
func NewTicketIssuer(secret string, ttl time.Duration) *TicketIssuer {
	return &TicketIssuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the ticket lifetime.
func (i *TicketIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a signed ticket for a challenge ID and username.
func (i *TicketIssuer) Issue(challengeID, username string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        challengeID,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign challenge ticket: %w", err)
	}
	return signed, nil
}

// Verify parses a ticket and returns its challenge ID and username.
func (i *TicketIssuer) Verify(ticket string) (challengeID, username string, err error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(ticket, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	if err != nil || !token.Valid {
		return "", "", ErrInvalidTicket
	}
	if claims.ID == "" || claims.Subject == "" {
		return "", "", ErrInvalidTicket
	}
	return claims.ID, claims.Subject, nil
}
