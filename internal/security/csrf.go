package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CSRFGenerator generates and validates CSRF tokens using HMAC-SHA256.
// Tokens are derived deterministically from the flow identifier (session ID,
// challenge ID or signup-draft ID) and a secret key, so no shared state is
// required across replicas.
type CSRFGenerator struct {
	secret []byte
}

// NewCSRFGenerator creates a new stateless HMAC-based CSRF generator.
func NewCSRFGenerator(secret string) *CSRFGenerator {
	return &CSRFGenerator{secret: []byte(secret)}
}

// GenerateToken returns the CSRF token for the given flow identifier.
func (g *CSRFGenerator) GenerateToken(flowID string) (string, error) {
	if flowID == "" {
		return "", fmt.Errorf("flow ID is required")
	}
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(flowID))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// ValidateToken reports whether token is the valid CSRF token for flowID.
func (g *CSRFGenerator) ValidateToken(flowID, token string) bool {
	if flowID == "" || token == "" {
		return false
	}
	expected, err := g.GenerateToken(flowID)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(token))
}
