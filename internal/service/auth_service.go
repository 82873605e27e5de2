package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"keymoji/internal/models"
	"keymoji/internal/repository"
	"keymoji/internal/security"
	"keymoji/internal/validation"
	"time"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrAccountNotFound    = errors.New("account not found")
	ErrResetTokenInvalid  = errors.New("invalid or expired reset token")
	ErrResetTokenUsed     = errors.New("this reset link has already been used")
	ErrResetTokenExpired  = errors.New("this reset link has expired")
)

// AuthService handles the credential half of authentication: passwords,
// sessions and password resets. Passing the credential check never yields a
// session by itself; the caller must run the emoji challenge first.
type AuthService struct {
	accountRepo     *repository.AccountRepository
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(accountRepo *repository.AccountRepository, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		accountRepo:     accountRepo,
		sessionDuration: sessionDuration,
	}
}

// VerifyCredentials checks a username/password pair and returns the account.
// It never creates a session: the emoji challenge still stands between the
// caller and an authenticated session.
func (s *AuthService) VerifyCredentials(username, password string) (*models.Account, error) {
	account, err := s.accountRepo.GetAccountByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}

	if !security.CheckPassword(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// GetAccountByUsername looks up an account without checking credentials
func (s *AuthService) GetAccountByUsername(username string) (*models.Account, error) {
	account, err := s.accountRepo.GetAccountByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// CreateSession mints a full session for an account that passed both
// challenge rounds
func (s *AuthService) CreateSession(accountID int64) (*models.Session, error) {
	sessionID := security.NewID()
	expiresAt := time.Now().Add(s.sessionDuration)

	session, err := s.accountRepo.CreateSession(sessionID, accountID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// ValidateSession checks if a session is valid and returns the associated account
func (s *AuthService) ValidateSession(sessionID string) (*models.Account, error) {
	session, err := s.accountRepo.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		// Clean up expired session
		_ = s.accountRepo.DeleteSession(sessionID)
		return nil, ErrSessionExpired
	}

	account, err := s.accountRepo.GetAccountByID(session.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, ErrSessionNotFound
	}

	return account, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(sessionID string) error {
	if err := s.accountRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions() error {
	if err := s.accountRepo.DeleteExpiredSessions(); err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return nil
}

// VerifyOAuthIdentity resolves a verified OAuth identity to an account. The
// identity replaces the password check only; the emoji challenge still runs.
// A nil account with a nil error means no account matched, and the caller
// should route the visitor to signup.
func (s *AuthService) VerifyOAuthIdentity(provider, subject, email string) (*models.Account, error) {
	if provider == "" || subject == "" {
		return nil, errors.New("missing oauth provider information")
	}

	account, err := s.accountRepo.GetAccountByOAuth(provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup oauth account: %w", err)
	}
	if account != nil {
		return account, nil
	}

	if email == "" {
		return nil, nil
	}

	// Link by verified email when the provider has not been seen before
	existing, err := s.accountRepo.GetAccountByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing == nil {
		return nil, nil
	}
	if existing.OAuthProvider != "" && existing.OAuthProvider != provider {
		return nil, nil
	}

	if err := s.accountRepo.LinkOAuth(existing.ID, provider, subject); err != nil {
		return nil, fmt.Errorf("failed to link oauth identity: %w", err)
	}
	existing.OAuthProvider = provider
	existing.OAuthSubject = subject

	return existing, nil
}

// RequestPasswordReset creates a password reset token and sends an email
func (s *AuthService) RequestPasswordReset(ctx context.Context, emailService *EmailService, email string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	account, err := s.accountRepo.GetAccountByEmail(email)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}

	// Don't reveal whether the address exists
	if account == nil {
		return nil
	}

	token, err := generateSecureToken(32)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	expiresAt := time.Now().Add(1 * time.Hour)
	if err := s.accountRepo.CreatePasswordResetToken(token, account.ID, expiresAt); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if emailService != nil && emailService.IsEnabled() {
		if err := emailService.SendPasswordResetEmail(ctx, account.Email, account.Username, token); err != nil {
			return fmt.Errorf("failed to send reset email: %w", err)
		}
	}

	return nil
}

// ValidatePasswordResetToken checks if a reset token is valid
func (s *AuthService) ValidatePasswordResetToken(token string) (bool, error) {
	resetToken, err := s.accountRepo.GetPasswordResetToken(token)
	if err != nil {
		return false, fmt.Errorf("failed to get reset token: %w", err)
	}

	if resetToken == nil || resetToken.Used || resetToken.IsExpired() {
		return false, nil
	}

	return true, nil
}

// ResetPassword resets an account's password using a valid token. The emoji
// secrets are untouched: a reset changes only the credential half.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	resetToken, err := s.accountRepo.GetPasswordResetToken(token)
	if err != nil {
		return fmt.Errorf("failed to get reset token: %w", err)
	}

	if resetToken == nil {
		return ErrResetTokenInvalid
	}
	if resetToken.Used {
		return ErrResetTokenUsed
	}
	if resetToken.IsExpired() {
		return ErrResetTokenExpired
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accountRepo.UpdatePassword(resetToken.AccountID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.accountRepo.MarkPasswordResetTokenUsed(token); err != nil {
		return fmt.Errorf("failed to mark token as used: %w", err)
	}

	return nil
}

// CleanupExpiredPasswordResetTokens removes expired reset tokens
func (s *AuthService) CleanupExpiredPasswordResetTokens() error {
	if err := s.accountRepo.DeleteExpiredPasswordResetTokens(); err != nil {
		return fmt.Errorf("failed to cleanup reset tokens: %w", err)
	}
	return nil
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
