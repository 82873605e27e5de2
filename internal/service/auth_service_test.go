package service

import (
	"testing"
	"time"

	"keymoji/internal/repository"
)

func TestVerifyCredentials(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	account := newTestAccount(t, db)
	svc := NewAuthService(repository.NewAccountRepository(db), 24*time.Hour)

	got, err := svc.VerifyCredentials("alice", "correct horse battery")
	if err != nil {
		t.Fatalf("VerifyCredentials failed: %v", err)
	}
	if got.ID != account.ID {
		t.Errorf("expected account %d, got %d", account.ID, got.ID)
	}

	if _, err := svc.VerifyCredentials("alice", "wrong"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.VerifyCredentials("nobody", "whatever"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	account := newTestAccount(t, db)
	svc := NewAuthService(repository.NewAccountRepository(db), 24*time.Hour)

	session, err := svc.CreateSession(account.ID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := svc.ValidateSession(session.ID)
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if got.Username != account.Username {
		t.Errorf("expected username %q, got %q", account.Username, got.Username)
	}

	if err := svc.Logout(session.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.ValidateSession(session.ID); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound after logout, got %v", err)
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	account := newTestAccount(t, db)
	svc := NewAuthService(repository.NewAccountRepository(db), -1*time.Hour)

	session, err := svc.CreateSession(account.ID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if _, err := svc.ValidateSession(session.ID); err != ErrSessionExpired {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
}

func TestResetPasswordKeepsEmojiSecrets(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	account := newTestAccount(t, db)
	repo := repository.NewAccountRepository(db)
	svc := NewAuthService(repo, 24*time.Hour)

	// Plant a reset token directly; email delivery is out of scope here
	token := "reset-token-abc"
	if err := repo.CreatePasswordResetToken(token, account.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("failed to create reset token: %v", err)
	}

	if err := svc.ResetPassword(token, "brand-new-password"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if _, err := svc.VerifyCredentials("alice", "brand-new-password"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
	if _, err := svc.VerifyCredentials("alice", "correct horse battery"); err != ErrInvalidCredentials {
		t.Errorf("old password still accepted: %v", err)
	}

	updated, err := repo.GetAccountByUsername("alice")
	if err != nil {
		t.Fatalf("failed to reload account: %v", err)
	}
	if updated.Round1Emoji != account.Round1Emoji || updated.Round2Emoji != account.Round2Emoji || updated.TrustEmoji != account.TrustEmoji {
		t.Error("password reset must not change the emoji secrets")
	}

	// Tokens are single use
	if err := svc.ResetPassword(token, "another-password"); err == nil {
		t.Error("expected reused token to be rejected")
	}
}
