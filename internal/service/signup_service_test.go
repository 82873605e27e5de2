package service

import (
	"testing"
	"time"

	"keymoji/internal/database"
	"keymoji/internal/emoji"
	"keymoji/internal/repository"
)

func newTestSignupService(db *database.DB) *SignupService {
	accountRepo := repository.NewAccountRepository(db)
	draftRepo := repository.NewDraftRepository(db)
	return NewSignupService(accountRepo, draftRepo, emoji.DefaultPools(), 30*time.Minute)
}

func TestSignupFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	svc := newTestSignupService(db)

	draft, err := svc.Start("bob", "hunter2hunter2", "bob@example.com", 4)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if draft.HasAssignment() {
		t.Fatal("fresh draft should have no emoji assignment")
	}

	// Drawing the secrets happens once; a reload repeats the same assignment
	assigned, err := svc.Assignment(draft)
	if err != nil {
		t.Fatalf("Assignment failed: %v", err)
	}
	if !assigned.HasAssignment() {
		t.Fatal("expected an assignment after drawing")
	}

	reloaded, err := svc.GetDraft(draft.ID)
	if err != nil {
		t.Fatalf("GetDraft failed: %v", err)
	}
	again, err := svc.Assignment(reloaded)
	if err != nil {
		t.Fatalf("second Assignment failed: %v", err)
	}
	if again.Round1Emoji != assigned.Round1Emoji || again.Round2Emoji != assigned.Round2Emoji || again.TrustEmoji != assigned.TrustEmoji {
		t.Error("assignment changed across reloads")
	}

	// No account row exists before confirmation
	accountRepo := repository.NewAccountRepository(db)
	if account, _ := accountRepo.GetAccountByUsername("bob"); account != nil {
		t.Fatal("account should not exist before Confirm")
	}

	account, err := svc.Confirm(again)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if account.Round1Emoji != assigned.Round1Emoji {
		t.Errorf("expected round 1 key %q, got %q", assigned.Round1Emoji, account.Round1Emoji)
	}

	// Draft is consumed
	if d, _ := svc.GetDraft(draft.ID); d != nil {
		t.Error("draft should be deleted after Confirm")
	}

	// Username is now taken
	if _, err := svc.Start("bob", "hunter2hunter2", "", 4); err != ErrUsernameTaken {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestSignupStartRejectsBadInput(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	svc := newTestSignupService(db)

	tests := []struct {
		name     string
		username string
		password string
		email    string
		gridSize int
	}{
		{"short password", "carol", "short", "", 4},
		{"bad username", "c!", "hunter2hunter2", "", 4},
		{"bad email", "carol", "hunter2hunter2", "not-an-email", 4},
		{"grid too small", "carol", "hunter2hunter2", "", 1},
		{"grid too large", "carol", "hunter2hunter2", "", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Start(tt.username, tt.password, tt.email, tt.gridSize); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestConfirmRequiresAssignment(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	svc := newTestSignupService(db)

	draft, err := svc.Start("dave", "hunter2hunter2", "", 3)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := svc.Confirm(draft); err == nil {
		t.Error("expected Confirm to fail without an assignment")
	}
}
