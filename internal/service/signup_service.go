package service

import (
	"fmt"
	"keymoji/internal/emoji"
	"keymoji/internal/models"
	"keymoji/internal/repository"
	"keymoji/internal/security"
	"keymoji/internal/validation"
	"strings"
	"time"
)

// SignupService drives the two-step registration flow: a draft row holds the
// hashed credential while the user reviews their emoji assignment, and the
// account row is written only on confirmation.
type SignupService struct {
	accountRepo   *repository.AccountRepository
	draftRepo     *repository.DraftRepository
	pools         *emoji.Pools
	draftDuration time.Duration
}

// NewSignupService creates a new signup service
func NewSignupService(accountRepo *repository.AccountRepository, draftRepo *repository.DraftRepository, pools *emoji.Pools, draftDuration time.Duration) *SignupService {
	return &SignupService{
		accountRepo:   accountRepo,
		draftRepo:     draftRepo,
		pools:         pools,
		draftDuration: draftDuration,
	}
}

// Start validates the signup form and opens a draft. No account row exists
// until Confirm.
func (s *SignupService) Start(username, password, email string, gridSize int) (*models.SignupDraft, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return nil, err
		}
	}
	if err := validation.ValidateGridSize(gridSize); err != nil {
		return nil, err
	}

	existing, err := s.accountRepo.GetAccountByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	draft := &models.SignupDraft{
		ID:           security.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		GridSize:     gridSize,
		ExpiresAt:    time.Now().Add(s.draftDuration),
	}
	if err := s.draftRepo.CreateDraft(draft); err != nil {
		return nil, err
	}

	return draft, nil
}

// StartOAuth opens a draft for a visitor arriving through an OAuth provider.
// The draft carries no usable password: a random credential is hashed so the
// account can only be entered through the provider.
func (s *SignupService) StartOAuth(provider, subject, email string, gridSize int) (*models.SignupDraft, error) {
	if provider == "" || subject == "" {
		return nil, fmt.Errorf("missing oauth provider information")
	}
	if err := validation.ValidateGridSize(gridSize); err != nil {
		return nil, err
	}

	username := strings.Split(email, "@")[0]
	if validation.ValidateUsername(username) != nil || s.usernameTaken(username) {
		username = "user-" + security.NewID()[:8]
	}

	passwordHash, err := security.HashPassword(security.NewID())
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	draft := &models.SignupDraft{
		ID:            security.NewID(),
		Username:      username,
		Email:         email,
		PasswordHash:  passwordHash,
		GridSize:      gridSize,
		OAuthProvider: provider,
		OAuthSubject:  subject,
		ExpiresAt:     time.Now().Add(s.draftDuration),
	}
	if err := s.draftRepo.CreateDraft(draft); err != nil {
		return nil, err
	}

	return draft, nil
}

func (s *SignupService) usernameTaken(username string) bool {
	existing, err := s.accountRepo.GetAccountByUsername(username)
	return err != nil || existing != nil
}

// GetDraft loads a live draft, treating expired drafts as gone
func (s *SignupService) GetDraft(draftID string) (*models.SignupDraft, error) {
	draft, err := s.draftRepo.GetDraft(draftID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, nil
	}
	if draft.IsExpired() {
		_ = s.draftRepo.DeleteDraft(draftID)
		return nil, nil
	}
	return draft, nil
}

// Assignment draws the three emoji secrets for a draft. The draw happens
// once: reloading the confirmation page returns the same assignment.
func (s *SignupService) Assignment(draft *models.SignupDraft) (*models.SignupDraft, error) {
	if draft.HasAssignment() {
		return draft, nil
	}

	assigned, err := s.pools.Assign()
	if err != nil {
		return nil, fmt.Errorf("failed to assign emojis: %w", err)
	}
	practiceOffset := emoji.RollOffset()

	if err := s.draftRepo.SaveAssignment(draft.ID, assigned.Round1Key, assigned.Round2Key, assigned.Trust, practiceOffset); err != nil {
		return nil, err
	}

	draft.Round1Emoji = assigned.Round1Key
	draft.Round2Emoji = assigned.Round2Key
	draft.TrustEmoji = assigned.Trust
	draft.PracticeOffset = practiceOffset
	return draft, nil
}

// Confirm promotes a draft with a drawn assignment into an account. The
// insert and draft deletion commit together, and a username claimed since
// the draft opened surfaces as ErrUsernameTaken.
func (s *SignupService) Confirm(draft *models.SignupDraft) (*models.Account, error) {
	if !draft.HasAssignment() {
		return nil, fmt.Errorf("draft %s has no emoji assignment", draft.ID)
	}

	existing, err := s.accountRepo.GetAccountByUsername(draft.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	account := &models.Account{
		Username:      draft.Username,
		Email:         draft.Email,
		PasswordHash:  draft.PasswordHash,
		Round1Emoji:   draft.Round1Emoji,
		Round2Emoji:   draft.Round2Emoji,
		TrustEmoji:    draft.TrustEmoji,
		GridSize:      draft.GridSize,
		OAuthProvider: draft.OAuthProvider,
		OAuthSubject:  draft.OAuthSubject,
	}

	tx, err := s.accountRepo.BeginTx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := s.accountRepo.CreateAccountTx(tx, account)
	if err != nil {
		return nil, ErrUsernameTaken
	}
	if err := s.draftRepo.DeleteDraftTx(tx, draft.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit signup: %w", err)
	}

	account.ID = id
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()
	return account, nil
}

// CleanupExpiredDrafts removes abandoned signup drafts
func (s *SignupService) CleanupExpiredDrafts() error {
	if err := s.draftRepo.DeleteExpiredDrafts(); err != nil {
		return fmt.Errorf("failed to cleanup signup drafts: %w", err)
	}
	return nil
}
