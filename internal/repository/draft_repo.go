package repository

import (
	"database/sql"
	"fmt"
	"keymoji/internal/database"
	"keymoji/internal/models"
	"time"
)

// DraftRepository persists signup drafts until the user confirms their
// emoji assignment, at which point the draft is promoted to an account.
type DraftRepository struct {
	db *database.DB
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(db *database.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

const draftColumns = `id, username, COALESCE(email, ''), password_hash, grid_size, round1_emoji, round2_emoji, trust_emoji, practice_offset, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), expires_at, created_at`

// CreateDraft inserts a new signup draft
func (r *DraftRepository) CreateDraft(draft *models.SignupDraft) error {
	query := `
		INSERT INTO signup_drafts (id, username, email, password_hash, grid_size, round1_emoji, round2_emoji, trust_emoji, practice_offset, oauth_provider, oauth_subject, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		draft.ID,
		draft.Username,
		draft.Email,
		draft.PasswordHash,
		draft.GridSize,
		draft.Round1Emoji,
		draft.Round2Emoji,
		draft.TrustEmoji,
		draft.PracticeOffset,
		draft.OAuthProvider,
		draft.OAuthSubject,
		draft.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create signup draft: %w", err)
	}
	return nil
}

// GetDraft retrieves a signup draft by ID
func (r *DraftRepository) GetDraft(id string) (*models.SignupDraft, error) {
	query := fmt.Sprintf(`SELECT %s FROM signup_drafts WHERE id = ?`, draftColumns)
	draft := &models.SignupDraft{}
	err := r.db.QueryRow(query, id).Scan(
		&draft.ID,
		&draft.Username,
		&draft.Email,
		&draft.PasswordHash,
		&draft.GridSize,
		&draft.Round1Emoji,
		&draft.Round2Emoji,
		&draft.TrustEmoji,
		&draft.PracticeOffset,
		&draft.OAuthProvider,
		&draft.OAuthSubject,
		&draft.ExpiresAt,
		&draft.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signup draft: %w", err)
	}

	return draft, nil
}

// SaveAssignment records the drawn emoji secrets and practice offset
func (r *DraftRepository) SaveAssignment(id, round1, round2, trust string, practiceOffset int) error {
	query := `
		UPDATE signup_drafts
		SET round1_emoji = ?, round2_emoji = ?, trust_emoji = ?, practice_offset = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, round1, round2, trust, practiceOffset, id)
	if err != nil {
		return fmt.Errorf("failed to save emoji assignment: %w", err)
	}
	return nil
}

// DeleteDraft removes a signup draft
func (r *DraftRepository) DeleteDraft(id string) error {
	query := "DELETE FROM signup_drafts WHERE id = ?"
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete signup draft: %w", err)
	}
	return nil
}

// DeleteDraftTx removes a signup draft inside an existing transaction
func (r *DraftRepository) DeleteDraftTx(tx *database.Tx, id string) error {
	query := "DELETE FROM signup_drafts WHERE id = ?"
	if _, err := tx.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete signup draft: %w", err)
	}
	return nil
}

// DeleteExpiredDrafts removes all expired signup drafts
func (r *DraftRepository) DeleteExpiredDrafts() error {
	query := "DELETE FROM signup_drafts WHERE expires_at < ?"
	if _, err := r.db.Exec(query, time.Now()); err != nil {
		return fmt.Errorf("failed to delete expired signup drafts: %w", err)
	}
	return nil
}
