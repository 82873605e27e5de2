package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"keymoji/internal/challenge"
	"keymoji/internal/database"
	"keymoji/internal/models"
	"time"
)

// ChallengeRepository persists pending login challenges. The round state is
// serialized as JSON so the row survives server restarts mid-challenge.
type ChallengeRepository struct {
	db *database.DB
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db *database.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// CreateChallenge inserts a new pending challenge
func (r *ChallengeRepository) CreateChallenge(id, username string, state *challenge.Session, expiresAt time.Time) (*models.Challenge, error) {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal challenge state: %w", err)
	}

	query := `
		INSERT INTO challenges (id, username, state_json, expires_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, id, username, string(stateJSON), expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	return &models.Challenge{
		ID:        id,
		Username:  username,
		State:     state,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// GetChallenge retrieves a challenge by ID
func (r *ChallengeRepository) GetChallenge(id string) (*models.Challenge, error) {
	query := `
		SELECT id, username, state_json, expires_at, created_at
		FROM challenges
		WHERE id = ?
	`
	ch := &models.Challenge{}
	var stateJSON string
	err := r.db.QueryRow(query, id).Scan(
		&ch.ID,
		&ch.Username,
		&stateJSON,
		&ch.ExpiresAt,
		&ch.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	state := &challenge.Session{}
	if err := json.Unmarshal([]byte(stateJSON), state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge state: %w", err)
	}
	ch.State = state

	return ch, nil
}

// SaveChallengeState writes the current round state back to the row
func (r *ChallengeRepository) SaveChallengeState(id string, state *challenge.Session) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge state: %w", err)
	}

	query := "UPDATE challenges SET state_json = ? WHERE id = ?"
	if _, err := r.db.Exec(query, string(stateJSON), id); err != nil {
		return fmt.Errorf("failed to save challenge state: %w", err)
	}
	return nil
}

// DeleteChallenge removes a challenge once resolved
func (r *ChallengeRepository) DeleteChallenge(id string) error {
	query := "DELETE FROM challenges WHERE id = ?"
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return nil
}

// DeleteChallengesForUsername removes all pending challenges for a user
func (r *ChallengeRepository) DeleteChallengesForUsername(username string) error {
	query := "DELETE FROM challenges WHERE username = ?"
	if _, err := r.db.Exec(query, username); err != nil {
		return fmt.Errorf("failed to delete challenges for user: %w", err)
	}
	return nil
}

// DeleteExpiredChallenges removes all expired challenges
func (r *ChallengeRepository) DeleteExpiredChallenges() error {
	query := "DELETE FROM challenges WHERE expires_at < ?"
	if _, err := r.db.Exec(query, time.Now()); err != nil {
		return fmt.Errorf("failed to delete expired challenges: %w", err)
	}
	return nil
}
