package repository

import (
	"database/sql"
	"fmt"
	"keymoji/internal/database"
	"keymoji/internal/models"
	"time"
)

// AccountRepository handles database operations for accounts, sessions and
// password reset tokens
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// BeginTx starts a transaction on the underlying database
func (r *AccountRepository) BeginTx() (*database.Tx, error) {
	return r.db.Begin()
}

const accountColumns = `id, username, COALESCE(email, ''), password_hash, round1_emoji, round2_emoji, trust_emoji, grid_size, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), created_at, updated_at`

func scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Round1Emoji,
		&account.Round2Emoji,
		&account.TrustEmoji,
		&account.GridSize,
		&account.OAuthProvider,
		&account.OAuthSubject,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// CreateAccount inserts a new account into the database
func (r *AccountRepository) CreateAccount(account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (username, email, password_hash, round1_emoji, round2_emoji, trust_emoji, grid_size, oauth_provider, oauth_subject)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Round1Emoji,
		account.Round2Emoji,
		account.TrustEmoji,
		account.GridSize,
		account.OAuthProvider,
		account.OAuthSubject,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	created := *account
	created.ID = id
	created.CreatedAt = time.Now()
	created.UpdatedAt = time.Now()
	return &created, nil
}

// CreateAccountTx inserts a new account inside an existing transaction
func (r *AccountRepository) CreateAccountTx(tx *database.Tx, account *models.Account) (int64, error) {
	query := `
		INSERT INTO accounts (username, email, password_hash, round1_emoji, round2_emoji, trust_emoji, grid_size, oauth_provider, oauth_subject)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := tx.ExecReturningID(query,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Round1Emoji,
		account.Round2Emoji,
		account.TrustEmoji,
		account.GridSize,
		account.OAuthProvider,
		account.OAuthSubject,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create account: %w", err)
	}
	return id, nil
}

// GetAccountByUsername retrieves an account by username
func (r *AccountRepository) GetAccountByUsername(username string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE username = ?`, accountColumns)
	return scanAccount(r.db.QueryRow(query, username))
}

// GetAccountByID retrieves an account by ID
func (r *AccountRepository) GetAccountByID(id int64) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = ?`, accountColumns)
	return scanAccount(r.db.QueryRow(query, id))
}

// GetAccountByEmail retrieves an account by email address
func (r *AccountRepository) GetAccountByEmail(email string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE email = ?`, accountColumns)
	return scanAccount(r.db.QueryRow(query, email))
}

// GetAccountByOAuth retrieves an account by OAuth provider and subject
func (r *AccountRepository) GetAccountByOAuth(provider, subject string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE oauth_provider = ? AND oauth_subject = ?`, accountColumns)
	return scanAccount(r.db.QueryRow(query, provider, subject))
}

// GetAllAccounts retrieves all accounts
func (r *AccountRepository) GetAllAccounts() ([]models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts ORDER BY created_at DESC`, accountColumns)
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(
			&account.ID,
			&account.Username,
			&account.Email,
			&account.PasswordHash,
			&account.Round1Emoji,
			&account.Round2Emoji,
			&account.TrustEmoji,
			&account.GridSize,
			&account.OAuthProvider,
			&account.OAuthSubject,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// UpdatePassword replaces an account's password hash
func (r *AccountRepository) UpdatePassword(id int64, passwordHash string) error {
	query := `
		UPDATE accounts
		SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// LinkOAuth attaches an OAuth identity to an existing account
func (r *AccountRepository) LinkOAuth(id int64, provider, subject string) error {
	query := `
		UPDATE accounts
		SET oauth_provider = ?, oauth_subject = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, provider, subject, id)
	if err != nil {
		return fmt.Errorf("failed to link oauth identity: %w", err)
	}
	return nil
}

// DeleteAccount deletes an account and all associated data
func (r *AccountRepository) DeleteAccount(id int64) error {
	query := "DELETE FROM accounts WHERE id = ?"
	_, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// CreateSession creates a new session for an account
func (r *AccountRepository) CreateSession(sessionID string, accountID int64, expiresAt time.Time) (*models.Session, error) {
	query := `
		INSERT INTO sessions (id, account_id, expires_at)
		VALUES (?, ?, ?)
	`
	_, err := r.db.Exec(query, sessionID, accountID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	session := &models.Session{
		ID:        sessionID,
		AccountID: accountID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	return session, nil
}

// GetSession retrieves a session by ID
func (r *AccountRepository) GetSession(sessionID string) (*models.Session, error) {
	query := `
		SELECT id, account_id, expires_at, created_at
		FROM sessions
		WHERE id = ?
	`
	session := &models.Session{}
	err := r.db.QueryRow(query, sessionID).Scan(
		&session.ID,
		&session.AccountID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// DeleteSession removes a session from the database
func (r *AccountRepository) DeleteSession(sessionID string) error {
	query := "DELETE FROM sessions WHERE id = ?"
	_, err := r.db.Exec(query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions
func (r *AccountRepository) DeleteExpiredSessions() error {
	query := "DELETE FROM sessions WHERE expires_at < ?"
	_, err := r.db.Exec(query, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}

// CreatePasswordResetToken stores a new password reset token
func (r *AccountRepository) CreatePasswordResetToken(token string, accountID int64, expiresAt time.Time) error {
	query := `
		INSERT INTO password_reset_tokens (token, account_id, expires_at)
		VALUES (?, ?, ?)
	`
	_, err := r.db.Exec(query, token, accountID, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to create password reset token: %w", err)
	}
	return nil
}

// GetPasswordResetToken retrieves an unused reset token
func (r *AccountRepository) GetPasswordResetToken(token string) (*models.PasswordResetToken, error) {
	query := `
		SELECT token, account_id, expires_at, created_at, used
		FROM password_reset_tokens
		WHERE token = ? AND used = ?
	`
	reset := &models.PasswordResetToken{}
	err := r.db.QueryRow(query, token, false).Scan(
		&reset.Token,
		&reset.AccountID,
		&reset.ExpiresAt,
		&reset.CreatedAt,
		&reset.Used,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get password reset token: %w", err)
	}

	return reset, nil
}

// MarkPasswordResetTokenUsed flags a reset token so it cannot be replayed
func (r *AccountRepository) MarkPasswordResetTokenUsed(token string) error {
	query := "UPDATE password_reset_tokens SET used = ? WHERE token = ?"
	_, err := r.db.Exec(query, true, token)
	if err != nil {
		return fmt.Errorf("failed to mark password reset token used: %w", err)
	}
	return nil
}

// DeleteExpiredPasswordResetTokens removes expired and used reset tokens
func (r *AccountRepository) DeleteExpiredPasswordResetTokens() error {
	query := "DELETE FROM password_reset_tokens WHERE expires_at < ? OR used = ?"
	_, err := r.db.Exec(query, time.Now(), true)
	if err != nil {
		return fmt.Errorf("failed to delete expired password reset tokens: %w", err)
	}
	return nil
}
