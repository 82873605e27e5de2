package service

import (
	"encoding/json"
	"fmt"
	"io"
	"keymoji/internal/database"
	"log"
	"os"
	"time"
)

// BackupData represents the complete database backup structure. Only account
// rows are exported: sessions, challenges and drafts are transient state a
// restore should not revive.
type BackupData struct {
	Version      string          `json:"version"`
	ExportedAt   time.Time       `json:"exported_at"`
	DatabaseType string          `json:"database_type"`
	Accounts     []AccountBackup `json:"accounts"`
}

// AccountBackup represents an account record for backup
type AccountBackup struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Round1Emoji   string    `json:"round1_emoji"`
	Round2Emoji   string    `json:"round2_emoji"`
	TrustEmoji    string    `json:"trust_emoji"`
	GridSize      int       `json:"grid_size"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// GetDB returns the database connection for direct queries
func (s *BackupService) GetDB() *database.DB {
	return s.db
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:      "1.0",
		ExportedAt:   time.Now(),
		DatabaseType: "universal",
	}

	if err := s.exportAccounts(backup); err != nil {
		return fmt.Errorf("failed to export accounts: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d accounts", len(backup.Accounts))

	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup reader
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	if err := s.importAccounts(backup.Accounts); err != nil {
		return fmt.Errorf("failed to import accounts: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

// ExportToWriter exports the database to an io.Writer
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup := &BackupData{
		Version:      "1.0",
		ExportedAt:   time.Now(),
		DatabaseType: "universal",
	}

	if err := s.exportAccounts(backup); err != nil {
		return fmt.Errorf("failed to export accounts: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(backup)
}

func (s *BackupService) exportAccounts(backup *BackupData) error {
	query := "SELECT id, username, COALESCE(email, ''), password_hash, round1_emoji, round2_emoji, trust_emoji, grid_size, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), created_at, updated_at FROM accounts ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a AccountBackup
		if err := rows.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Round1Emoji, &a.Round2Emoji, &a.TrustEmoji, &a.GridSize, &a.OAuthProvider, &a.OAuthSubject, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return err
		}
		backup.Accounts = append(backup.Accounts, a)
	}
	return rows.Err()
}

func (s *BackupService) importAccounts(accounts []AccountBackup) error {
	log.Printf("Importing %d accounts...", len(accounts))
	for _, a := range accounts {
		query := "INSERT INTO accounts (id, username, email, password_hash, round1_emoji, round2_emoji, trust_emoji, grid_size, oauth_provider, oauth_subject, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(query, a.ID, a.Username, nullIfEmpty(a.Email), a.PasswordHash, a.Round1Emoji, a.Round2Emoji, a.TrustEmoji, a.GridSize, nullIfEmpty(a.OAuthProvider), nullIfEmpty(a.OAuthSubject), a.CreatedAt, a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import account %d: %w", a.ID, err)
		}
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
