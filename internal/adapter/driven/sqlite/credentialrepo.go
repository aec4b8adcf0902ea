package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/keyvault/internal/domain/model"
	"github.com/ericfisherdev/keyvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// Passwords are stored as plaintext; the database never leaves memory.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Lookup returns the credential for address or driven.ErrCredentialNotFound.
func (r *CredentialRepo) Lookup(ctx context.Context, address string) (model.Credential, error) {
	const query = `SELECT address, username, password, updated_at FROM credentials WHERE address = ?`

	var cred model.Credential
	var updatedAt string
	err := r.db.Reader.QueryRowContext(ctx, query, address).Scan(&cred.Address, &cred.Username, &cred.Password, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Credential{}, fmt.Errorf("lookup %q: %w", address, driven.ErrCredentialNotFound)
	}
	if err != nil {
		return model.Credential{}, fmt.Errorf("lookup %q: %w", address, err)
	}

	cred.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return model.Credential{}, fmt.Errorf("parse updated_at for %q: %w", address, err)
	}
	return cred, nil
}

// Add stores or replaces the credential for cred.Address.
func (r *CredentialRepo) Add(ctx context.Context, cred model.Credential) error {
	if err := model.ValidateAddress(cred.Address); err != nil {
		return err
	}

	updatedAt := cred.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	const query = `INSERT OR REPLACE INTO credentials (address, username, password, updated_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.Writer.ExecContext(ctx, query, cred.Address, cred.Username, cred.Password, updatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("add credential %q: %w", cred.Address, err)
	}
	return nil
}

// Delete removes the credential for address.
func (r *CredentialRepo) Delete(ctx context.Context, address string) error {
	const query = `DELETE FROM credentials WHERE address = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, address)
	if err != nil {
		return fmt.Errorf("delete credential %q: %w", address, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete credential %q: rows affected: %w", address, err)
	}
	if rows == 0 {
		return fmt.Errorf("delete credential %q: %w", address, driven.ErrCredentialNotFound)
	}
	return nil
}

// List returns all stored credentials ordered by address.
func (r *CredentialRepo) List(ctx context.Context) ([]model.Credential, error) {
	const query = `SELECT address, username, password, updated_at FROM credentials ORDER BY address`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	creds := []model.Credential{}
	for rows.Next() {
		var cred model.Credential
		var updatedAt string
		if err := rows.Scan(&cred.Address, &cred.Username, &cred.Password, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}

		cred.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at for %q: %w", cred.Address, err)
		}

		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return creds, nil
}

// parseTime parses timestamps written by this package or by SQLite defaults.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
