package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// Credential services.
const (
	ServiceLedger = "ledger"
	ServiceGitHub = "github"
)

// CredentialRepo stores service tokens encrypted at rest.
type CredentialRepo struct {
	db     *DB
	sealer *sealer // nil when no key is configured.
}

// NewCredentialRepo creates a CredentialRepo. key must be 32 bytes, or nil to
// disable the store; every operation then returns driven.ErrEncryptionKeyNotSet.
func NewCredentialRepo(db *DB, key []byte) (*CredentialRepo, error) {
	repo := &CredentialRepo{db: db}
	if key == nil {
		return repo, nil
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("credential key must be 32 bytes, got %d", len(key))
	}

	s, err := newSealer(key)
	if err != nil {
		return nil, err
	}
	repo.sealer = s
	return repo, nil
}

// Set stores or replaces the credential for service.
func (r *CredentialRepo) Set(ctx context.Context, service, plaintext string) error {
	if r.sealer == nil {
		return driven.ErrEncryptionKeyNotSet
	}

	sealed, err := r.sealer.seal(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt credential %q: %w", service, err)
	}

	const query = `
		INSERT INTO credentials (service, value) VALUES (?, ?)
		ON CONFLICT(service) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
	if _, err := r.db.Writer.ExecContext(ctx, query, service, sealed); err != nil {
		return fmt.Errorf("set credential %q: %w", service, err)
	}
	return nil
}

// Get returns the plaintext credential for service, or "" if none is stored.
func (r *CredentialRepo) Get(ctx context.Context, service string) (string, error) {
	if r.sealer == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	var sealed string
	err := r.db.Reader.QueryRowContext(ctx, `SELECT value FROM credentials WHERE service = ?`, service).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get credential %q: %w", service, err)
	}

	plaintext, err := r.sealer.open(sealed)
	if err != nil {
		return "", fmt.Errorf("decrypt credential %q: %w", service, err)
	}
	return plaintext, nil
}

// List returns all credentials with decrypted values, ordered by service.
func (r *CredentialRepo) List(ctx context.Context) ([]model.Credential, error) {
	if r.sealer == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	rows, err := r.db.Reader.QueryContext(ctx, `SELECT id, service, value, updated_at FROM credentials ORDER BY service`)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []model.Credential
	for rows.Next() {
		cred, err := r.scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return creds, nil
}

// Delete removes the credential for service.
func (r *CredentialRepo) Delete(ctx context.Context, service string) error {
	if r.sealer == nil {
		return driven.ErrEncryptionKeyNotSet
	}
	if _, err := r.db.Writer.ExecContext(ctx, `DELETE FROM credentials WHERE service = ?`, service); err != nil {
		return fmt.Errorf("delete credential %q: %w", service, err)
	}
	return nil
}

func (r *CredentialRepo) scanCredential(s scanner) (model.Credential, error) {
	var (
		cred      model.Credential
		sealed    string
		updatedAt string
	)
	if err := s.Scan(&cred.ID, &cred.Service, &sealed, &updatedAt); err != nil {
		return model.Credential{}, fmt.Errorf("scan credential: %w", err)
	}

	var err error
	if cred.Value, err = r.sealer.open(sealed); err != nil {
		return model.Credential{}, fmt.Errorf("decrypt credential %q: %w", cred.Service, err)
	}
	if cred.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Credential{}, fmt.Errorf("parse updated_at for credential %q: %w", cred.Service, err)
	}
	return cred, nil
}
