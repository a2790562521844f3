package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/clipstream/auth-service/internal/core/domain"
	"github.com/clipstream/auth-service/internal/core/ports"
)

// InTx runs fn inside one transaction, committing on nil and rolling back on
// error. This is the only way callers reach the credential tables, so every
// flow's reads and writes share a single transactional scope.
func (s *Store) InTx(ctx context.Context, fn func(tx ports.CredentialTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&credentialTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback: %v (after: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type credentialTx struct {
	tx *sql.Tx
}

const credentialColumns = `c.id, c.username, c.email, c.password_hash, c.created_at, r.role`

// FindByUsernameOrEmail returns all credentials matching either field, role
// eagerly joined. Empty arguments never match any row.
func (t *credentialTx) FindByUsernameOrEmail(ctx context.Context, username, email string) ([]domain.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM user_credentials c
		JOIN user_roles r ON r.id = c.role_id
		WHERE (c.username = ?1 AND ?1 != '') OR (c.email = ?2 AND ?2 != '')
	`

	rows, err := t.tx.QueryContext(ctx, query, username, email)
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	var creds []domain.Credential
	for rows.Next() {
		var c domain.Credential
		if err := rows.Scan(&c.ID, &c.Username, &c.Email, &c.PasswordHash, &c.CreatedAt, &c.Role); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, c)
	}
	return creds, rows.Err()
}

// FindByID returns the credential or nil when no row matches.
func (t *credentialTx) FindByID(ctx context.Context, id string) (*domain.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM user_credentials c
		JOIN user_roles r ON r.id = c.role_id
		WHERE c.id = ?
	`

	var c domain.Credential
	err := t.tx.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.Username, &c.Email, &c.PasswordHash, &c.CreatedAt, &c.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &c, nil
}

// Insert writes a new credential. The UNIQUE indexes on username and email
// are the authoritative uniqueness guarantee; violations are translated into
// the matching conflict error, which also covers the window where two
// concurrent registrations pass the duplicate pre-check.
func (t *credentialTx) Insert(ctx context.Context, cred *domain.Credential) error {
	query := `
		INSERT INTO user_credentials (id, username, email, password_hash, created_at, role_id)
		VALUES (?, ?, ?, ?, ?, (SELECT id FROM user_roles WHERE role = ?))
	`

	_, err := t.tx.ExecContext(ctx, query,
		cred.ID, cred.Username, cred.Email, cred.PasswordHash, cred.CreatedAt, string(cred.Role))
	if err != nil {
		if conflict := translateUnique(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns of an already-loaded credential.
func (t *credentialTx) Update(ctx context.Context, cred *domain.Credential) error {
	query := `
		UPDATE user_credentials
		SET username = ?, email = ?, password_hash = ?
		WHERE id = ?
	`

	_, err := t.tx.ExecContext(ctx, query, cred.Username, cred.Email, cred.PasswordHash, cred.ID)
	if err != nil {
		if conflict := translateUnique(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("update credential: %w", err)
	}
	return nil
}

// Delete removes an already-loaded credential.
func (t *credentialTx) Delete(ctx context.Context, cred *domain.Credential) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM user_credentials WHERE id = ?`, cred.ID); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

func translateUnique(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: user_credentials.username"):
		return domain.NewConflict("This name has already taken.")
	case strings.Contains(msg, "UNIQUE constraint failed: user_credentials.email"):
		return domain.NewConflict("This email has already taken.")
	}
	return nil
}

var _ ports.CredentialStore = (*Store)(nil)
