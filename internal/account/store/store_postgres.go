package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"afridio/internal/account/models"
	id "afridio/pkg/domain"
	"afridio/pkg/platform/sentinel"
)

// PostgresStore persists accounts in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE accounts (
//	    id            UUID PRIMARY KEY,
//	    phone_number  VARCHAR(17) NOT NULL UNIQUE,
//	    name          TEXT NOT NULL,
//	    password_hash TEXT NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `id, phone_number, name, password_hash, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, accountID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) FindByPhone(ctx context.Context, phone id.PhoneNumber) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE phone_number = $1`
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, string(phone)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find account by phone: %w", err)
	}
	return account, nil
}

// pq error code for unique_violation.
const uniqueViolation = "23505"

func (s *PostgresStore) Create(ctx context.Context, account *models.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		account.ID.String(),
		string(account.Phone),
		account.Name,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

type accountRow interface {
	Scan(dest ...any) error
}

func scanAccount(row accountRow) (*models.Account, error) {
	var account models.Account
	var accountID, phone string
	if err := row.Scan(
		&accountID,
		&phone,
		&account.Name,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := id.ParseAccountID(accountID)
	if err != nil {
		return nil, fmt.Errorf("corrupt account id %q: %w", accountID, err)
	}
	account.ID = parsed
	account.Phone = id.PhoneNumber(phone)
	return &account, nil
}
