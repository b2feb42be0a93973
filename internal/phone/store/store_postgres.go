package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"afridio/internal/phone/models"
	id "afridio/pkg/domain"
	"afridio/pkg/platform/sentinel"
)

// PostgresStore persists verification records in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE phone_verifications (
//	    account_id    UUID PRIMARY KEY,
//	    phone_number  VARCHAR(17) NOT NULL UNIQUE,
//	    security_code TEXT NOT NULL,
//	    session_token TEXT NOT NULL,
//	    verified      BOOLEAN NOT NULL DEFAULT FALSE,
//	    issued_at     TIMESTAMPTZ NOT NULL,
//	    last_sent_at  TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const verificationColumns = `account_id, phone_number, security_code, session_token, verified, issued_at, last_sent_at, updated_at`

func (s *PostgresStore) FindByPhone(ctx context.Context, phone id.PhoneNumber) (*models.VerificationRecord, error) {
	query := `SELECT ` + verificationColumns + ` FROM phone_verifications WHERE phone_number = $1`
	record, err := scanVerification(s.db.QueryRowContext(ctx, query, string(phone)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification by phone: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) FindByAccount(ctx context.Context, accountID id.AccountID) (*models.VerificationRecord, error) {
	query := `SELECT ` + verificationColumns + ` FROM phone_verifications WHERE account_id = $1`
	record, err := scanVerification(s.db.QueryRowContext(ctx, query, accountID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification by account: %w", err)
	}
	return record, nil
}

// Save upserts on account_id so an account keeps exactly one record even
// when it re-registers with a different phone number.
func (s *PostgresStore) Save(ctx context.Context, record *models.VerificationRecord) error {
	query := `
		INSERT INTO phone_verifications (` + verificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account_id) DO UPDATE SET
			phone_number = EXCLUDED.phone_number,
			security_code = EXCLUDED.security_code,
			session_token = EXCLUDED.session_token,
			verified = EXCLUDED.verified,
			issued_at = EXCLUDED.issued_at,
			last_sent_at = EXCLUDED.last_sent_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		record.AccountID.String(),
		string(record.Phone),
		record.SecurityCode,
		record.SessionToken,
		record.Verified,
		record.IssuedAt,
		record.LastSentAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save verification: %w", err)
	}
	return nil
}

// Execute serializes concurrent mutations of one phone's record with
// SELECT ... FOR UPDATE. The row lock is held across validate and mutate so
// a verify cannot read a code that a concurrent resend is rotating.
func (s *PostgresStore) Execute(
	ctx context.Context,
	phone id.PhoneNumber,
	validate func(*models.VerificationRecord) error,
	mutate func(*models.VerificationRecord),
) (*models.VerificationRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin verification tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + verificationColumns + ` FROM phone_verifications WHERE phone_number = $1 FOR UPDATE`
	record, err := scanVerification(tx.QueryRowContext(ctx, query, string(phone)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock verification: %w", err)
	}

	if err := validate(record); err != nil {
		return nil, err
	}
	mutate(record)

	update := `
		UPDATE phone_verifications SET
			phone_number = $2,
			security_code = $3,
			session_token = $4,
			verified = $5,
			issued_at = $6,
			last_sent_at = $7,
			updated_at = $8
		WHERE account_id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		record.AccountID.String(),
		string(record.Phone),
		record.SecurityCode,
		record.SessionToken,
		record.Verified,
		record.IssuedAt,
		record.LastSentAt,
		record.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update verification: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit verification: %w", err)
	}
	return record, nil
}

type verificationRow interface {
	Scan(dest ...any) error
}

func scanVerification(row verificationRow) (*models.VerificationRecord, error) {
	var record models.VerificationRecord
	var accountID, phone string
	if err := row.Scan(
		&accountID,
		&phone,
		&record.SecurityCode,
		&record.SessionToken,
		&record.Verified,
		&record.IssuedAt,
		&record.LastSentAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := id.ParseAccountID(accountID)
	if err != nil {
		return nil, fmt.Errorf("corrupt account id %q: %w", accountID, err)
	}
	record.AccountID = parsed
	record.Phone = id.PhoneNumber(phone)
	return &record, nil
}
