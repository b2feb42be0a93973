// Package store persists verification records. Stores are pure I/O: they
// return sentinel errors for infrastructure facts and never apply policy
// (expiry, cooldown) — that belongs to the service.
package store

import (
	"context"

	"afridio/internal/phone/models"
	id "afridio/pkg/domain"
)

// Store is the verification record repository. One record per account,
// looked up by phone number.
//
// Execute is the single-writer-per-key primitive: it loads the record for
// the phone, holds the key's lock (mutex, SELECT FOR UPDATE, or WATCH)
// across both callbacks, applies mutate only if validate returns nil, and
// persists the result. It returns sentinel.ErrNotFound when no record
// exists.
type Store interface {
	FindByPhone(ctx context.Context, phone id.PhoneNumber) (*models.VerificationRecord, error)
	FindByAccount(ctx context.Context, accountID id.AccountID) (*models.VerificationRecord, error)
	Save(ctx context.Context, record *models.VerificationRecord) error
	Execute(
		ctx context.Context,
		phone id.PhoneNumber,
		validate func(*models.VerificationRecord) error,
		mutate func(*models.VerificationRecord),
	) (*models.VerificationRecord, error)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*RedisStore)(nil)
)
