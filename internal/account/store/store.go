// Package store persists accounts. Implementations return sentinel errors;
// the service layer translates them into domain errors.
package store

import (
	"context"

	"afridio/internal/account/models"
	id "afridio/pkg/domain"
)

// Store is the persistence interface for accounts.
type Store interface {
	// FindByID returns the account or sentinel.ErrNotFound.
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	// FindByPhone returns the account owning the phone number or
	// sentinel.ErrNotFound.
	FindByPhone(ctx context.Context, phone id.PhoneNumber) (*models.Account, error)
	// Create inserts a new account. A phone number already owned by another
	// account yields sentinel.ErrConflict.
	Create(ctx context.Context, account *models.Account) error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
