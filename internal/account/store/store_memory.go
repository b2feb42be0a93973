package store

import (
	"context"
	"sync"

	"afridio/internal/account/models"
	id "afridio/pkg/domain"
	"afridio/pkg/platform/sentinel"
)

// MemoryStore keeps accounts in memory. Used in tests and single-node
// development setups.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[id.AccountID]*models.Account
	byPhone map[id.PhoneNumber]id.AccountID
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[id.AccountID]*models.Account),
		byPhone: make(map[id.PhoneNumber]id.AccountID),
	}
}

func (s *MemoryStore) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.byID[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return account.Clone(), nil
}

func (s *MemoryStore) FindByPhone(_ context.Context, phone id.PhoneNumber) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byPhone[phone]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	account, ok := s.byID[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return account.Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPhone[account.Phone]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byID[account.ID]; ok {
		return sentinel.ErrConflict
	}
	s.byID[account.ID] = account.Clone()
	s.byPhone[account.Phone] = account.ID
	return nil
}
