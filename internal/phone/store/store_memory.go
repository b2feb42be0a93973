package store

import (
	"context"
	"sync"

	"afridio/internal/phone/models"
	id "afridio/pkg/domain"
	"afridio/pkg/platform/sentinel"
)

// MemoryStore keeps verification records in memory. One mutex serializes all
// mutations, which gives Execute its single-writer-per-key guarantee for
// free. Used in tests and single-node development setups.
type MemoryStore struct {
	mu      sync.RWMutex
	byPhone map[id.PhoneNumber]*models.VerificationRecord
	phoneOf map[id.AccountID]id.PhoneNumber
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		byPhone: make(map[id.PhoneNumber]*models.VerificationRecord),
		phoneOf: make(map[id.AccountID]id.PhoneNumber),
	}
}

func (s *MemoryStore) FindByPhone(_ context.Context, phone id.PhoneNumber) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.byPhone[phone]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

func (s *MemoryStore) FindByAccount(_ context.Context, accountID id.AccountID) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	phone, ok := s.phoneOf[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	record, ok := s.byPhone[phone]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

// Save upserts the record. An account re-registering with a different phone
// number re-keys its single record rather than growing a second one.
func (s *MemoryStore) Save(_ context.Context, record *models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(record)
	return nil
}

func (s *MemoryStore) saveLocked(record *models.VerificationRecord) {
	if previous, ok := s.phoneOf[record.AccountID]; ok && previous != record.Phone {
		delete(s.byPhone, previous)
	}
	s.byPhone[record.Phone] = record.Clone()
	s.phoneOf[record.AccountID] = record.Phone
}

func (s *MemoryStore) Execute(
	_ context.Context,
	phone id.PhoneNumber,
	validate func(*models.VerificationRecord) error,
	mutate func(*models.VerificationRecord),
) (*models.VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byPhone[phone]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	record := stored.Clone()
	if err := validate(record); err != nil {
		return nil, err
	}
	mutate(record)
	s.saveLocked(record)
	return record.Clone(), nil
}
