package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"afridio/internal/account/models"
	id "afridio/pkg/domain"
	"afridio/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newAccount(phone id.PhoneNumber) *models.Account {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.NewAccount(phone, "Abebe", "$2a$10$hash", now)
}

func (s *MemoryStoreSuite) TestFindByID() {
	account := s.newAccount("+251911000001")
	s.Require().NoError(s.store.Create(context.Background(), account))

	found, err := s.store.FindByID(context.Background(), account.ID)
	s.Require().NoError(err)
	s.Equal(account, found)

	// Reads return copies, not the stored record.
	found.Name = "mutated"
	again, err := s.store.FindByID(context.Background(), account.ID)
	s.Require().NoError(err)
	s.Equal("Abebe", again.Name)
}

func (s *MemoryStoreSuite) TestFindByPhone() {
	account := s.newAccount("+251911000001")
	s.Require().NoError(s.store.Create(context.Background(), account))

	found, err := s.store.FindByPhone(context.Background(), "+251911000001")
	s.Require().NoError(err)
	s.Equal(account.ID, found.ID)

	_, err = s.store.FindByPhone(context.Background(), "+251911000999")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestCreateRejectsDuplicatePhone() {
	s.Require().NoError(s.store.Create(context.Background(), s.newAccount("+251911000001")))

	err := s.store.Create(context.Background(), s.newAccount("+251911000001"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}
