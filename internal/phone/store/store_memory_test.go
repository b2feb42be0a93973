package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"afridio/internal/phone/models"
	id "afridio/pkg/domain"
	"afridio/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
}

func (s *MemoryStoreSuite) seed(phone id.PhoneNumber) *models.VerificationRecord {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := models.NewRecord(id.NewAccountID(), phone, "123456", "token-1", now)
	s.Require().NoError(s.store.Save(context.Background(), record))
	return record
}

func (s *MemoryStoreSuite) TestFindByPhone() {
	ctx := context.Background()

	s.Run("missing phone returns ErrNotFound", func() {
		_, err := s.store.FindByPhone(ctx, "+251911000009")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("stored record is returned as a copy", func() {
		seeded := s.seed("+251911000001")

		record, err := s.store.FindByPhone(ctx, seeded.Phone)
		s.NoError(err)
		s.Equal(seeded.SessionToken, record.SessionToken)

		// Mutating the returned record must not leak into the store.
		record.Verified = true
		again, err := s.store.FindByPhone(ctx, seeded.Phone)
		s.NoError(err)
		s.False(again.Verified)
	})
}

func (s *MemoryStoreSuite) TestFindByAccount() {
	ctx := context.Background()
	seeded := s.seed("+251911000001")

	record, err := s.store.FindByAccount(ctx, seeded.AccountID)
	s.NoError(err)
	s.Equal(seeded.Phone, record.Phone)

	_, err = s.store.FindByAccount(ctx, id.NewAccountID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestSaveRekeysChangedPhone() {
	ctx := context.Background()
	seeded := s.seed("+251911000001")

	rekeyed := seeded.Clone()
	rekeyed.Phone = "+251911000002"
	s.Require().NoError(s.store.Save(ctx, rekeyed))

	_, err := s.store.FindByPhone(ctx, "+251911000001")
	s.ErrorIs(err, sentinel.ErrNotFound, "old phone key must be dropped")

	record, err := s.store.FindByPhone(ctx, "+251911000002")
	s.NoError(err)
	s.Equal(seeded.AccountID, record.AccountID)
}

func (s *MemoryStoreSuite) TestExecute() {
	ctx := context.Background()

	s.Run("missing record returns ErrNotFound", func() {
		_, err := s.store.Execute(ctx, "+251911000009",
			func(*models.VerificationRecord) error { return nil },
			func(*models.VerificationRecord) {},
		)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("validation failure leaves the record untouched", func() {
		seeded := s.seed("+251911000001")
		wantErr := errors.New("rejected")

		_, err := s.store.Execute(ctx, seeded.Phone,
			func(*models.VerificationRecord) error { return wantErr },
			func(r *models.VerificationRecord) { r.Verified = true },
		)
		s.ErrorIs(err, wantErr)

		record, err := s.store.FindByPhone(ctx, seeded.Phone)
		s.NoError(err)
		s.False(record.Verified)
	})

	s.Run("mutation is persisted and returned", func() {
		seeded := s.seed("+251911000003")
		now := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)

		updated, err := s.store.Execute(ctx, seeded.Phone,
			func(*models.VerificationRecord) error { return nil },
			func(r *models.VerificationRecord) { r.ApplyVerified(now) },
		)
		s.NoError(err)
		s.True(updated.Verified)

		record, err := s.store.FindByPhone(ctx, seeded.Phone)
		s.NoError(err)
		s.True(record.Verified)
	})
}

// TestExecuteSerializesConcurrentMutations drives many concurrent resend
// bumps through Execute; with single-writer-per-key semantics every bump is
// applied, so the final LastSentAt equals the largest offset.
func (s *MemoryStoreSuite) TestExecuteSerializesConcurrentMutations() {
	ctx := context.Background()
	seeded := s.seed("+251911000001")

	const goroutines = 50
	var wg sync.WaitGroup
	errCh := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			sentAt := seeded.IssuedAt.Add(time.Duration(offset+1) * time.Second)
			_, err := s.store.Execute(ctx, seeded.Phone,
				func(*models.VerificationRecord) error { return nil },
				func(r *models.VerificationRecord) {
					if sentAt.After(r.LastSentAt) {
						r.ApplyResend(sentAt)
					}
				},
			)
			errCh <- err
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		s.NoError(err)
	}

	record, err := s.store.FindByPhone(ctx, seeded.Phone)
	s.NoError(err)
	s.Equal(seeded.IssuedAt.Add(goroutines*time.Second), record.LastSentAt)
}
