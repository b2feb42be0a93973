//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"afridio/internal/phone/models"
	"afridio/internal/phone/store"
	id "afridio/pkg/domain"
	"afridio/pkg/platform/sentinel"
	"afridio/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) seed(phone id.PhoneNumber) *models.VerificationRecord {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := models.NewRecord(id.NewAccountID(), phone, "123456", "token-1", now)
	s.Require().NoError(s.store.Save(context.Background(), record))
	return record
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	seeded := s.seed("+251911000001")

	record, err := s.store.FindByPhone(ctx, seeded.Phone)
	s.Require().NoError(err)
	s.Equal(seeded.AccountID, record.AccountID)
	s.Equal(seeded.SecurityCode, record.SecurityCode)
	s.True(seeded.IssuedAt.Equal(record.IssuedAt))

	byAccount, err := s.store.FindByAccount(ctx, seeded.AccountID)
	s.Require().NoError(err)
	s.Equal(seeded.Phone, byAccount.Phone)
}

func (s *RedisStoreSuite) TestFindMissingReturnsNotFound() {
	ctx := context.Background()

	_, err := s.store.FindByPhone(ctx, "+251911000009")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestSaveRekeysChangedPhone() {
	ctx := context.Background()
	seeded := s.seed("+251911000001")

	rekeyed := seeded.Clone()
	rekeyed.Phone = "+251911000002"
	s.Require().NoError(s.store.Save(ctx, rekeyed))

	_, err := s.store.FindByPhone(ctx, "+251911000001")
	s.ErrorIs(err, sentinel.ErrNotFound)

	record, err := s.store.FindByPhone(ctx, "+251911000002")
	s.Require().NoError(err)
	s.Equal(seeded.AccountID, record.AccountID)
}

func (s *RedisStoreSuite) TestExecuteValidationLeavesRecordUntouched() {
	ctx := context.Background()
	seeded := s.seed("+251911000001")

	_, err := s.store.Execute(ctx, seeded.Phone,
		func(*models.VerificationRecord) error { return sentinel.ErrInvalidState },
		func(r *models.VerificationRecord) { r.Verified = true },
	)
	s.ErrorIs(err, sentinel.ErrInvalidState)

	record, err := s.store.FindByPhone(ctx, seeded.Phone)
	s.Require().NoError(err)
	s.False(record.Verified)
}

// TestExecuteConcurrentVerifies drives concurrent exactly-once verifies
// through WATCH transactions; retries mean every call settles as either the
// single winner or an explicit already-used rejection.
func (s *RedisStoreSuite) TestExecuteConcurrentVerifies() {
	ctx := context.Background()
	seeded := s.seed("+251911000001")

	const goroutines = 10
	results := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			_, err := s.store.Execute(ctx, seeded.Phone,
				func(r *models.VerificationRecord) error {
					if r.Verified {
						return sentinel.ErrAlreadyUsed
					}
					return nil
				},
				func(r *models.VerificationRecord) {
					r.ApplyVerified(seeded.IssuedAt.Add(time.Minute))
				},
			)
			results <- err
		}()
	}

	var succeeded, alreadyUsed, conflicts int
	for i := 0; i < goroutines; i++ {
		err := <-results
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			alreadyUsed++
		case errors.Is(err, sentinel.ErrConflict):
			conflicts++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, succeeded, "exactly one verify should win")
	s.Equal(goroutines-1, alreadyUsed+conflicts)

	record, err := s.store.FindByPhone(ctx, seeded.Phone)
	s.Require().NoError(err)
	s.True(record.Verified)
}
