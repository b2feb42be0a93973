package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"afridio/internal/phone/models"
	id "afridio/pkg/domain"
	"afridio/pkg/platform/sentinel"
)

const (
	phoneKeyPrefix   = "pv:phone:"
	accountKeyPrefix = "pv:account:"

	// executeMaxRetries bounds WATCH conflict retries before giving up.
	executeMaxRetries = 5
)

// RedisStore is the verification store for distributed deployments where
// multiple instances share verification state. Execute relies on WATCH
// optimistic transactions with bounded retries.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// redisRecord is the storage shape. The domain model hides SecurityCode from
// JSON on purpose, so persistence needs its own marshalling.
type redisRecord struct {
	AccountID    string    `json:"account_id"`
	Phone        string    `json:"phone_number"`
	SecurityCode string    `json:"security_code"`
	SessionToken string    `json:"session_token"`
	Verified     bool      `json:"verified"`
	IssuedAt     time.Time `json:"issued_at"`
	LastSentAt   time.Time `json:"last_sent_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toRedisRecord(r *models.VerificationRecord) redisRecord {
	return redisRecord{
		AccountID:    r.AccountID.String(),
		Phone:        string(r.Phone),
		SecurityCode: r.SecurityCode,
		SessionToken: r.SessionToken,
		Verified:     r.Verified,
		IssuedAt:     r.IssuedAt,
		LastSentAt:   r.LastSentAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (rr redisRecord) toModel() (*models.VerificationRecord, error) {
	accountID, err := id.ParseAccountID(rr.AccountID)
	if err != nil {
		return nil, fmt.Errorf("corrupt account id %q: %w", rr.AccountID, err)
	}
	return &models.VerificationRecord{
		AccountID:    accountID,
		Phone:        id.PhoneNumber(rr.Phone),
		SecurityCode: rr.SecurityCode,
		SessionToken: rr.SessionToken,
		Verified:     rr.Verified,
		IssuedAt:     rr.IssuedAt,
		LastSentAt:   rr.LastSentAt,
		UpdatedAt:    rr.UpdatedAt,
	}, nil
}

func (s *RedisStore) FindByPhone(ctx context.Context, phone id.PhoneNumber) (*models.VerificationRecord, error) {
	payload, err := s.client.Get(ctx, phoneKeyPrefix+string(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get verification: %w", err)
	}
	return unmarshalRecord(payload)
}

func (s *RedisStore) FindByAccount(ctx context.Context, accountID id.AccountID) (*models.VerificationRecord, error) {
	phone, err := s.client.Get(ctx, accountKeyPrefix+accountID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get verification account index: %w", err)
	}
	return s.FindByPhone(ctx, id.PhoneNumber(phone))
}

// Save upserts the record and maintains the account index. A changed phone
// number drops the old phone key so the account keeps a single record.
func (s *RedisStore) Save(ctx context.Context, record *models.VerificationRecord) error {
	payload, err := json.Marshal(toRedisRecord(record))
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}

	accountKey := accountKeyPrefix + record.AccountID.String()
	previous, err := s.client.Get(ctx, accountKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("get verification account index: %w", err)
	}

	pipe := s.client.TxPipeline()
	if previous != "" && previous != string(record.Phone) {
		pipe.Del(ctx, phoneKeyPrefix+previous)
	}
	pipe.Set(ctx, phoneKeyPrefix+string(record.Phone), payload, 0)
	pipe.Set(ctx, accountKey, string(record.Phone), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save verification: %w", err)
	}
	return nil
}

// Execute runs validate-then-mutate under a WATCH on the phone key. A
// concurrent write between read and commit fails the transaction; the whole
// callback is retried a bounded number of times.
func (s *RedisStore) Execute(
	ctx context.Context,
	phone id.PhoneNumber,
	validate func(*models.VerificationRecord) error,
	mutate func(*models.VerificationRecord),
) (*models.VerificationRecord, error) {
	key := phoneKeyPrefix + string(phone)
	var result *models.VerificationRecord

	txn := func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get verification: %w", err)
		}

		record, err := unmarshalRecord(payload)
		if err != nil {
			return err
		}
		if err := validate(record); err != nil {
			return err
		}
		mutate(record)

		updated, err := json.Marshal(toRedisRecord(record))
		if err != nil {
			return fmt.Errorf("marshal verification: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = record
		return nil
	}

	for attempt := 0; attempt < executeMaxRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("verification update for %s: %w", phone.Masked(), sentinel.ErrConflict)
}

func unmarshalRecord(payload string) (*models.VerificationRecord, error) {
	var rr redisRecord
	if err := json.Unmarshal([]byte(payload), &rr); err != nil {
		return nil, fmt.Errorf("unmarshal verification: %w", err)
	}
	return rr.toModel()
}
