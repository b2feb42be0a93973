// Package service implements the phone verification state machine: issuing
// time-bound security codes, re-dispatching them under a cooldown policy,
// and consuming them exactly once.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"afridio/internal/audit"
	"afridio/internal/phone/generator"
	phonemetrics "afridio/internal/phone/metrics"
	"afridio/internal/phone/models"
	"afridio/internal/phone/store"
	"afridio/internal/platform/config"
	"afridio/internal/sms"
	id "afridio/pkg/domain"
	dErrors "afridio/pkg/domain-errors"
	"afridio/pkg/platform/sentinel"
	"afridio/pkg/requestcontext"
)

// AuditPublisher receives security events after state transitions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates issuance, resend, and validation of security codes.
// All policy (expiry, cooldown, token binding) lives here; stores are pure
// I/O and the gateway is a black box.
type Service struct {
	records        store.Store
	gateway        sms.Gateway
	generator      *generator.Generator
	composer       *sms.Composer
	cfg            config.Verification
	logger         *slog.Logger
	metrics        *phonemetrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *phonemetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// New constructs the verification service.
func New(
	records store.Store,
	gateway sms.Gateway,
	gen *generator.Generator,
	composer *sms.Composer,
	cfg config.Verification,
	opts ...Option,
) *Service {
	s := &Service{
		records:   records,
		gateway:   gateway,
		generator: gen,
		composer:  composer,
		cfg:       cfg,
		logger:    slog.Default(),
		tracer:    otel.Tracer("afridio/internal/phone"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue starts a fresh verification challenge: generate a code and token,
// dispatch the SMS, then persist. Dispatch comes first so a failed send
// leaves the previous record intact and a retry needs no cleanup. The code
// itself is never returned.
func (s *Service) Issue(ctx context.Context, accountID id.AccountID, phone id.PhoneNumber) (*models.IssueResult, error) {
	ctx, span := s.tracer.Start(ctx, "phone.issue",
		trace.WithAttributes(attribute.String("phone", phone.Masked())))
	defer span.End()
	start := time.Now()

	code, err := s.generator.Code()
	if err != nil {
		return nil, err
	}
	token, err := s.generator.SessionToken()
	if err != nil {
		return nil, err
	}

	if err := s.dispatch(ctx, phone, code); err != nil {
		span.RecordError(err)
		return nil, err
	}

	record := models.NewRecord(accountID, phone, code, token, requestcontext.Now(ctx))
	if err := s.records.Save(ctx, record); err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification record")
	}

	s.emitAudit(ctx, audit.EventCodeIssued, accountID, phone, "")
	if s.metrics != nil {
		s.metrics.IncrementIssued()
		s.metrics.ObserveIssue(start)
	}
	s.logger.InfoContext(ctx, "security code issued",
		"account_id", accountID.String(),
		"phone", phone.Masked(),
	)

	return &models.IssueResult{
		SessionToken:       token,
		ResendAfterSeconds: int(s.cfg.ResendCooldown.Seconds()),
	}, nil
}

// Verify consumes the current code exactly once. All checks and the mutation
// run inside the store's single-writer-per-key section so a concurrent
// resend cannot rotate the code mid-check.
func (s *Service) Verify(ctx context.Context, phone id.PhoneNumber, sessionToken, securityCode string) error {
	ctx, span := s.tracer.Start(ctx, "phone.verify",
		trace.WithAttributes(attribute.String("phone", phone.Masked())))
	defer span.End()
	start := time.Now()
	now := requestcontext.Now(ctx)

	var accountID id.AccountID
	_, err := s.records.Execute(ctx, phone,
		func(r *models.VerificationRecord) error {
			accountID = r.AccountID
			if !r.TokenMatches(sessionToken) {
				return dErrors.New(dErrors.CodeSessionMismatch, "session token does not match this issuance")
			}
			if r.IsExpiredAt(now, s.cfg.CodeTTL) {
				return dErrors.New(dErrors.CodeExpired, "security code has expired")
			}
			if r.Verified {
				return dErrors.New(dErrors.CodeAlreadyVerified, "security code was already used")
			}
			if !r.CodeMatches(securityCode) {
				return dErrors.New(dErrors.CodeInvalidCode, "security code is incorrect")
			}
			return nil
		},
		func(r *models.VerificationRecord) {
			r.ApplyVerified(now)
		},
	)
	if s.metrics != nil {
		defer s.metrics.ObserveVerify(start)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			err = dErrors.New(dErrors.CodeNotFound, "no verification in progress for this phone number")
		}
		span.RecordError(err)
		s.recordVerifyFailure(ctx, accountID, phone, err)
		return err
	}

	s.emitAudit(ctx, audit.EventCodeVerified, accountID, phone, "")
	if s.metrics != nil {
		s.metrics.IncrementVerified()
	}
	s.logger.InfoContext(ctx, "phone number verified",
		"account_id", accountID.String(),
		"phone", phone.Masked(),
	)
	return nil
}

// Status classifies the current record against the caller's session token.
// Read-only; resend and the login gate branch on the result.
func (s *Service) Status(ctx context.Context, phone id.PhoneNumber, sessionToken string) (models.CodeStatus, *models.VerificationRecord, error) {
	record, err := s.records.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.StatusNoRecord, nil, nil
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification record")
	}
	now := requestcontext.Now(ctx)
	return record.Classify(now, sessionToken, s.cfg.CodeTTL, s.cfg.ResendCooldown), record, nil
}

// Resend re-dispatches a challenge. An expired code is rotated like a fresh
// issue; a live code past its cooldown is re-sent unchanged so input the
// user is already typing stays valid; inside the cooldown the caller gets
// the remaining wait.
func (s *Service) Resend(ctx context.Context, phone id.PhoneNumber, sessionToken string) (*models.IssueResult, error) {
	ctx, span := s.tracer.Start(ctx, "phone.resend",
		trace.WithAttributes(attribute.String("phone", phone.Masked())))
	defer span.End()
	now := requestcontext.Now(ctx)

	status, record, err := s.Status(ctx, phone, sessionToken)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	switch status {
	case models.StatusNoRecord:
		return nil, dErrors.New(dErrors.CodeNotFound, "no verification in progress for this phone number")

	case models.StatusTokenMismatch:
		return nil, dErrors.New(dErrors.CodeSessionMismatch, "session token does not match this issuance")

	case models.StatusVerified:
		return nil, dErrors.New(dErrors.CodeAlreadyVerified, "phone number is already verified")

	case models.StatusCooldownActive:
		remaining := record.CooldownRemaining(now, s.cfg.ResendCooldown)
		seconds := int(remaining.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		return nil, dErrors.New(dErrors.CodeResendTooSoon, "please wait before requesting another code").
			WithDetail("retry_after", seconds)

	case models.StatusExpired:
		return s.reissue(ctx, record, sessionToken)

	default: // models.StatusResendReady
		return s.resendSameCode(ctx, record, sessionToken)
	}
}

// reissue rotates code and token for an expired challenge. The dispatch runs
// inside the record's critical section, after revalidation, so a concurrent
// resend cannot also send: dispatch still precedes the write, and a failed
// dispatch leaves the record untouched.
func (s *Service) reissue(ctx context.Context, record *models.VerificationRecord, sessionToken string) (*models.IssueResult, error) {
	now := requestcontext.Now(ctx)

	code, err := s.generator.Code()
	if err != nil {
		return nil, err
	}
	token, err := s.generator.SessionToken()
	if err != nil {
		return nil, err
	}

	_, err = s.records.Execute(ctx, record.Phone,
		func(r *models.VerificationRecord) error {
			// Revalidate under the lock: a concurrent resend may have
			// rotated the record since the status read.
			if !r.TokenMatches(sessionToken) {
				return dErrors.New(dErrors.CodeSessionMismatch, "session token does not match this issuance")
			}
			return s.dispatch(ctx, r.Phone, code)
		},
		func(r *models.VerificationRecord) {
			r.ApplyReissue(code, token, now)
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no verification in progress for this phone number")
		}
		return nil, err
	}

	s.emitAudit(ctx, audit.EventCodeIssued, record.AccountID, record.Phone, "expired code rotated")
	if s.metrics != nil {
		s.metrics.IncrementIssued()
	}
	return &models.IssueResult{
		SessionToken:       token,
		ResendAfterSeconds: int(s.cfg.ResendCooldown.Seconds()),
	}, nil
}

// resendSameCode re-dispatches the live code and bumps only LastSentAt. The
// cooldown is re-checked and the SMS sent inside the record's critical
// section, otherwise two resends racing past the status read would each
// dispatch.
func (s *Service) resendSameCode(ctx context.Context, record *models.VerificationRecord, sessionToken string) (*models.IssueResult, error) {
	now := requestcontext.Now(ctx)

	updated, err := s.records.Execute(ctx, record.Phone,
		func(r *models.VerificationRecord) error {
			if !r.TokenMatches(sessionToken) {
				return dErrors.New(dErrors.CodeSessionMismatch, "session token does not match this issuance")
			}
			if r.Verified {
				return dErrors.New(dErrors.CodeAlreadyVerified, "phone number is already verified")
			}
			if remaining := r.CooldownRemaining(now, s.cfg.ResendCooldown); remaining > 0 {
				// A concurrent resend won the race since the status read.
				seconds := int(remaining.Seconds())
				if seconds < 1 {
					seconds = 1
				}
				return dErrors.New(dErrors.CodeResendTooSoon, "please wait before requesting another code").
					WithDetail("retry_after", seconds)
			}
			return s.dispatch(ctx, r.Phone, r.SecurityCode)
		},
		func(r *models.VerificationRecord) {
			r.ApplyResend(now)
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no verification in progress for this phone number")
		}
		return nil, err
	}

	s.emitAudit(ctx, audit.EventCodeResent, updated.AccountID, updated.Phone, "")
	if s.metrics != nil {
		s.metrics.IncrementResent()
	}
	s.logger.InfoContext(ctx, "security code re-dispatched",
		"account_id", updated.AccountID.String(),
		"phone", updated.Phone.Masked(),
	)
	return &models.IssueResult{
		SessionToken:       updated.SessionToken,
		ResendAfterSeconds: int(s.cfg.ResendCooldown.Seconds()),
	}, nil
}

// IsVerified reports whether the phone number has a consumed challenge. A
// missing record simply means not verified.
func (s *Service) IsVerified(ctx context.Context, phone id.PhoneNumber) (bool, error) {
	record, err := s.records.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification record")
	}
	return record.Verified, nil
}

// ResumePayload returns what a blocked login needs to resume verification:
// the current session token and the remaining resend cooldown. Looked up by
// account, so the challenge is found even when its phone number differs from
// the one the client logged in with.
func (s *Service) ResumePayload(ctx context.Context, accountID id.AccountID) (*models.ResumeInfo, error) {
	record, err := s.records.FindByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no verification in progress for this account")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification record")
	}
	now := requestcontext.Now(ctx)
	return &models.ResumeInfo{
		Phone:              record.Phone,
		SessionToken:       record.SessionToken,
		ResendAfterSeconds: int(record.CooldownRemaining(now, s.cfg.ResendCooldown).Seconds()),
	}, nil
}

func (s *Service) dispatch(ctx context.Context, phone id.PhoneNumber, code string) error {
	body := s.composer.Compose(code)
	if _, err := s.gateway.Send(ctx, phone, body); err != nil {
		if s.metrics != nil {
			s.metrics.IncrementDispatchFailure()
		}
		s.logger.ErrorContext(ctx, "sms dispatch failed",
			"phone", phone.Masked(),
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeDispatchFailed, "failed to send security code")
	}
	return nil
}

func (s *Service) recordVerifyFailure(ctx context.Context, accountID id.AccountID, phone id.PhoneNumber, err error) {
	reason := string(dErrors.GetCode(err))
	if s.metrics != nil {
		s.metrics.IncrementVerificationFailed(reason)
	}
	s.emitAudit(ctx, audit.EventVerificationFailed, accountID, phone, reason)
	s.logger.WarnContext(ctx, "verification attempt failed",
		"phone", phone.Masked(),
		"reason", reason,
	)
}

func (s *Service) emitAudit(ctx context.Context, action audit.AuditEvent, accountID id.AccountID, phone id.PhoneNumber, reason string) {
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		AccountID: accountID,
		Phone:     phone.Masked(),
		Action:    string(action),
		Reason:    reason,
	})
}
