// Package service implements registration and the login gate: credentials
// alone never yield an access token until the account's phone number has been
// verified.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	accountmetrics "afridio/internal/account/metrics"
	"afridio/internal/account/models"
	"afridio/internal/account/password"
	"afridio/internal/account/store"
	"afridio/internal/audit"
	phoneModel "afridio/internal/phone/models"
	id "afridio/pkg/domain"
	dErrors "afridio/pkg/domain-errors"
	"afridio/pkg/platform/sentinel"
	"afridio/pkg/requestcontext"
)

// PhoneVerifier is the slice of the phone verification service the account
// module depends on.
type PhoneVerifier interface {
	Issue(ctx context.Context, accountID id.AccountID, phone id.PhoneNumber) (*phoneModel.IssueResult, error)
	IsVerified(ctx context.Context, phone id.PhoneNumber) (bool, error)
	ResumePayload(ctx context.Context, accountID id.AccountID) (*phoneModel.ResumeInfo, error)
}

// TokenMinter mints signed access tokens for verified logins.
type TokenMinter interface {
	GenerateAccessToken(accountID id.AccountID, sessionID id.SessionID, expiresIn time.Duration) (string, error)
}

// AuditPublisher receives security events after state transitions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates registration and login.
type Service struct {
	accounts       store.Store
	phone          PhoneVerifier
	tokens         TokenMinter
	accessTokenTTL time.Duration
	logger         *slog.Logger
	metrics        *accountmetrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *accountmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// New constructs the account service.
func New(
	accounts store.Store,
	phone PhoneVerifier,
	tokens TokenMinter,
	accessTokenTTL time.Duration,
	opts ...Option,
) *Service {
	s := &Service{
		accounts:       accounts,
		phone:          phone,
		tokens:         tokens,
		accessTokenTTL: accessTokenTTL,
		logger:         slog.Default(),
		tracer:         otel.Tracer("afridio/internal/account"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates the account and dispatches the first security code. A
// failed dispatch fails the call but keeps the account row; the login gate
// issues a fresh challenge on the next attempt, so no cleanup is needed.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {
	ctx, span := s.tracer.Start(ctx, "account.register")
	defer span.End()

	phone, err := req.Phone()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("phone", phone.Masked()))
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	account := models.NewAccount(phone, req.Name, hash, requestcontext.Now(ctx))
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this phone number already exists")
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	issued, err := s.phone.Issue(ctx, account.ID, account.Phone)
	if err != nil {
		span.RecordError(err)
		s.logger.WarnContext(ctx, "registration created account but code dispatch failed",
			"account_id", account.ID.String(),
			"phone", account.Phone.Masked(),
			"error", err,
		)
		return nil, err
	}

	s.emitAudit(ctx, audit.EventAccountCreated, account.ID, account.Phone, "")
	if s.metrics != nil {
		s.metrics.IncrementRegistered()
	}
	s.logger.InfoContext(ctx, "account registered",
		"account_id", account.ID.String(),
		"phone", account.Phone.Masked(),
	)

	return &models.RegisterResponse{
		ID:                 account.ID,
		Phone:              account.Phone,
		Name:               account.Name,
		CreatedAt:          account.CreatedAt,
		SessionToken:       issued.SessionToken,
		ResendAfterSeconds: issued.ResendAfterSeconds,
	}, nil
}

// Login checks credentials and gates on phone verification. Unknown phone and
// wrong password produce the same error so responses never reveal whether an
// account exists.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	ctx, span := s.tracer.Start(ctx, "account.login")
	defer span.End()

	phone, err := req.Phone()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("phone", phone.Masked()))
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Burn a bcrypt comparison so a missing account costs the same
			// as a wrong password.
			_ = password.Verify(req.Password, dummyHash)
			return nil, s.loginFailed(ctx, id.AccountID{}, phone)
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	if err := password.Verify(req.Password, account.PasswordHash); err != nil {
		return nil, s.loginFailed(ctx, account.ID, phone)
	}

	verified, err := s.phone.IsVerified(ctx, account.Phone)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !verified {
		return nil, s.loginBlocked(ctx, account)
	}

	sessionID := id.NewSessionID()
	token, err := s.tokens.GenerateAccessToken(account.ID, sessionID, s.accessTokenTTL)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint access token")
	}

	s.emitAudit(ctx, audit.EventLoginSucceeded, account.ID, account.Phone, "")
	if s.metrics != nil {
		s.metrics.IncrementLogin("succeeded")
	}
	s.logger.InfoContext(ctx, "login succeeded",
		"account_id", account.ID.String(),
		"session_id", sessionID.String(),
	)

	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.accessTokenTTL.Seconds()),
	}, nil
}

// dummyHash is a bcrypt hash of a throwaway string, compared against when no
// account matches.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func (s *Service) loginFailed(ctx context.Context, accountID id.AccountID, phone id.PhoneNumber) error {
	s.emitAudit(ctx, audit.EventLoginFailed, accountID, phone, "bad credentials")
	if s.metrics != nil {
		s.metrics.IncrementLogin("failed")
	}
	s.logger.WarnContext(ctx, "login failed",
		"phone", phone.Masked(),
	)
	return dErrors.New(dErrors.CodeUnauthorized, "unable to authenticate with provided credentials")
}

// loginBlocked turns an unverified login into a resumable verification
// challenge. A missing record (registration dispatch failed, or the record
// was purged) gets a fresh issuance instead of a dead end.
func (s *Service) loginBlocked(ctx context.Context, account *models.Account) error {
	resume, err := s.phone.ResumePayload(ctx, account.ID)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		issued, issueErr := s.phone.Issue(ctx, account.ID, account.Phone)
		if issueErr != nil {
			return issueErr
		}
		resume = &phoneModel.ResumeInfo{
			Phone:              account.Phone,
			SessionToken:       issued.SessionToken,
			ResendAfterSeconds: issued.ResendAfterSeconds,
		}
	} else if err != nil {
		return err
	}

	s.emitAudit(ctx, audit.EventLoginBlocked, account.ID, account.Phone, "phone not verified")
	if s.metrics != nil {
		s.metrics.IncrementLogin("blocked")
	}
	s.logger.InfoContext(ctx, "login blocked pending verification",
		"account_id", account.ID.String(),
		"phone", account.Phone.Masked(),
	)

	return dErrors.New(dErrors.CodeVerificationPending, "phone number has not been verified").
		WithDetail("phone_number", string(resume.Phone)).
		WithDetail("session_token", resume.SessionToken).
		WithDetail("otp_resend_time", resume.ResendAfterSeconds)
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
