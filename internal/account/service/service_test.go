package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"afridio/internal/account/models"
	"afridio/internal/account/store"
	"afridio/internal/audit"
	phoneModel "afridio/internal/phone/models"
	id "afridio/pkg/domain"
	dErrors "afridio/pkg/domain-errors"
)

// fakeVerifier scripts the phone module's answers.
type fakeVerifier struct {
	issued      []id.AccountID
	issueErr    error
	verified    bool
	resume      *phoneModel.ResumeInfo
	resumeErr   error
	issueResult phoneModel.IssueResult
}

func (f *fakeVerifier) Issue(_ context.Context, accountID id.AccountID, _ id.PhoneNumber) (*phoneModel.IssueResult, error) {
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	f.issued = append(f.issued, accountID)
	result := f.issueResult
	return &result, nil
}

func (f *fakeVerifier) IsVerified(context.Context, id.PhoneNumber) (bool, error) {
	return f.verified, nil
}

func (f *fakeVerifier) ResumePayload(context.Context, id.AccountID) (*phoneModel.ResumeInfo, error) {
	if f.resumeErr != nil {
		return nil, f.resumeErr
	}
	return f.resume, nil
}

type fakeMinter struct {
	token string
}

func (f *fakeMinter) GenerateAccessToken(id.AccountID, id.SessionID, time.Duration) (string, error) {
	return f.token, nil
}

type AccountServiceSuite struct {
	suite.Suite
	accounts   *store.MemoryStore
	verifier   *fakeVerifier
	auditStore *audit.MemoryStore
	service    *Service
}

func TestAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceSuite))
}

func (s *AccountServiceSuite) SetupTest() {
	s.accounts = store.NewMemory()
	s.verifier = &fakeVerifier{
		issueResult: phoneModel.IssueResult{SessionToken: "tok-issued", ResendAfterSeconds: 300},
	}
	s.auditStore = audit.NewMemoryStore()
	s.service = New(
		s.accounts,
		s.verifier,
		&fakeMinter{token: "signed-jwt"},
		15*time.Minute,
		WithLogger(slog.New(slog.DiscardHandler)),
		WithAuditPublisher(audit.NewPublisher(s.auditStore)),
	)
}

func (s *AccountServiceSuite) register() *models.RegisterResponse {
	resp, err := s.service.Register(context.Background(), &models.RegisterRequest{
		PhoneNumber: "+251911000001",
		Name:        "Abebe",
		Password:    "correct horse battery",
	})
	s.Require().NoError(err)
	return resp
}

func (s *AccountServiceSuite) TestRegisterCreatesAccountAndIssuesCode() {
	resp := s.register()

	s.Equal("tok-issued", resp.SessionToken)
	s.Equal(300, resp.ResendAfterSeconds)
	s.Equal("Abebe", resp.Name)
	s.False(resp.ID.IsNil())

	account, err := s.accounts.FindByPhone(context.Background(), "+251911000001")
	s.Require().NoError(err)
	s.Equal(resp.ID, account.ID)
	s.NotEqual("correct horse battery", account.PasswordHash, "password must be stored hashed")

	s.Require().Len(s.verifier.issued, 1)
	s.Equal(account.ID, s.verifier.issued[0])

	var actions []string
	for _, e := range s.auditStore.All() {
		actions = append(actions, e.Action)
	}
	s.Contains(actions, string(audit.EventAccountCreated))
}

func (s *AccountServiceSuite) TestRegisterRejectsDuplicatePhone() {
	s.register()

	_, err := s.service.Register(context.Background(), &models.RegisterRequest{
		PhoneNumber: "+251911000001",
		Name:        "Someone Else",
		Password:    "another password",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *AccountServiceSuite) TestRegisterRejectsShortPassword() {
	_, err := s.service.Register(context.Background(), &models.RegisterRequest{
		PhoneNumber: "+251911000001",
		Name:        "Abebe",
		Password:    "short",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *AccountServiceSuite) TestRegisterDispatchFailureKeepsAccount() {
	s.verifier.issueErr = dErrors.New(dErrors.CodeDispatchFailed, "failed to send security code")

	_, err := s.service.Register(context.Background(), &models.RegisterRequest{
		PhoneNumber: "+251911000001",
		Name:        "Abebe",
		Password:    "correct horse battery",
	})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeDispatchFailed))

	// The account row survives; the login gate issues a fresh challenge later.
	_, err = s.accounts.FindByPhone(context.Background(), "+251911000001")
	s.NoError(err)
}

func (s *AccountServiceSuite) TestLoginVerifiedMintsToken() {
	s.register()
	s.verifier.verified = true

	resp, err := s.service.Login(context.Background(), &models.LoginRequest{
		PhoneNumber: "+251911000001",
		Password:    "correct horse battery",
	})
	s.Require().NoError(err)
	s.Equal("signed-jwt", resp.AccessToken)
	s.Equal("Bearer", resp.TokenType)
	s.Equal(900, resp.ExpiresIn)
}

func (s *AccountServiceSuite) TestLoginFailuresAreIndistinguishable() {
	s.register()

	_, wrongPassword := s.service.Login(context.Background(), &models.LoginRequest{
		PhoneNumber: "+251911000001",
		Password:    "not the password",
	})
	_, unknownPhone := s.service.Login(context.Background(), &models.LoginRequest{
		PhoneNumber: "+251911000999",
		Password:    "not the password",
	})

	s.Require().Error(wrongPassword)
	s.Require().Error(unknownPhone)
	s.Equal(wrongPassword.Error(), unknownPhone.Error())
	s.True(dErrors.HasCode(wrongPassword, dErrors.CodeUnauthorized))
	s.True(dErrors.HasCode(unknownPhone, dErrors.CodeUnauthorized))
}

func (s *AccountServiceSuite) TestLoginUnverifiedReturnsResumeDetails() {
	s.register()
	s.verifier.verified = false
	s.verifier.resume = &phoneModel.ResumeInfo{
		Phone:              "+251911000001",
		SessionToken:       "tok-issued",
		ResendAfterSeconds: 137,
	}

	_, err := s.service.Login(context.Background(), &models.LoginRequest{
		PhoneNumber: "+251911000001",
		Password:    "correct horse battery",
	})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeVerificationPending))

	details := dErrors.Details(err)
	s.Equal("+251911000001", details["phone_number"])
	s.Equal("tok-issued", details["session_token"])
	s.Equal(137, details["otp_resend_time"])
}

func (s *AccountServiceSuite) TestLoginUnverifiedWithoutRecordIssuesFreshCode() {
	s.register()
	s.verifier.verified = false
	s.verifier.resumeErr = dErrors.New(dErrors.CodeNotFound, "no verification in progress for this phone number")
	s.verifier.issueResult = phoneModel.IssueResult{SessionToken: "tok-fresh", ResendAfterSeconds: 300}

	_, err := s.service.Login(context.Background(), &models.LoginRequest{
		PhoneNumber: "+251911000001",
		Password:    "correct horse battery",
	})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeVerificationPending))

	details := dErrors.Details(err)
	s.Equal("tok-fresh", details["session_token"])
	s.Len(s.verifier.issued, 2, "registration issue plus the login-gate reissue")
}
