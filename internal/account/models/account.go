package models

import (
	"time"

	id "afridio/pkg/domain"
	dErrors "afridio/pkg/domain-errors"
)

// Account is a registered user. The phone number is the login identifier;
// whether it has been verified lives in the phone module, not here.
type Account struct {
	ID           id.AccountID   `json:"id"`
	Phone        id.PhoneNumber `json:"phone_number"`
	Name         string         `json:"name"`
	PasswordHash string         `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewAccount builds an account with a fresh ID.
func NewAccount(phone id.PhoneNumber, name, passwordHash string, now time.Time) *Account {
	return &Account{
		ID:           id.NewAccountID(),
		Phone:        phone,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone returns a deep copy so store reads never alias live records.
func (a *Account) Clone() *Account {
	clone := *a
	return &clone
}

// RegisterRequest creates an account and starts phone verification.
type RegisterRequest struct {
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name"`
	Password    string `json:"password"`
}

const minPasswordLength = 8

func (r *RegisterRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if len(r.Password) < minPasswordLength {
		return dErrors.Newf(dErrors.CodeBadRequest, "password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func (r *RegisterRequest) Phone() (id.PhoneNumber, error) {
	return id.ParsePhoneNumber(r.PhoneNumber)
}

// RegisterResponse returns the public account fields plus what the client
// needs to complete verification. The security code travels only by SMS.
type RegisterResponse struct {
	ID                 id.AccountID   `json:"id"`
	Phone              id.PhoneNumber `json:"phone_number"`
	Name               string         `json:"name"`
	CreatedAt          time.Time      `json:"created_at"`
	SessionToken       string         `json:"session_token"`
	ResendAfterSeconds int            `json:"otp_resend_time"`
}

// LoginRequest authenticates by phone number and password.
type LoginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "password is required")
	}
	return nil
}

func (r *LoginRequest) Phone() (id.PhoneNumber, error) {
	return id.ParsePhoneNumber(r.PhoneNumber)
}

// LoginResponse carries the minted access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
