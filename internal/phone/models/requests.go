package models

import (
	id "afridio/pkg/domain"
	dErrors "afridio/pkg/domain-errors"
)

// IssueRequest starts a new verification challenge for the authenticated
// account's phone number.
type IssueRequest struct {
	PhoneNumber string `json:"phone_number"`
}

func (r *IssueRequest) Phone() (id.PhoneNumber, error) {
	return id.ParsePhoneNumber(r.PhoneNumber)
}

// VerifyRequest submits the code the user received.
type VerifyRequest struct {
	PhoneNumber  string `json:"phone_number"`
	SessionToken string `json:"session_token"`
	SecurityCode string `json:"security_code"`
}

func (r *VerifyRequest) Validate() error {
	if r.SessionToken == "" {
		return dErrors.New(dErrors.CodeBadRequest, "session_token is required")
	}
	if r.SecurityCode == "" {
		return dErrors.New(dErrors.CodeBadRequest, "security_code is required")
	}
	return nil
}

func (r *VerifyRequest) Phone() (id.PhoneNumber, error) {
	return id.ParsePhoneNumber(r.PhoneNumber)
}

// ResendRequest asks for the current code to be dispatched again.
type ResendRequest struct {
	PhoneNumber  string `json:"phone_number"`
	SessionToken string `json:"session_token"`
}

func (r *ResendRequest) Validate() error {
	if r.SessionToken == "" {
		return dErrors.New(dErrors.CodeBadRequest, "session_token is required")
	}
	return nil
}

func (r *ResendRequest) Phone() (id.PhoneNumber, error) {
	return id.ParsePhoneNumber(r.PhoneNumber)
}

// IssueResult is returned by issue and resend. The security code itself is
// never returned to the caller.
type IssueResult struct {
	SessionToken       string `json:"session_token"`
	ResendAfterSeconds int    `json:"otp_resend_time"`
}

// ResumeInfo carries what a blocked login needs to resume verification
// without re-registering.
type ResumeInfo struct {
	Phone              id.PhoneNumber `json:"phone_number"`
	SessionToken       string         `json:"session_token"`
	ResendAfterSeconds int            `json:"otp_resend_time"`
}
