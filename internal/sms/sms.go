// Package sms dispatches one-time codes over text message. The gateway is a
// constructor-injected dependency so the verification service stays testable
// with a fake.
package sms

import (
	"context"
	"errors"

	id "afridio/pkg/domain"
)

// ErrDispatchFailed is the infrastructure fact every gateway failure wraps.
// The service translates it into a retryable domain error.
var ErrDispatchFailed = errors.New("sms dispatch failed")

// MessageID identifies a dispatched message at the provider.
type MessageID string

// Gateway sends a text message to a phone number. Retries and backoff are
// the gateway's internal concern; callers only see success or failure.
type Gateway interface {
	Send(ctx context.Context, to id.PhoneNumber, body string) (MessageID, error)
}
