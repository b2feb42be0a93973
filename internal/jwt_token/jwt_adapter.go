package jwttoken

import (
	"afridio/internal/platform/middleware"
	id "afridio/pkg/domain"
)

// ToMiddlewareClaims converts token claims into the shape the auth middleware
// consumes. Claims with malformed IDs are rejected upstream by ValidateToken's
// parse step here, not silently zeroed.
func ToMiddlewareClaims(claims *Claims) (*middleware.JWTClaims, error) {
	accountID, err := id.ParseAccountID(claims.AccountID)
	if err != nil {
		return nil, err
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		AccountID: accountID,
		SessionID: sessionID,
	}, nil
}

// JWTServiceAdapter bridges JWTService to middleware.JWTValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims)
}
