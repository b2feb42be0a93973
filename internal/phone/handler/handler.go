package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	phoneModel "afridio/internal/phone/models"
	"afridio/internal/platform/metrics"
	"afridio/internal/platform/middleware"
	id "afridio/pkg/domain"
	dErrors "afridio/pkg/domain-errors"
	"afridio/pkg/platform/httputil"
)

// Service defines the interface for phone verification operations.
type Service interface {
	Issue(ctx context.Context, accountID id.AccountID, phone id.PhoneNumber) (*phoneModel.IssueResult, error)
	Verify(ctx context.Context, phone id.PhoneNumber, sessionToken, securityCode string) error
	Resend(ctx context.Context, phone id.PhoneNumber, sessionToken string) (*phoneModel.IssueResult, error)
}

// Handler handles phone verification endpoints.
type Handler struct {
	logger       *slog.Logger
	phone        Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new phone verification Handler.
func New(
	phone Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		phone:        phone,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the verification routes with the chi router. Issuing a
// code requires an access token; resend and verify do not, because the caller
// is mid-registration and holds only the session token.
func (h *Handler) Register(r chi.Router) {
	phoneRouter := chi.NewRouter()
	phoneRouter.Use(middleware.Recovery(h.logger))
	phoneRouter.Use(middleware.RequestID)
	phoneRouter.Use(middleware.RequestTime)
	phoneRouter.Use(middleware.ClientMetadata)
	phoneRouter.Use(middleware.Logger(h.logger))
	phoneRouter.Use(middleware.Timeout(30 * time.Second))
	phoneRouter.Use(middleware.ContentTypeJSON)
	phoneRouter.Use(middleware.LatencyMiddleware(h.metrics))
	phoneRouter.With(middleware.RequireAuth(h.jwtValidator, h.logger)).Post("/otp", h.handleIssueCode)
	phoneRouter.Post("/otp/resend", h.handleResendCode)
	phoneRouter.Post("/verify", h.handleVerifyCode)

	r.Mount("/phone", phoneRouter)
}

// handleIssueCode starts a verification challenge for the authenticated
// account.
func (h *Handler) handleIssueCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	// The middleware has already validated the JWT and set the account in context
	accountID := middleware.GetAccountID(ctx)
	if accountID.IsNil() {
		h.logger.ErrorContext(ctx, "account ID missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var issueReq phoneModel.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&issueReq); err != nil {
		h.logger.WarnContext(ctx, "invalid issue code request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	phone, err := issueReq.Phone()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.phone.Issue(ctx, accountID, phone)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to issue security code", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result)
}

// handleResendCode re-dispatches the current code for the caller's issuance.
func (h *Handler) handleResendCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var resendReq phoneModel.ResendRequest
	if err := json.NewDecoder(r.Body).Decode(&resendReq); err != nil {
		h.logger.WarnContext(ctx, "invalid resend request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := resendReq.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	phone, err := resendReq.Phone()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.phone.Resend(ctx, phone, resendReq.SessionToken)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to resend security code", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// handleVerifyCode consumes the submitted code.
func (h *Handler) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var verifyReq phoneModel.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&verifyReq); err != nil {
		h.logger.WarnContext(ctx, "invalid verify request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := verifyReq.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	phone, err := verifyReq.Phone()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.phone.Verify(ctx, phone, verifyReq.SessionToken, verifyReq.SecurityCode); err != nil {
		h.writeServiceError(ctx, w, "failed to verify security code", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"phone_number": phone,
		"verified":     true,
	})
}

// writeServiceError maps domain errors to responses. Anything without a
// client-facing code is logged and collapsed to a generic 500.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	requestID := middleware.GetRequestID(ctx)
	code := dErrors.GetCode(err)
	if code == "" || code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
		return
	}
	h.logger.WarnContext(ctx, msg,
		"request_id", requestID,
		"code", string(code),
		"error", err.Error(),
	)
	httputil.WriteError(w, err)
}
