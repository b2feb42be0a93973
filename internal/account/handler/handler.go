package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	accountModel "afridio/internal/account/models"
	"afridio/internal/platform/metrics"
	"afridio/internal/platform/middleware"
	dErrors "afridio/pkg/domain-errors"
	"afridio/pkg/platform/httputil"
)

// Service defines the interface for account operations.
type Service interface {
	Register(ctx context.Context, req *accountModel.RegisterRequest) (*accountModel.RegisterResponse, error)
	Login(ctx context.Context, req *accountModel.LoginRequest) (*accountModel.LoginResponse, error)
}

// Handler handles registration and login endpoints.
type Handler struct {
	logger  *slog.Logger
	account Service
	metrics *metrics.Metrics
}

// New creates a new account Handler.
func New(account Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		account: account,
		metrics: metrics,
	}
}

// Register registers the account routes with the chi router. Both endpoints
// are unauthenticated by nature.
func (h *Handler) Register(r chi.Router) {
	accountRouter := chi.NewRouter()
	accountRouter.Use(middleware.Recovery(h.logger))
	accountRouter.Use(middleware.RequestID)
	accountRouter.Use(middleware.RequestTime)
	accountRouter.Use(middleware.ClientMetadata)
	accountRouter.Use(middleware.Logger(h.logger))
	accountRouter.Use(middleware.Timeout(30 * time.Second))
	accountRouter.Use(middleware.ContentTypeJSON)
	accountRouter.Use(middleware.LatencyMiddleware(h.metrics))
	accountRouter.Post("/accounts", h.handleRegister)
	accountRouter.Post("/auth/login", h.handleLogin)

	r.Mount("/", accountRouter)
}

// handleRegister creates an account and starts phone verification.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var registerReq accountModel.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&registerReq); err != nil {
		h.logger.WarnContext(ctx, "invalid register request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resp, err := h.account.Register(ctx, &registerReq)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to register account", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// handleLogin runs the login gate.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var loginReq accountModel.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		h.logger.WarnContext(ctx, "invalid login request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resp, err := h.account.Login(ctx, &loginReq)
	if err != nil {
		h.writeServiceError(ctx, w, "login attempt rejected", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
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
