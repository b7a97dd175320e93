package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lekka141/VaultConnect/internal/models"
	"github.com/Lekka141/VaultConnect/internal/server/auth"
	"github.com/Lekka141/VaultConnect/pkg/api"
	"github.com/Lekka141/VaultConnect/pkg/errutil"
)

// CredentialService is the part of auth.Service the HTTP layer depends on.
type CredentialService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Result, error)
	Login(ctx context.Context, in auth.LoginInput) (*auth.Result, error)
	ChangePassword(ctx context.Context, accountID, current, next string) error
	Profile(ctx context.Context, accountID string) (*models.Account, error)
}

var _ CredentialService = (*auth.Service)(nil)

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	logger  *slog.Logger
	service CredentialService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(logger *slog.Logger, service CredentialService) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		service: service,
	}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		SendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Register(ctx, auth.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeServiceError(ctx, h.logger, w, "register failed", err)
		return
	}

	SendJSON(h.logger, w, authResponse(result, "account created"), http.StatusCreated)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		SendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Login(ctx, auth.LoginInput{
		Identifier: req.LoginIdentifier(),
		Password:   req.Password,
	})
	if err != nil {
		writeServiceError(ctx, h.logger, w, "login failed", err)
		return
	}

	SendJSON(h.logger, w, authResponse(result, "login successful"), http.StatusOK)
}

// Logout handles POST /api/v1/auth/logout. Tokens are not tracked server
// side, so logout only confirms the caller was authenticated; the client
// discards its token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := GetIdentity(ctx)
	if !ok {
		SendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	h.logger.InfoContext(ctx, "user logged out",
		slog.String("account_id", id.AccountID),
		slog.String("username", id.Username))

	SendJSON(h.logger, w, api.MessageResponse{Success: true, Message: "logged out"}, http.StatusOK)
}

func authResponse(result *auth.Result, message string) api.AuthResponse {
	return api.AuthResponse{
		Success:   true,
		Message:   message,
		Token:     result.Token.Value,
		ExpiresAt: result.Token.ExpiresAt,
		Username:  result.Account.Username,
		AccountID: result.Account.ID,
	}
}

// writeServiceError maps auth errors to status codes. Messages for 5xx never
// carry internal detail; the full error is logged instead.
func writeServiceError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, msg string, err error) {
	var vErr *auth.ValidationError

	switch {
	case errors.As(err, &vErr):
		logger.InfoContext(ctx, msg, slog.String("field", vErr.Field), slog.String("reason", vErr.Error()))
		SendError(logger, w, vErr.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrValidation):
		SendError(logger, w, "invalid request", http.StatusBadRequest)
	case errors.Is(err, auth.ErrDuplicateAccount):
		logger.InfoContext(ctx, msg, errutil.Attrs(err)...)
		SendError(logger, w, "username or email already registered", http.StatusConflict)
	case errors.Is(err, auth.ErrInvalidCredentials):
		SendError(logger, w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrUnauthenticated):
		SendError(logger, w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, context.Canceled):
		logger.DebugContext(ctx, msg, slog.String("reason", "client went away"))
	default:
		errutil.LogError(ctx, logger, msg, err)
		SendError(logger, w, "internal server error", http.StatusInternalServerError)
	}
}
