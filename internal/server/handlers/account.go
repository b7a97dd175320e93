package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lekka141/VaultConnect/pkg/api"
)

// AccountHandler serves the authenticated account's own resources.
// Every route must sit behind middleware.AuthMiddleware.
type AccountHandler struct {
	logger  *slog.Logger
	service CredentialService
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(logger *slog.Logger, service CredentialService) *AccountHandler {
	return &AccountHandler{
		logger:  logger,
		service: service,
	}
}

// Me handles GET /api/v1/users/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := GetIdentity(ctx)
	if !ok {
		SendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	account, err := h.service.Profile(ctx, id.AccountID)
	if err != nil {
		writeServiceError(ctx, h.logger, w, "profile lookup failed", err)
		return
	}

	SendJSON(h.logger, w, api.ProfileResponse{
		Success: true,
		Account: api.Account{
			ID:          account.ID,
			Username:    account.Username,
			Email:       account.Email,
			DisplayName: account.DisplayName,
			CreatedAt:   account.CreatedAt,
		},
	}, http.StatusOK)
}

// ChangePassword handles PUT /api/v1/users/me/password.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := GetIdentity(ctx)
	if !ok {
		SendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req api.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode change password request", slog.Any("error", err))
		SendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.ChangePassword(ctx, id.AccountID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(ctx, h.logger, w, "password change failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
