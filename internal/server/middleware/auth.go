package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Lekka141/VaultConnect/internal/observability"
	"github.com/Lekka141/VaultConnect/internal/server/handlers"
	"github.com/Lekka141/VaultConnect/internal/server/jwt"
)

// unauthenticatedMessage is the only body a rejected request ever gets.
const unauthenticatedMessage = "authentication required"

// TokenVerifier checks session tokens.
type TokenVerifier interface {
	Verify(token string) (jwt.Claims, error)
}

// AuthMiddleware admits only requests carrying a valid "Authorization: Bearer
// <token>" header. Every rejection looks the same to the client; the log
// records the actual cause. metrics may be nil.
func AuthMiddleware(logger *slog.Logger, verifier TokenVerifier, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(ctx, "missing token", slog.String("path", r.URL.Path))
				metrics.TokenVerification(observability.TokenMissing)
				handlers.SendError(logger, w, unauthenticatedMessage, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				logger.WarnContext(ctx, "malformed authorization header", slog.String("path", r.URL.Path))
				metrics.TokenVerification(observability.TokenMalformed)
				handlers.SendError(logger, w, unauthenticatedMessage, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				result := verificationResult(err)
				logger.WarnContext(ctx, "token rejected",
					slog.String("reason", result),
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
				metrics.TokenVerification(result)
				handlers.SendError(logger, w, unauthenticatedMessage, http.StatusUnauthorized)
				return
			}

			metrics.TokenVerification(observability.TokenValid)
			logger.DebugContext(ctx, "user authenticated",
				slog.String("account_id", claims.AccountID),
				slog.String("username", claims.Username))

			ctx = handlers.WithIdentity(ctx, handlers.Identity{
				AccountID: claims.AccountID,
				Username:  claims.Username,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verificationResult(err error) string {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return observability.TokenExpired
	case errors.Is(err, jwt.ErrInvalidSignature):
		return observability.TokenInvalidSignature
	default:
		return observability.TokenMalformed
	}
}
