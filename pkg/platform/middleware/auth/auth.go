// Package auth verifies bearer tokens and records the subject in the request
// context. Loading the user and checking permissions happens downstream.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/platform/httputil"
	"estatehub/pkg/requestcontext"
)

// Claims is the subset of token claims the HTTP layer relies on.
type Claims struct {
	UserID   string
	TenantID string
	Role     string
}

// Validator checks a raw bearer token and returns its claims.
type Validator interface {
	ValidateToken(token string) (*Claims, error)
}

var (
	errMissingToken = dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header")
	errBadToken     = dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token")
)

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireBearer rejects requests without a valid token with 401 and stores
// the token subject as the request's user ID.
func RequireBearer(validator Validator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reject := func(reason string, cause, err error) {
				logger.WarnContext(ctx, "bearer token rejected",
					"reason", reason,
					"error", cause,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
			}

			raw, ok := BearerToken(r)
			if !ok {
				reject("missing", nil, errMissingToken)
				return
			}
			claims, err := validator.ValidateToken(raw)
			if err != nil {
				reject("invalid", err, errBadToken)
				return
			}
			userID, err := id.ParseUserID(claims.UserID)
			if err != nil || userID.IsNil() {
				reject("bad_subject", err, errBadToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(ctx, userID)))
		})
	}
}
