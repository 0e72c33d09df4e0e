package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stayloop/stays-service/internal/utils"
)

type contextKey string

const ContextKeyUserID contextKey = "user_id"

// UserIDFromContext returns the authenticated user, or uuid.Nil when the
// request skipped auth middleware.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ContextKeyUserID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// AuthMiddleware validates the Bearer token and stashes the subject's user ID
// on the request context.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				utils.RespondErrorWithCode(w, http.StatusUnauthorized,
					utils.ErrCodeUnauthorized, "Missing or malformed Authorization header", nil)
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims := jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, &claims,
				func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, errors.New("unexpected signing method")
					}
					return secret, nil
				},
			)
			if err != nil || !token.Valid {
				code := utils.ErrCodeUnauthorized
				if errors.Is(err, jwt.ErrTokenExpired) {
					code = utils.ErrCodeTokenExpired
				}
				utils.RespondErrorWithCode(w, http.StatusUnauthorized,
					code, "Invalid or expired token", nil, err)
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				utils.RespondErrorWithCode(w, http.StatusUnauthorized,
					utils.ErrCodeUnauthorized, "Invalid token subject", nil, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
