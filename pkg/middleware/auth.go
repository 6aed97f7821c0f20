package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKeyType string

const employeeIDKey contextKeyType = "employee_id"

// EmployeeIDFromContext returns the authenticated employee ID injected by the
// JWTAuth middleware, or "" when the request is unauthenticated.
func EmployeeIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(employeeIDKey).(string); ok {
		return id
	}
	return ""
}

// WithEmployeeID returns a context carrying the given employee ID. Exposed
// for handler tests that bypass the middleware.
func WithEmployeeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, employeeIDKey, id)
}

// JWTAuth returns middleware that validates HMAC-signed JWTs from the
// Authorization header and injects the employee ID claim into the request
// context. Requests without a resolvable identity are rejected with 401;
// the orchestrator downstream never reads identity from anywhere else.
func JWTAuth(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// OPTIONS requests are always allowed (CORS preflight).
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAuthError(w, "invalid authorization header format")
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid JWT token",
					slog.String("path", r.URL.Path),
					slog.String("error", errString(err)),
				)
				writeAuthError(w, "invalid or expired token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeAuthError(w, "invalid token claims")
				return
			}

			employeeID, _ := claims["employee_id"].(string)
			if employeeID == "" {
				employeeID, _ = claims["sub"].(string)
			}
			if employeeID == "" {
				writeAuthError(w, "token has no employee identity")
				return
			}

			ctx := context.WithValue(r.Context(), employeeIDKey, employeeID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}

func errString(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}
