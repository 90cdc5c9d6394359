package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const subjectContextKey = contextKey("subject")

// RequireBearer rejects requests without a valid bearer token with 401.
// The token subject is put into the request context, see Subject.
func RequireBearer(verifier Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}
			tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found {
				http.Error(w, "Bearer token is required", http.StatusUnauthorized)
				return
			}

			token, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				logger.WarnContext(r.Context(), "Rejected bearer token", "error", err)
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			subject, ok := token.Subject()
			if !ok {
				http.Error(w, "no claim `sub`", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), subjectContextKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Subject returns the subject of the verified token, or "" for anonymous requests.
func Subject(ctx context.Context) string {
	if value, ok := ctx.Value(subjectContextKey).(string); ok {
		return value
	}
	return ""
}
