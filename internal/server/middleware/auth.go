package middleware

import (
	"net/http"
	"strings"

	"account-console/internal/httpjson"
)

const bearerPrefix = "bearer "

// TokenValidator validates a bearer token and returns its subject.
type TokenValidator interface {
	Validate(token string) (subject string, err error)
}

// Auth rejects requests without a valid bearer token with 401 and stores the token subject in the
// request context. A nil validator disables the check.
func Auth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tokens == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r.Header.Get("Authorization"))
			if token == "" {
				httpjson.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			subject, err := tokens.Validate(token)
			if err != nil {
				httpjson.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), subject)))
		})
	}
}

// extractBearer returns the token of an Authorization header value, or "" if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
