package middleware

import (
	"net/http"
	"strings"

	"medibuddy/pkg/auth"
	apperrors "medibuddy/pkg/errors"
	httputil "medibuddy/pkg/http"
	"medibuddy/pkg/logger"
)

// TokenParser turns a raw bearer token into an identity.
type TokenParser interface {
	Parse(raw string) (auth.Identity, error)
}

// Authenticate requires "Authorization: Bearer <token>" and stores the
// resulting identity in the request context.
func Authenticate(parser TokenParser, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				_ = httputil.WriteError(w, apperrors.Unauthorized("Missing bearer token"))
				return
			}

			id, err := parser.Parse(raw)
			if err != nil {
				log.Warn("Rejected bearer token",
					"request_id", logger.RequestID(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
