package middleware

import (
	"net/http"

	"signalnet/internal/auth"

	"go.uber.org/zap"
)

type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// token subject as the viewer id.
func Authenticate(v TokenValidator, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := v.Validate(r.Header.Get("Authorization"))
			if err != nil {
				logger.Debug("authentication failed",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithViewer(r.Context(), claims.Subject)))
		})
	}
}
