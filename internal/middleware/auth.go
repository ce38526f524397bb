package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
)

const bearerPrefix = "Bearer "

// AuthMiddleware rejects requests without "Authorization: Bearer <token>" header.
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if token == "" || !strings.HasPrefix(h, bearerPrefix) ||
				subtle.ConstantTimeCompare([]byte(h[len(bearerPrefix):]), []byte(token)) != 1 {
				log.WithField("request_id", middleware.GetReqID(r.Context())).Warn("unauthorized request")
				w.Header().Set("WWW-Authenticate", `Bearer realm="tgchan"`)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
