package middleware

import (
	"net/http"
	"strings"

	"github.com/fieldops/fieldmirror/internal/auth"
)

// AuthMiddleware guards the sync-trigger endpoints with a signed API key,
// accepted either as "Authorization: Bearer <token>" or "X-API-Key".
// An empty secret disables the check entirely (local development).
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if jwtSecret == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := r.Header.Get("X-API-Key")
			if tokenString == "" {
				authHeader := r.Header.Get("Authorization")
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
				if tokenString == authHeader {
					tokenString = ""
				}
			}

			if tokenString == "" {
				http.Error(w, "Unauthorized. Missing API Key", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ParseAPIKey(jwtSecret, tokenString)
			if err != nil {
				http.Error(w, "Unauthorized. Invalid API Key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetClaims(r.Context(), claims)))
		})
	}
}
