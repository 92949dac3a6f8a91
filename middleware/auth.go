package middleware

import (
	"net/http"

	"tally/internal/auth"
)

type Middleware struct {
	Tokens *auth.TokenService
}

func NewMiddleware(tokens *auth.TokenService) *Middleware {
	return &Middleware{Tokens: tokens}
}

// AuthMiddleware rejects requests that do not carry a valid bearer token.
// It only gates access; which user may perform an operation is still
// decided by the services.
func (m *Middleware) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := auth.FromAuthHeader(r.Header.Get("Authorization"))
		if tokenStr == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if _, err := m.Tokens.Parse(tokenStr); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
