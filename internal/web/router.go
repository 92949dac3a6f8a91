package web

import (
	"net/http"

	"tally/internal/account"
	"tally/internal/auth"
	"tally/internal/ledger"
	"tally/middleware"

	"github.com/gorilla/mux"
)

// SetupRoutes wires the account and ledger handlers onto the REST
// surface. Mutating entry and profile endpoints require a valid token;
// signup, login and the read-only listings do not.
func SetupRoutes(accounts *account.Handlers, entries *ledger.Handlers, tokens *auth.TokenService) *mux.Router {
	r := mux.NewRouter()
	mw := middleware.NewMiddleware(tokens)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/signup", accounts.Signup).Methods("POST")
	api.HandleFunc("/login", accounts.Login).Methods("POST")
	api.HandleFunc("/reset-password", accounts.ResetPassword).Methods("POST")
	api.HandleFunc("/users", accounts.List).Methods("GET")
	api.HandleFunc("/user", mw.AuthMiddleware(accounts.UpdateProfile)).Methods("PUT")

	api.HandleFunc("/entries", entries.List).Methods("GET")
	api.HandleFunc("/entry", mw.AuthMiddleware(entries.Create)).Methods("POST")
	api.HandleFunc("/entry/approve", mw.AuthMiddleware(entries.Approve)).Methods("POST")

	api.HandleFunc("/check-auth", checkAuth(tokens)).Methods("GET")

	return r
}

func checkAuth(tokens *auth.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := auth.FromAuthHeader(r.Header.Get("Authorization"))
		if tokenStr == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if _, err := tokens.Parse(tokenStr); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
