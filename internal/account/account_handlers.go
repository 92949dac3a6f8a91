package account

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tally/db"
	"tally/internal/auth"
	"tally/models"

	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *Service
	Tokens  *auth.TokenService
}

func NewHandlers(service *Service, tokens *auth.TokenService) *Handlers {
	return &Handlers{Service: service, Tokens: tokens}
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.Service.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeFailure(w, http.StatusBadRequest, "Username and password are required.")
		case errors.Is(err, db.ErrDuplicate):
			writeFailure(w, http.StatusConflict, "User already exists.")
		default:
			log.Printf("signup failed: %v", err)
			writeFailure(w, http.StatusInternalServerError, "Failed to create user.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeFailure(w, http.StatusUnauthorized, "Invalid credentials.")
			return
		}
		log.Printf("login failed: %v", err)
		writeFailure(w, http.StatusInternalServerError, "Error during login.")
		return
	}

	token, err := h.Tokens.Generate(user.Username)
	if err != nil {
		log.Printf("token generation failed: %v", err)
		writeFailure(w, http.StatusInternalServerError, "Error during login.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user, "token": token})
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string `json:"username"`
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	err := h.Service.ResetPassword(r.Context(), req.Username, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			writeFailure(w, http.StatusNotFound, "User not found.")
		case errors.Is(err, ErrInvalidCredentials):
			writeFailure(w, http.StatusUnauthorized, "Old password is incorrect.")
		default:
			log.Printf("password reset failed: %v", err)
			writeFailure(w, http.StatusInternalServerError, "Failed to update password.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username        string           `json:"username"`
		NewUsername     *string          `json:"newUsername"`
		ProfilePicture  *string          `json:"profilePicture"`
		StartingBalance *decimal.Decimal `json:"startingBalance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.Service.UpdateProfile(r.Context(), req.Username, ProfileUpdate{
		NewUsername:     req.NewUsername,
		ProfilePicture:  req.ProfilePicture,
		StartingBalance: req.StartingBalance,
	})
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			writeFailure(w, http.StatusNotFound, "User not found.")
		case errors.Is(err, db.ErrDuplicate):
			writeFailure(w, http.StatusConflict, "New username is already taken.")
		default:
			log.Printf("profile update failed: %v", err)
			writeFailure(w, http.StatusInternalServerError, "Failed to update profile.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		log.Printf("listing users failed: %v", err)
		writeFailure(w, http.StatusInternalServerError, "Failed to list users.")
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "users": users})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": message})
}
