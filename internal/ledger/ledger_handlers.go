package ledger

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tally/db"
	"tally/models"

	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{Service: service}
}

func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Debtor        string          `json:"debtor"`
		Creditor      string          `json:"creditor"`
		Amount        decimal.Decimal `json:"amount"`
		Description   string          `json:"description"`
		PaymentMethod string          `json:"paymentMethod"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	entry, err := h.Service.CreateEntry(r.Context(), CreateEntryInput{
		Debtor:        req.Debtor,
		Creditor:      req.Creditor,
		Amount:        req.Amount,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeFailure(w, http.StatusBadRequest, "Missing required fields.")
			return
		}
		log.Printf("entry creation failed: %v", err)
		writeFailure(w, http.StatusInternalServerError, "Failed to add entry.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "entry": entry})
}

func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.ListEntries(r.Context())
	if err != nil {
		log.Printf("listing entries failed: %v", err)
		writeFailure(w, http.StatusInternalServerError, "Failed to list entries.")
		return
	}
	if entries == nil {
		entries = []*models.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "entries": entries})
}

func (h *Handlers) Approve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	err := h.Service.ApproveEntry(r.Context(), req.ID, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			writeFailure(w, http.StatusNotFound, "Invalid transaction id.")
		case errors.Is(err, ErrNotCreditor):
			writeFailure(w, http.StatusUnauthorized, "Not authorized to approve this transaction.")
		default:
			log.Printf("entry approval failed: %v", err)
			writeFailure(w, http.StatusInternalServerError, "Failed to approve transaction.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": message})
}
