/**
 * @description
 * This file contains the HTTP handlers for the ledger-service's transaction
 * endpoints. Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application service, and writing the HTTP response.
 * They act as the bridge between the web layer and the business logic layer.
 *
 * Business rejections arrive from the service as TransactionResult values and
 * map to 4xx responses; only storage and infrastructure faults become 500s.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/AllanKariuki/ledger-service/internal/app"
	"github.com/AllanKariuki/ledger-service/internal/domain"
	"github.com/AllanKariuki/ledger-service/internal/store"
)

// LedgerHandlers holds the application services that handlers will use.
type LedgerHandlers struct {
	service *app.Service
	auth    *app.AuthService
	tokens  *TokenIssuer
}

// NewLedgerHandlers creates a new instance of LedgerHandlers.
func NewLedgerHandlers(service *app.Service, auth *app.AuthService, tokens *TokenIssuer) *LedgerHandlers {
	return &LedgerHandlers{service: service, auth: auth, tokens: tokens}
}

// rejectionStatus maps a business failure reason to its HTTP status.
func rejectionStatus(reason domain.FailureReason) int {
	switch reason {
	case domain.ReasonAccountNotFound:
		return http.StatusNotFound
	case domain.ReasonInsufficientFunds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// TransferHandler handles requests for peer-to-peer transfers.
func (h *LedgerHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	senderID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get account ID from context")
		return
	}

	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Transfer(r.Context(), senderID, req)
	if err != nil {
		log.Printf("level=error component=api endpoint=transfer msg=\"transfer failed\" sender=%s err=%v", senderID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to process transfer")
		return
	}
	if !result.Success {
		h.writeJSON(w, rejectionStatus(result.Reason), result)
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

// SimulateMpesaHandler handles simulated M-Pesa deposits and withdrawals.
func (h *LedgerHandlers) SimulateMpesaHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get account ID from context")
		return
	}

	var req domain.MpesaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.SimulateMpesa(r.Context(), accountID, req)
	if err != nil {
		if errors.Is(err, app.ErrUnsupportedType) {
			h.writeError(w, http.StatusBadRequest, "Transaction type must be DEPOSIT or WITHDRAWAL")
			return
		}
		log.Printf("level=error component=api endpoint=simulate_mpesa msg=\"simulation failed\" account=%s err=%v", accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to process M-Pesa transaction")
		return
	}
	if !result.Success {
		h.writeJSON(w, rejectionStatus(result.Reason), result)
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

// BalanceHandler returns the authenticated account's current balance.
func (h *LedgerHandlers) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get account ID from context")
		return
	}

	balance, err := h.service.GetBalance(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			h.writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		log.Printf("level=error component=api endpoint=balance msg=\"balance lookup failed\" account=%s err=%v", accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch balance")
		return
	}

	h.writeJSON(w, http.StatusOK, domain.BalanceResponse{AccountID: accountID, Balance: balance})
}

// HistoryHandler returns one page of the authenticated account's transaction
// history. Page and limit come from query parameters and fall back to
// defaults when absent or malformed.
func (h *LedgerHandlers) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get account ID from context")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := h.service.GetHistory(r.Context(), accountID, page, limit)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			h.writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		log.Printf("level=error component=api endpoint=history msg=\"history lookup failed\" account=%s err=%v", accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}

	h.writeJSON(w, http.StatusOK, history)
}

// writeJSON is a helper for writing JSON responses.
func (h *LedgerHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *LedgerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
