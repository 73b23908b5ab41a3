/**
 * @description
 * Registration, login, and profile handlers plus HS256 token issuance.
 * Tokens carry the account ID in the `sub` claim and expire after the
 * configured TTL.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: Token signing.
 * - internal/app, internal/domain, internal/store: Business logic and models.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/AllanKariuki/ledger-service/internal/app"
	"github.com/AllanKariuki/ledger-service/internal/domain"
	"github.com/AllanKariuki/ledger-service/internal/store"
)

// TokenIssuer signs authentication tokens for accounts.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer with the given signing secret and TTL.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed HS256 token for the account.
func (t *TokenIssuer) Issue(accountID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": accountID.String(),
		"iat": now.Unix(),
		"exp": now.Add(t.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

type authResponse struct {
	Token   string          `json:"token"`
	Account *domain.Account `json:"account"`
}

// RegisterHandler creates a new account and returns a token for it.
func (h *LedgerHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "username, email, and password are required")
		return
	}

	account, err := h.auth.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateAccount) {
			h.writeError(w, http.StatusConflict, "An account with that username or email already exists")
			return
		}
		log.Printf("level=error component=api endpoint=register msg=\"registration failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	token, err := h.tokens.Issue(account.ID)
	if err != nil {
		log.Printf("level=error component=api endpoint=register msg=\"token issue failed\" account=%s err=%v", account.ID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	h.writeJSON(w, http.StatusCreated, authResponse{Token: token, Account: account})
}

// LoginHandler authenticates credentials and returns a token.
func (h *LedgerHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.auth.Authenticate(r.Context(), req)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) {
			h.writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Printf("level=error component=api endpoint=login msg=\"authentication failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to authenticate")
		return
	}

	token, err := h.tokens.Issue(account.ID)
	if err != nil {
		log.Printf("level=error component=api endpoint=login msg=\"token issue failed\" account=%s err=%v", account.ID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	h.writeJSON(w, http.StatusOK, authResponse{Token: token, Account: account})
}

// ProfileHandler returns the authenticated account.
func (h *LedgerHandlers) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get account ID from context")
		return
	}

	account, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			h.writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		log.Printf("level=error component=api endpoint=profile msg=\"profile lookup failed\" account=%s err=%v", accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	h.writeJSON(w, http.StatusOK, account)
}
