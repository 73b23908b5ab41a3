/**
 * @description
 * Account registration and credential authentication for the ledger-service.
 * Passwords are hashed with bcrypt; token issuance lives in the API layer so
 * the business logic stays transport-agnostic.
 *
 * @dependencies
 * - golang.org/x/crypto/bcrypt: Password hashing.
 * - internal/domain, internal/store: Domain models and data access.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/AllanKariuki/ledger-service/internal/domain"
	"github.com/AllanKariuki/ledger-service/internal/store"
)

// ErrInvalidCredentials is returned when an email/password pair does not
// match a stored account. Unknown email and wrong password are deliberately
// indistinguishable to callers.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles registration and credential checks.
type AuthService struct {
	repo       store.Repository
	bcryptCost int
}

// NewAuthService creates a new AuthService. A cost outside bcrypt's valid
// range falls back to the library default.
func NewAuthService(repo store.Repository, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{repo: repo, bcryptCost: bcryptCost}
}

// Register creates a new account with a zero balance.
func (a *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := a.repo.CreateAccount(ctx, &domain.Account{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		PhoneNumber:  req.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Register: created account id=%s username=%s", account.ID, account.Username)
	return account, nil
}

// Authenticate verifies an email/password pair and returns the account.
func (a *AuthService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.Account, error) {
	account, err := a.repo.FindAccountByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}
