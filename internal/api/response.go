package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/IlyasAtabaev731/banking-backend/internal/domain"
	"github.com/IlyasAtabaev731/banking-backend/internal/domain/models"
	"github.com/IlyasAtabaev731/banking-backend/internal/storage"
	"github.com/google/uuid"
)

const (
	msgInternal        = "Internal server error"
	msgMalformed       = "Malformed request body"
	msgNoCredentials   = "Authentication credentials were not provided."
	msgTokenNotGiven   = "Token not provided"
	msgLoggedOut       = "Successfully logged out"
	msgProfileNotFound = "Profile not found"
)

// clientErrors maps domain failures to the text returned with a 400.
var clientErrors = []struct {
	err error
	msg string
}{
	{domain.ErrInvalidCredentials, "Invalid email or password"},
	{domain.ErrInvalidToken, "Invalid token"},
	{domain.ErrTokenExpired, "Token expired"},
	{domain.ErrInsufficientBalance, "Insufficient balance"},
	{domain.ErrMissingRecipient, "Recipient account number is required"},
	{domain.ErrRecipientNotFound, "Recipient account not found"},
	{domain.ErrSelfTransfer, "Cannot transfer to your own account"},
	{domain.ErrBalanceLimit, "Balance would exceed the maximum allowed"},
}

func clientMessage(err error) (string, bool) {
	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			return ce.msg, true
		}
	}
	return "", false
}

type userResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type tokenResponse struct {
	Token     uuid.UUID `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type profileResponse struct {
	AccountNumber string `json:"account_number"`
	Balance       string `json:"balance"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
}

type transactionResponse struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	TransactionType  string    `json:"transaction_type"`
	Amount           string    `json:"amount"`
	Recipient        *string   `json:"recipient"`
	RecipientAccount *string   `json:"recipient_account"`
	Description      *string   `json:"description"`
	Timestamp        time.Time `json:"timestamp"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func newTokenResponse(t *models.Token) tokenResponse {
	return tokenResponse{Token: t.Token, ExpiresAt: t.ExpiresAt}
}

func newProfileResponse(u *models.User, p *models.Profile) profileResponse {
	return profileResponse{
		AccountNumber: p.AccountNumber,
		Balance:       p.Balance.StringFixed(2),
		Email:         u.Email,
		FullName:      u.FullName(),
	}
}

func newTransactionResponse(t *models.Transaction) transactionResponse {
	return transactionResponse{
		ID:               t.ID,
		Username:         t.Username,
		TransactionType:  string(t.Type),
		Amount:           t.Amount.StringFixed(2),
		Recipient:        nullable(t.Recipient),
		RecipientAccount: nullable(t.RecipientAccount),
		Description:      nullable(t.Description),
		Timestamp:        t.Timestamp,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure renders err the way clients expect: field errors and known
// domain failures as 400, everything else as a logged 500.
func (s *APIServer) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, ve.Fields)
		return
	}

	if msg, ok := clientMessage(err); ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if errors.Is(err, storage.ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, msgProfileNotFound)
		return
	}

	s.logger.Error("Request failed", "error", err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, msgInternal)
}
