package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/IlyasAtabaev731/banking-backend/internal/domain"
	"github.com/IlyasAtabaev731/banking-backend/internal/domain/models"
	"github.com/shopspring/decimal"
)

func (s *APIServer) profileHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		user := IdentityFrom(r.Context()).User

		profile, err := s.banking.Profile(r.Context(), user.ID)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, newProfileResponse(user, profile))
	}
}

func (s *APIServer) listTransactionsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		user := IdentityFrom(r.Context()).User

		txs, err := s.banking.Transactions(r.Context(), user.ID)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}

		res := make([]transactionResponse, 0, len(txs))
		for i := range txs {
			res = append(res, newTransactionResponse(&txs[i]))
		}

		writeJSON(w, http.StatusOK, res)
	}
}

type TransactionRequest struct {
	TransactionType  string          `json:"transaction_type"`
	Amount           json.RawMessage `json:"amount"`
	Recipient        *string         `json:"recipient"`
	RecipientAccount *string         `json:"recipient_account"`
	Description      *string         `json:"description"`
}

// toModel parses the amount, which may arrive as a JSON number or string.
func (req TransactionRequest) toModel() (models.TransactionRequest, error) {
	res := models.TransactionRequest{
		Type:             models.TransactionType(req.TransactionType),
		Recipient:        deref(req.Recipient),
		RecipientAccount: deref(req.RecipientAccount),
		Description:      deref(req.Description),
	}

	raw := bytes.TrimSpace(req.Amount)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`)) {
		v := domain.NewValidationError()
		v.Add("amount", "This field is required.")
		return res, v
	}

	var amount decimal.Decimal
	if err := amount.UnmarshalJSON(raw); err != nil {
		v := domain.NewValidationError()
		v.Add("amount", "A valid number is required.")
		return res, v
	}
	res.Amount = amount

	return res, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type CreateTransactionResponse struct {
	Transaction transactionResponse `json:"transaction"`
	Profile     profileResponse     `json:"profile"`
}

func (s *APIServer) createTransactionHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		user := IdentityFrom(r.Context()).User

		var body TransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, msgMalformed)
			return
		}

		req, err := body.toModel()
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}

		entry, profile, err := s.banking.Execute(r.Context(), user, req)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, CreateTransactionResponse{
			Transaction: newTransactionResponse(entry),
			Profile:     newProfileResponse(user, profile),
		})
	}
}
