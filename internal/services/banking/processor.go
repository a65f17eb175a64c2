package banking

import (
	"github.com/IlyasAtabaev731/banking-backend/internal/domain"
	"github.com/IlyasAtabaev731/banking-backend/internal/domain/models"
	"github.com/shopspring/decimal"
)

const (
	amountScale       = 2
	amountWholeDigits = 13
	maxRecipientLen   = 100
	maxAccountNumLen  = 20
)

// maxBalance is the first value that no longer fits NUMERIC(15, 2).
var maxBalance = decimal.New(1, amountWholeDigits)

// Validate checks a transaction request before any profile is touched.
func Validate(req models.TransactionRequest) error {
	v := domain.NewValidationError()

	if req.Type == "" {
		v.Add("transaction_type", "This field is required.")
	} else if !req.Type.Valid() {
		v.Add("transaction_type", `"`+string(req.Type)+`" is not a valid choice.`)
	}

	if msg := checkAmount(req.Amount); msg != "" {
		v.Add("amount", msg)
	}

	if len(req.Recipient) > maxRecipientLen {
		v.Add("recipient", "Ensure this field has no more than 100 characters.")
	}
	if len(req.RecipientAccount) > maxAccountNumLen {
		v.Add("recipient_account", "Ensure this field has no more than 20 characters.")
	}

	return v.OrNil()
}

// checkAmount looks only at the coefficient length and the exponent, so a
// literal like 1e40000000 is rejected without rescaling it.
func checkAmount(amount decimal.Decimal) string {
	if !amount.IsPositive() {
		return "Ensure this value is greater than 0."
	}

	exp := int(amount.Exponent())
	if exp < -amountScale {
		return "Ensure that there are no more than 2 decimal places."
	}
	if amount.NumDigits()+exp > amountWholeDigits {
		return "Ensure that there are no more than 13 digits before the decimal point."
	}

	return ""
}

// Apply runs the balance rule for req against sender and, for transfers,
// recipient. Profiles are only mutated when no error is returned.
func Apply(sender, recipient *models.Profile, req models.TransactionRequest) error {
	amount := req.Amount

	switch req.Type {
	case models.Deposit:
		next := sender.Balance.Add(amount)
		if next.GreaterThanOrEqual(maxBalance) {
			return domain.ErrBalanceLimit
		}
		sender.Balance = next

	case models.Withdrawal:
		if sender.Balance.LessThan(amount) {
			return domain.ErrInsufficientBalance
		}
		sender.Balance = sender.Balance.Sub(amount)

	case models.Transfer:
		if sender.Balance.LessThan(amount) {
			return domain.ErrInsufficientBalance
		}
		if req.RecipientAccount == "" {
			return domain.ErrMissingRecipient
		}
		if recipient == nil {
			return domain.ErrRecipientNotFound
		}
		if recipient.UserID == sender.UserID {
			return domain.ErrSelfTransfer
		}
		credited := recipient.Balance.Add(amount)
		if credited.GreaterThanOrEqual(maxBalance) {
			return domain.ErrBalanceLimit
		}
		sender.Balance = sender.Balance.Sub(amount)
		recipient.Balance = credited

	default:
		v := domain.NewValidationError()
		v.Add("transaction_type", `"`+string(req.Type)+`" is not a valid choice.`)
		return v
	}

	return nil
}
