package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Deposit    TransactionType = "deposit"
	Withdrawal TransactionType = "withdrawal"
	Transfer   TransactionType = "transfer"
)

func (t TransactionType) Valid() bool {
	switch t {
	case Deposit, Withdrawal, Transfer:
		return true
	}
	return false
}

// Transaction is an append-only ledger entry. A transfer is recorded once,
// for the sender.
type Transaction struct {
	ID               int64
	UserID           int64
	Username         string
	Type             TransactionType
	Amount           decimal.Decimal
	Recipient        string
	RecipientAccount string
	Description      string
	Timestamp        time.Time
}

// TransactionRequest is a validated instruction to move money.
type TransactionRequest struct {
	Type             TransactionType
	Amount           decimal.Decimal
	Recipient        string
	RecipientAccount string
	Description      string
}
