package models

import "github.com/shopspring/decimal"

// Profile is the single balance record owned by a user.
type Profile struct {
	ID            int64
	UserID        int64
	AccountNumber string
	Balance       decimal.Decimal
}
