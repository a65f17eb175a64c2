package storage

import (
	"errors"

	"github.com/IlyasAtabaev731/banking-backend/internal/domain/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already exists")
	ErrEmailTaken      = errors.New("email already exists")
	ErrAccountExists   = errors.New("account number already exists")
	ErrProfileNotFound = errors.New("profile not found")
	ErrTokenNotFound   = errors.New("token not found")
)

// ApplyFunc mutates the locked sender (and, for transfers, recipient)
// profiles and returns the ledger entry to record. recipient is nil when no
// profile matches the requested account number. Returning an error aborts
// the whole unit without writing anything.
type ApplyFunc func(sender, recipient *models.Profile) (*models.Transaction, error)
