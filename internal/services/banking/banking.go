package banking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IlyasAtabaev731/banking-backend/internal/domain/models"
	"github.com/IlyasAtabaev731/banking-backend/internal/storage"
)

type Storage interface {
	ProfileByUserID(ctx context.Context, userID int64) (*models.Profile, error)
	Transactions(ctx context.Context, userID int64) ([]models.Transaction, error)
	ApplyTransaction(ctx context.Context, userID int64, recipientAccount string, apply storage.ApplyFunc) (*models.Transaction, *models.Profile, error)
}

type Service struct {
	log     *slog.Logger
	storage Storage
	now     func() time.Time
}

func New(log *slog.Logger, storage Storage) *Service {
	return &Service{
		log:     log,
		storage: storage,
		now:     time.Now,
	}
}

func (s *Service) Profile(ctx context.Context, userID int64) (*models.Profile, error) {
	const op = "services.banking.Profile"

	p, err := s.storage.ProfileByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// Transactions returns the user's ledger, newest first.
func (s *Service) Transactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	const op = "services.banking.Transactions"

	txs, err := s.storage.Transactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return txs, nil
}

// Execute validates req and applies it to the user's profile. Sender and
// recipient balances and the ledger entry are written as one unit; on any
// error nothing is written.
func (s *Service) Execute(ctx context.Context, user *models.User, req models.TransactionRequest) (*models.Transaction, *models.Profile, error) {
	const op = "services.banking.Execute"

	if err := Validate(req); err != nil {
		return nil, nil, err
	}

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("user_id", user.ID),
		slog.String("type", string(req.Type)),
		slog.String("amount", req.Amount.String()),
	)

	var recipientAccount string
	if req.Type == models.Transfer {
		recipientAccount = req.RecipientAccount
	}

	entry, profile, err := s.storage.ApplyTransaction(ctx, user.ID, recipientAccount,
		func(sender, recipient *models.Profile) (*models.Transaction, error) {
			if err := Apply(sender, recipient, req); err != nil {
				return nil, err
			}
			return &models.Transaction{
				UserID:           user.ID,
				Username:         user.Username,
				Type:             req.Type,
				Amount:           req.Amount,
				Recipient:        req.Recipient,
				RecipientAccount: req.RecipientAccount,
				Description:      req.Description,
				Timestamp:        s.now(),
			}, nil
		})
	if err != nil {
		log.Info("Transaction rejected", "error", err)
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	entry.Username = user.Username
	log.Info("Transaction applied", slog.Int64("transaction_id", entry.ID), slog.String("balance", profile.Balance.String()))

	return entry, profile, nil
}
