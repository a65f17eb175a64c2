package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/IlyasAtabaev731/banking-backend/internal/domain"
	"github.com/IlyasAtabaev731/banking-backend/internal/domain/models"
	"github.com/IlyasAtabaev731/banking-backend/internal/storage"
)

// ApplyTransaction locks the sender profile and, when recipientAccount is
// set, the recipient profile (in account number order), runs apply and
// persists both balances and the returned ledger entry in one transaction.
func (s *Storage) ApplyTransaction(ctx context.Context, userID int64, recipientAccount string, apply storage.ApplyFunc) (*models.Transaction, *models.Profile, error) {
	const op = "storage.postgres.ApplyTransaction"

	var (
		entry  *models.Transaction
		sender *models.Profile
	)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, user_id, account_number, balance FROM profiles
			WHERE user_id = $1 OR account_number = $2
			ORDER BY account_number
			FOR UPDATE`, userID, recipientAccount)
		if err != nil {
			return err
		}

		var recipient *models.Profile
		for rows.Next() {
			var p models.Profile
			if err := rows.Scan(&p.ID, &p.UserID, &p.AccountNumber, &p.Balance); err != nil {
				_ = rows.Close()
				return err
			}
			if p.UserID == userID {
				sender = &p
			}
			if recipientAccount != "" && p.AccountNumber == recipientAccount {
				recipient = &p
			}
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if sender == nil {
			return storage.ErrProfileNotFound
		}

		entry, err = apply(sender, recipient)
		if err != nil {
			return err
		}

		if err := updateBalance(ctx, tx, sender); err != nil {
			return err
		}
		if recipient != nil && recipient.ID != sender.ID {
			if err := updateBalance(ctx, tx, recipient); err != nil {
				return err
			}
		}

		entry.UserID = userID
		return tx.QueryRowContext(ctx,
			`INSERT INTO transactions (user_id, transaction_type, amount, recipient, recipient_account, description, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			entry.UserID, string(entry.Type), entry.Amount,
			nullString(entry.Recipient), nullString(entry.RecipientAccount), nullString(entry.Description),
			entry.Timestamp,
		).Scan(&entry.ID)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return entry, sender, nil
}

func updateBalance(ctx context.Context, tx *sql.Tx, p *models.Profile) error {
	_, err := tx.ExecContext(ctx, `UPDATE profiles SET balance = $1 WHERE id = $2`, p.Balance, p.ID)
	if isNumericOverflow(err) {
		return domain.ErrBalanceLimit
	}
	return err
}

// Transactions lists the user's ledger entries, newest first.
func (s *Storage) Transactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	const op = "storage.postgres.Transactions"

	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, u.username, t.transaction_type, t.amount,
			t.recipient, t.recipient_account, t.description, t.timestamp
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		WHERE t.user_id = $1
		ORDER BY t.timestamp DESC, t.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	res := make([]models.Transaction, 0)
	for rows.Next() {
		var t models.Transaction
		var typ string
		var recipient, recipientAcc, description sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.Username, &typ, &t.Amount,
			&recipient, &recipientAcc, &description, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		t.Type = models.TransactionType(typ)
		t.Recipient = recipient.String
		t.RecipientAccount = recipientAcc.String
		t.Description = description.String
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}
