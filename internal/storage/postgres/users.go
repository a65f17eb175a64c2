package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/IlyasAtabaev731/banking-backend/internal/domain/models"
	"github.com/IlyasAtabaev731/banking-backend/internal/storage"
)

// SaveUser inserts the user together with its profile and first token.
// IDs are written back into the passed models.
func (s *Storage) SaveUser(ctx context.Context, user *models.User, profile *models.Profile, token *models.Token) error {
	const op = "storage.postgres.SaveUser"

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO users (username, email, first_name, last_name, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.CreatedAt,
		).Scan(&user.ID)
		if err != nil {
			return mapUniqueViolation(err)
		}

		profile.UserID = user.ID
		err = tx.QueryRowContext(ctx,
			`INSERT INTO profiles (user_id, account_number, balance) VALUES ($1, $2, $3) RETURNING id`,
			profile.UserID, profile.AccountNumber, profile.Balance,
		).Scan(&profile.ID)
		if err != nil {
			return mapUniqueViolation(err)
		}

		token.UserID = user.ID
		return insertToken(ctx, tx, token)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.UserByEmail"

	user, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, email, first_name, last_name, password_hash, created_at
		FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) UserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	user, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, email, first_name, last_name, password_hash, created_at
		FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) ProfileByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	const op = "storage.postgres.ProfileByUserID"

	var p models.Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, account_number, balance FROM profiles WHERE user_id = $1`, userID,
	).Scan(&p.ID, &p.UserID, &p.AccountNumber, &p.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &p, nil
}
