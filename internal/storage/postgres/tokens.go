package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/IlyasAtabaev731/banking-backend/internal/domain/models"
	"github.com/IlyasAtabaev731/banking-backend/internal/storage"
	"github.com/google/uuid"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertToken(ctx context.Context, db execer, t *models.Token) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO tokens (token, user_id, created_at, expires_at, last_used_at, is_valid)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.Token, t.UserID, t.CreatedAt, t.ExpiresAt, t.LastUsedAt, t.IsValid,
	)
	return err
}

func (s *Storage) SaveToken(ctx context.Context, t *models.Token) error {
	const op = "storage.postgres.SaveToken"

	if err := insertToken(ctx, s.db, t); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ValidToken returns the token only while it is flagged valid.
func (s *Storage) ValidToken(ctx context.Context, token uuid.UUID) (*models.Token, error) {
	const op = "storage.postgres.ValidToken"

	var t models.Token
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, created_at, expires_at, last_used_at, is_valid
		FROM tokens WHERE token = $1 AND is_valid`, token,
	).Scan(&t.Token, &t.UserID, &t.CreatedAt, &t.ExpiresAt, &t.LastUsedAt, &t.IsValid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &t, nil
}

func (s *Storage) TouchToken(ctx context.Context, token uuid.UUID, at time.Time) error {
	const op = "storage.postgres.TouchToken"

	if _, err := s.db.ExecContext(ctx, `UPDATE tokens SET last_used_at = $1 WHERE token = $2`, at, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// InvalidateToken flips a valid token to invalid. It reports
// storage.ErrTokenNotFound when no valid token matched.
func (s *Storage) InvalidateToken(ctx context.Context, token uuid.UUID) error {
	const op = "storage.postgres.InvalidateToken"

	res, err := s.db.ExecContext(ctx, `UPDATE tokens SET is_valid = FALSE WHERE token = $1 AND is_valid`, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
	}

	return nil
}

func (s *Storage) InvalidateUserTokens(ctx context.Context, userID int64) (int64, error) {
	const op = "storage.postgres.InvalidateUserTokens"

	res, err := s.db.ExecContext(ctx, `UPDATE tokens SET is_valid = FALSE WHERE user_id = $1 AND is_valid`, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
