package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/IlyasAtabaev731/banking-backend/internal/storage"
	"github.com/lib/pq"
)

const (
	uniqueViolation   = pq.ErrorCode("23505")
	numericOutOfRange = pq.ErrorCode("22003")
)

type Storage struct {
	db *sql.DB
}

func New(dbUrl string) (*Storage, error) {
	db, err := sql.Open("postgres", dbUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection error %s", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect database error %s", err)
	}

	return &Storage{db: db}, nil
}

// NewWithDB wraps an already opened pool.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Stop() error {
	return s.db.Close()
}

// withTx runs fn in a transaction, committing on success and rolling back
// on error or panic.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(tx)
}

// mapUniqueViolation translates unique constraint failures into storage errors.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}

	switch pqErr.Constraint {
	case "users_username_key":
		return storage.ErrUsernameTaken
	case "users_email_key":
		return storage.ErrEmailTaken
	case "profiles_account_number_key":
		return storage.ErrAccountExists
	}
	return err
}

func isNumericOverflow(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == numericOutOfRange
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
