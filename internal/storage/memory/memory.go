// Package memory is a process-local storage backend. It keeps the same
// contract as the postgres backend and serialises every write under one
// mutex, so a transfer is applied as a single unit.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/IlyasAtabaev731/banking-backend/internal/domain/models"
	"github.com/IlyasAtabaev731/banking-backend/internal/storage"
	"github.com/google/uuid"
)

type Storage struct {
	mu sync.Mutex

	nextUserID    int64
	nextProfileID int64
	nextTxID      int64

	users     map[int64]models.User
	usernames map[string]int64
	emails    map[string]int64

	profiles map[int64]models.Profile // by user id
	accounts map[string]int64         // account number -> user id

	tokens       map[uuid.UUID]models.Token
	transactions []models.Transaction
}

func New() *Storage {
	return &Storage{
		users:     make(map[int64]models.User),
		usernames: make(map[string]int64),
		emails:    make(map[string]int64),
		profiles:  make(map[int64]models.Profile),
		accounts:  make(map[string]int64),
		tokens:    make(map[uuid.UUID]models.Token),
	}
}

func (s *Storage) Stop() error {
	return nil
}

func (s *Storage) SaveUser(_ context.Context, user *models.User, profile *models.Profile, token *models.Token) error {
	const op = "storage.memory.SaveUser"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernames[user.Username]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUsernameTaken)
	}
	if _, ok := s.emails[user.Email]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrEmailTaken)
	}
	if _, ok := s.accounts[profile.AccountNumber]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAccountExists)
	}

	s.nextUserID++
	s.nextProfileID++
	user.ID = s.nextUserID
	profile.ID = s.nextProfileID
	profile.UserID = user.ID
	token.UserID = user.ID

	s.users[user.ID] = *user
	s.usernames[user.Username] = user.ID
	s.emails[user.Email] = user.ID
	s.profiles[user.ID] = *profile
	s.accounts[profile.AccountNumber] = user.ID
	s.tokens[token.Token] = *token

	return nil
}

func (s *Storage) UserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, fmt.Errorf("storage.memory.UserByEmail: %w", storage.ErrUserNotFound)
	}
	u := s.users[id]
	return &u, nil
}

func (s *Storage) UserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("storage.memory.UserByID: %w", storage.ErrUserNotFound)
	}
	return &u, nil
}

func (s *Storage) ProfileByUserID(_ context.Context, userID int64) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("storage.memory.ProfileByUserID: %w", storage.ErrProfileNotFound)
	}
	return &p, nil
}

func (s *Storage) SaveToken(_ context.Context, t *models.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[t.Token] = *t
	return nil
}

func (s *Storage) ValidToken(_ context.Context, token uuid.UUID) (*models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok || !t.IsValid {
		return nil, fmt.Errorf("storage.memory.ValidToken: %w", storage.ErrTokenNotFound)
	}
	return &t, nil
}

func (s *Storage) TouchToken(_ context.Context, token uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tokens[token]; ok {
		t.LastUsedAt = at
		s.tokens[token] = t
	}
	return nil
}

func (s *Storage) InvalidateToken(_ context.Context, token uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok || !t.IsValid {
		return fmt.Errorf("storage.memory.InvalidateToken: %w", storage.ErrTokenNotFound)
	}
	t.IsValid = false
	s.tokens[token] = t
	return nil
}

func (s *Storage) InvalidateUserTokens(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, t := range s.tokens {
		if t.UserID == userID && t.IsValid {
			t.IsValid = false
			s.tokens[k] = t
			n++
		}
	}
	return n, nil
}

func (s *Storage) ApplyTransaction(_ context.Context, userID int64, recipientAccount string, apply storage.ApplyFunc) (*models.Transaction, *models.Profile, error) {
	const op = "storage.memory.ApplyTransaction"

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.profiles[userID]
	if !ok {
		return nil, nil, fmt.Errorf("%s: %w", op, storage.ErrProfileNotFound)
	}
	sender := stored

	var recipient *models.Profile
	if recipientAccount != "" {
		if rid, ok := s.accounts[recipientAccount]; ok {
			r := s.profiles[rid]
			recipient = &r
		}
	}

	entry, err := apply(&sender, recipient)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	s.profiles[userID] = sender
	if recipient != nil && recipient.UserID != userID {
		s.profiles[recipient.UserID] = *recipient
	}

	s.nextTxID++
	entry.ID = s.nextTxID
	entry.UserID = userID
	s.transactions = append(s.transactions, *entry)

	return entry, &sender, nil
}

func (s *Storage) Transactions(_ context.Context, userID int64) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]models.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID {
			t.Username = s.users[userID].Username
			res = append(res, t)
		}
	}

	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Timestamp.Equal(res[j].Timestamp) {
			return res[i].ID > res[j].ID
		}
		return res[i].Timestamp.After(res[j].Timestamp)
	})

	return res, nil
}
