package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/IlyasAtabaev731/banking-backend/internal/domain"
	"github.com/IlyasAtabaev731/banking-backend/internal/domain/models"
	"github.com/IlyasAtabaev731/banking-backend/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	accountNumberLen      = 10
	accountNumberAttempts = 5
	maxUsernameLen        = 150
	maxNameLen            = 150
	canonicalTokenLen     = 36
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

type Storage interface {
	SaveUser(ctx context.Context, user *models.User, profile *models.Profile, token *models.Token) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
	ProfileByUserID(ctx context.Context, userID int64) (*models.Profile, error)
	SaveToken(ctx context.Context, t *models.Token) error
	ValidToken(ctx context.Context, token uuid.UUID) (*models.Token, error)
	TouchToken(ctx context.Context, token uuid.UUID, at time.Time) error
	InvalidateToken(ctx context.Context, token uuid.UUID) error
	InvalidateUserTokens(ctx context.Context, userID int64) (int64, error)
}

type Config struct {
	TokenTTL    time.Duration
	RememberTTL time.Duration
	BcryptCost  int
	SeedBalance decimal.Decimal
}

type Service struct {
	log     *slog.Logger
	storage Storage
	cfg     Config
	now     func() time.Time
}

func New(log *slog.Logger, storage Storage, cfg Config) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		log:     log,
		storage: storage,
		cfg:     cfg,
		now:     time.Now,
	}
}

// WithClock replaces the time source, used by tests to move past expiry.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

func (in RegisterInput) validate() error {
	v := domain.NewValidationError()

	switch {
	case in.Username == "":
		v.Add("username", "This field is required.")
	case len(in.Username) > maxUsernameLen:
		v.Add("username", "Ensure this field has no more than 150 characters.")
	case !usernamePattern.MatchString(in.Username):
		v.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}

	if in.Email == "" {
		v.Add("email", "This field is required.")
	} else if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		v.Add("email", "Enter a valid email address.")
	}

	if in.Password == "" {
		v.Add("password", "This field is required.")
	}
	if in.PasswordConfirm == "" {
		v.Add("password_confirm", "This field is required.")
	}
	if len(in.FirstName) > maxNameLen {
		v.Add("first_name", "Ensure this field has no more than 150 characters.")
	}
	if len(in.LastName) > maxNameLen {
		v.Add("last_name", "Ensure this field has no more than 150 characters.")
	}

	if v.Empty() && in.Password != in.PasswordConfirm {
		v.Add("password_confirm", "Passwords do not match.")
	}

	return v.OrNil()
}

// Register creates the user, its profile with a seeded balance and a first
// token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, *models.Token, error) {
	const op = "services.auth.Register"

	log := s.log.With(slog.String("op", op), slog.String("username", in.Username))

	in.Email = strings.TrimSpace(in.Email)
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		log.Error("Failed to hash password", "error", err)
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}

	for attempt := 1; ; attempt++ {
		profile := &models.Profile{AccountNumber: newAccountNumber(), Balance: s.cfg.SeedBalance}
		token := s.newToken(now, s.cfg.TokenTTL)

		err = s.storage.SaveUser(ctx, user, profile, token)
		switch {
		case err == nil:
			log.Info("User registered", slog.Int64("user_id", user.ID), slog.String("account", profile.AccountNumber))
			return user, token, nil
		case errors.Is(err, storage.ErrAccountExists) && attempt < accountNumberAttempts:
			log.Warn("Account number collision, retrying", slog.Int("attempt", attempt))
			continue
		case errors.Is(err, storage.ErrUsernameTaken):
			v := domain.NewValidationError()
			v.Add("username", "A user with that username already exists.")
			return nil, nil, v
		case errors.Is(err, storage.ErrEmailTaken):
			v := domain.NewValidationError()
			v.Add("email", "A user with that email already exists.")
			return nil, nil, v
		default:
			log.Error("Failed to save user", "error", err)
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
	}
}

type Session struct {
	User    *models.User
	Token   *models.Token
	Profile *models.Profile
}

// Login checks credentials and issues a token. Without remember all earlier
// tokens of the user are invalidated first.
func (s *Service) Login(ctx context.Context, email, password string, remember bool) (*Session, error) {
	const op = "services.auth.Login"

	log := s.log.With(slog.String("op", op))

	user, err := s.storage.UserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Debug("Wrong password", slog.Int64("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}

	if !remember {
		n, err := s.storage.InvalidateUserTokens(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Debug("Invalidated previous tokens", slog.Int64("user_id", user.ID), slog.Int64("count", n))
	}

	ttl := s.cfg.TokenTTL
	if remember {
		ttl = s.cfg.RememberTTL
	}
	token := s.newToken(s.now(), ttl)
	token.UserID = user.ID

	if err := s.storage.SaveToken(ctx, token); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profile, err := s.storage.ProfileByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("User logged in", slog.Int64("user_id", user.ID), slog.Bool("remember", remember))

	return &Session{User: user, Token: token, Profile: profile}, nil
}

// Logout invalidates the presented token only.
func (s *Service) Logout(ctx context.Context, raw string) error {
	const op = "services.auth.Logout"

	id, err := parseToken(raw)
	if err != nil {
		return err
	}

	err = s.storage.InvalidateToken(ctx, id)
	if errors.Is(err, storage.ErrTokenNotFound) {
		return domain.ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Authenticate resolves a raw token to its user. Expired tokens are flagged
// invalid, live tokens get last_used_at refreshed. It returns
// domain.ErrInvalidToken or domain.ErrTokenExpired when no identity can be
// bound.
func (s *Service) Authenticate(ctx context.Context, raw string) (*models.User, error) {
	const op = "services.auth.Authenticate"

	id, err := parseToken(raw)
	if err != nil {
		return nil, err
	}

	token, err := s.storage.ValidToken(ctx, id)
	if errors.Is(err, storage.ErrTokenNotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	if token.Expired(now) {
		err := s.storage.InvalidateToken(ctx, id)
		if err != nil && !errors.Is(err, storage.ErrTokenNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, domain.ErrTokenExpired
	}

	if err := s.storage.TouchToken(ctx, id, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// CheckToken is Authenticate plus the user's profile.
func (s *Service) CheckToken(ctx context.Context, raw string) (*models.User, *models.Profile, error) {
	const op = "services.auth.CheckToken"

	user, err := s.Authenticate(ctx, raw)
	if err != nil {
		return nil, nil, err
	}

	profile, err := s.storage.ProfileByUserID(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, profile, nil
}

// parseToken accepts only the canonical 36-character hyphenated form.
func parseToken(raw string) (uuid.UUID, error) {
	if len(raw) != canonicalTokenLen {
		return uuid.Nil, domain.ErrInvalidToken
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	return id, nil
}

func (s *Service) newToken(now time.Time, ttl time.Duration) *models.Token {
	return &models.Token{
		Token:      uuid.New(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		LastUsedAt: now,
		IsValid:    true,
	}
}

func newAccountNumber() string {
	var b strings.Builder
	b.Grow(accountNumberLen)
	for i := 0; i < accountNumberLen; i++ {
		b.WriteByte(byte('0' + rand.Intn(10)))
	}
	return b.String()
}
