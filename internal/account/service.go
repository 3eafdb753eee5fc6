// Package account handles registration, login and profile updates.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"college-budgeting-backend/internal/model"
	"college-budgeting-backend/internal/storage"
)

// NameCooldownDays is how long a user must wait between display-name changes.
const NameCooldownDays = 30

var (
	ErrInvalidInput       = errors.New("invalid account input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNameCooldown       = errors.New("name can only be changed once every 30 days")
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
}

// Registration is a new local account.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate changes only the fields that are set.
type ProfileUpdate struct {
	UserEmail  string  `json:"user_email"`
	Name       *string `json:"name"`
	PhotoURL   *string `json:"photo_url"`
	Occupation *string `json:"occupation"`
	Age        *int    `json:"age"`
	BirthDate  *string `json:"birth_date"`
}

// Service implements the account operations.
type Service struct {
	store  UserStore
	logger *zap.Logger
	now    func() time.Time
	cost   int
}

// NewService returns a Service backed by store.
func NewService(store UserStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now, cost: bcrypt.DefaultCost}
}

// Register creates a local account. A taken email yields storage.ErrDuplicate.
func (s *Service) Register(ctx context.Context, reg Registration) (*model.User, error) {
	name := strings.TrimSpace(reg.Name)
	email := strings.TrimSpace(reg.Email)
	if name == "" || !strings.Contains(email, "@") || reg.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: password is longer than 72 bytes", ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &model.User{Name: name, Email: email, PasswordHash: string(hash), Provider: "local"}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", u.ID))
	return u, nil
}

// Login checks the password of a local account.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Profile returns the account for email.
func (s *Service) Profile(ctx context.Context, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: user_email is required", ErrInvalidInput)
	}
	return s.store.GetUserByEmail(ctx, email)
}

// UpdateProfile applies upd. A name change inside the cooldown window fails
// with ErrNameCooldown and leaves the profile untouched.
func (s *Service) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*model.User, error) {
	u, err := s.Profile(ctx, upd.UserEmail)
	if err != nil {
		return nil, err
	}
	if upd.Age != nil && *upd.Age < 0 {
		return nil, fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name != "" && name != u.Name {
			now := s.now().UTC()
			if u.NameChangedAt != nil {
				elapsed := int(now.Sub(*u.NameChangedAt).Hours() / 24)
				if elapsed < NameCooldownDays {
					return nil, fmt.Errorf("%w: wait %d more days", ErrNameCooldown, NameCooldownDays-elapsed)
				}
			}
			u.Name = name
			u.NameChangedAt = &now
		}
	}
	if upd.PhotoURL != nil {
		u.PhotoURL = upd.PhotoURL
	}
	if upd.Occupation != nil {
		u.Occupation = upd.Occupation
	}
	if upd.Age != nil {
		u.Age = upd.Age
	}
	if upd.BirthDate != nil {
		u.BirthDate = upd.BirthDate
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
