package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/cinewave/cinewave-api/internal/logging"
	"github.com/cinewave/cinewave-api/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrFirstNameRequired  = errors.New("first name is required")
	ErrLastNameRequired   = errors.New("last name is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordWeak       = errors.New("password must contain an uppercase letter, a lowercase letter and a digit")
	ErrForbidden          = errors.New("operation not allowed for this account")
)

const minPasswordLength = 8

// UserStore is the persistence the auth service needs.
type UserStore interface {
	Create(ctx context.Context, firstName, lastName, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	List(ctx context.Context) ([]*user.User, error)
	Update(ctx context.Context, id uuid.UUID, changes user.Changes) (*user.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// UpdateInput carries optional account changes. Empty fields are left as is.
type UpdateInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string     `json:"token"`
	TokenType string     `json:"tokenType"`
	User      *user.User `json:"user"`
}

// Service handles account business logic
type Service struct {
	users  UserStore
	tokens TokenIssuer
	logger *logging.Logger
}

func NewService(users UserStore, tokens TokenIssuer, logger *logging.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Register validates input and creates a new account
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)

	if in.FirstName == "" {
		return nil, ErrFirstNameRequired
	}
	if in.LastName == "" {
		return nil, ErrLastNameRequired
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, in.FirstName, in.LastName, in.Email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login checks credentials and issues an access token whose subject is the user's email
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(existingUser.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	s.logger.Debug("access token issued", "user_id", existingUser.ID)

	return &LoginResult{
		Token:     token,
		TokenType: "Bearer",
		User:      existingUser,
	}, nil
}

// Profile returns the account the principal refers to. Subjects are email
// addresses; a subject that is not a known email but parses as a user id is
// looked up by id.
func (s *Service) Profile(ctx context.Context, p Principal) (*user.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(p.Subject))
	if err == nil || !errors.Is(err, user.ErrNotFound) {
		return u, err
	}
	if id, parseErr := uuid.Parse(p.Subject); parseErr == nil {
		return s.users.GetByID(ctx, id)
	}
	return nil, err
}

func (s *Service) ListUsers(ctx context.Context) ([]*user.User, error) {
	return s.users.List(ctx)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.users.GetByEmail(ctx, normalizeEmail(email))
}

// UpdateUser changes the principal's own account
func (s *Service) UpdateUser(ctx context.Context, p Principal, id uuid.UUID, in UpdateInput) (*user.User, error) {
	if err := s.checkOwner(ctx, p, id); err != nil {
		return nil, err
	}

	var changes user.Changes
	if name := strings.TrimSpace(in.FirstName); name != "" {
		changes.FirstName = &name
	}
	if name := strings.TrimSpace(in.LastName); name != "" {
		changes.LastName = &name
	}
	if in.Email != "" {
		email := normalizeEmail(in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		changes.Email = &email
	}
	if in.Password != "" {
		if err := validatePassword(in.Password); err != nil {
			return nil, err
		}
		passwordHash, err := HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		changes.PasswordHash = &passwordHash
	}

	return s.users.Update(ctx, id, changes)
}

// DeleteUser removes the principal's own account
func (s *Service) DeleteUser(ctx context.Context, p Principal, id uuid.UUID) error {
	if err := s.checkOwner(ctx, p, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

// checkOwner returns ErrForbidden unless p resolves to the account id.
func (s *Service) checkOwner(ctx context.Context, p Principal, id uuid.UUID) error {
	owner, err := s.Profile(ctx, p)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	if owner.ID != id {
		return ErrForbidden
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > 254 {
		return ErrInvalidEmailFormat
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmailFormat
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrPasswordWeak
	}
	return nil
}
