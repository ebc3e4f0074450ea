package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"dashboard-api/internal/domain"
	"dashboard-api/internal/repository"
)

// MinPasswordLength is the shortest password accepted on register or change.
const MinPasswordLength = 6

var (
	// ErrInvalidCredentials is shared by unknown-email and wrong-password logins.
	ErrInvalidCredentials = domain.Authentication("Invalid email or password")
	// ErrWrongCurrentPassword is returned by ChangePassword on a hash mismatch.
	ErrWrongCurrentPassword = domain.Authentication("Current password is incorrect")
	// ErrUserAlreadyExists is returned when registering an existing email.
	ErrUserAlreadyExists = domain.Conflict("Email is already registered")
	// ErrUserNotFound is returned when the session's user no longer exists.
	ErrUserNotFound = domain.NotFound("User not found")
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string
	User  domain.PublicUser
}

// UserService describes account lifecycle operations.
type UserService interface {
	Register(ctx context.Context, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ChangePassword(ctx context.Context, identity Identity, currentPassword, newPassword, confirmPassword string) error
	GetCurrentUser(ctx context.Context, identity Identity) (*domain.PublicUser, error)
}

type userService struct {
	users      repository.UserRepository
	tokens     TokenManager
	bcryptCost int
	validate   *validator.Validate
	logger     logrus.FieldLogger
}

func NewUserService(users repository.UserRepository, tokens TokenManager, bcryptCost int, logger logrus.FieldLogger) UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &userService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		validate:   validator.New(),
		logger:     logger,
	}
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if err := s.checkEmail(email); err != nil {
		return nil, err
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.logger.WithField("email", email).Info("registration rejected: email already registered")
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"email": email, "user_id": user.ID}).Info("user registered")
	return &AuthResult{Token: token, User: user.Public()}, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, domain.Validation("Email is required")
	}
	if password == "" {
		return nil, domain.Validation("Password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.WithField("email", email).Warn("login failed: unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, fmt.Errorf("compare password: %w", err)
		}
		s.logger.WithField("email", email).Warn("login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}

func (s *userService) ChangePassword(ctx context.Context, identity Identity, currentPassword, newPassword, confirmPassword string) error {
	if currentPassword == "" {
		return domain.Validation("Current password is required")
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	if newPassword != confirmPassword {
		return domain.Validation("New password and confirmation do not match")
	}

	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("compare password: %w", err)
		}
		s.logger.WithField("user_id", user.ID).Warn("password change rejected: wrong current password")
		return ErrWrongCurrentPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.logger.WithField("user_id", user.ID).Info("password changed")
	return nil
}

func (s *userService) GetCurrentUser(ctx context.Context, identity Identity) (*domain.PublicUser, error) {
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

func (s *userService) checkEmail(email string) error {
	if email == "" {
		return domain.Validation("Email is required")
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return domain.Validation("Please enter a valid email address")
	}
	return nil
}

func checkPassword(password string) error {
	if password == "" {
		return domain.Validation("Password is required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return domain.Validation("Password must be at least %d characters long", MinPasswordLength)
	}
	return nil
}
