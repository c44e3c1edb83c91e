package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Service provides authentication operations.
type Service struct {
	userRepo   UserRepository
	tokens     *TokenCodec
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(userRepo UserRepository, tokens *TokenCodec, bcryptCost int) *Service {
	return &Service{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

// Authenticate resolves an Authorization header value to an Identity.
// Every failure wraps one of ErrMissingToken, ErrMalformedToken,
// ErrUserNotFoundOrInactive or ErrTokenVerification.
func (s *Service) Authenticate(ctx context.Context, authorization string) (*Identity, error) {
	if authorization == "" {
		return nil, ErrMissingToken
	}

	userID, err := s.tokens.Decode(StripBearer(authorization))
	if err != nil {
		return nil, err
	}

	u, err := s.userRepo.FindActiveByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFoundOrInactive
		}
		return nil, fmt.Errorf("%w: finding user: %w", ErrTokenVerification, err)
	}

	return identityFor(u), nil
}

// Login checks the credentials and issues a token for the user.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("finding user by email: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	if !u.IsActive {
		return nil, "", ErrUserInactive
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issuing token: %w", err)
	}

	return u, token, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := s.userRepo.FindActiveByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("finding user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return ErrWrongPassword
	}
	if current == next {
		return ErrSamePassword
	}

	hash, err := s.HashPassword(next)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}

// HashPassword returns the bcrypt hash of a password.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Profile returns the active user behind an identity.
func (s *Service) Profile(ctx context.Context, userID int64) (*User, error) {
	return s.userRepo.FindActiveByID(ctx, userID)
}

// BootstrapAdmin creates the initial admin if the users table is empty.
// Returns true when a user was created.
func (s *Service) BootstrapAdmin(ctx context.Context, email, password string) (bool, error) {
	count, err := s.userRepo.CountAll(ctx)
	if err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}

	if count > 0 {
		return false, nil
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return false, err
	}

	u := &User{
		Name:         "admin",
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return false, fmt.Errorf("creating admin: %w", err)
	}

	slog.Info("admin user created", "email", u.Email, "id", u.ID)
	return true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
