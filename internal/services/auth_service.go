package services

import (
	"errors"
	"fmt"

	"eminence/internal/apperrors"
	"eminence/internal/models"
	"eminence/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// AuthService verifies and updates admin credentials. Stored passwords are
// bcrypt hashes; comparison never reveals whether the username or the
// password was wrong.
type AuthService struct {
	userRepo repositories.UserRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// CredentialUpdate carries the optional fields of a credential change.
type CredentialUpdate struct {
	Username        string
	CurrentPassword string
	NewPassword     string
}

// Login authenticates a user and returns the account without its secret.
func (s *AuthService) Login(username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("missing credentials: %w", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login lookup failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	user.Password = ""
	return user, nil
}

// UpdateCredentials changes a user's username and/or password. A new
// password is only accepted after the current one verifies against the
// stored hash; a username-only change needs no proof.
func (s *AuthService) UpdateCredentials(id uint, update CredentialUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if update.NewPassword != "" {
		if update.CurrentPassword == "" {
			return nil, apperrors.ErrInvalidCredentials
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(update.CurrentPassword)); err != nil {
			return nil, apperrors.ErrInvalidCredentials
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(update.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashed)
	}

	if update.Username != "" {
		user.Username = update.Username
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update credentials: %w", err)
	}

	user.Password = ""
	return user, nil
}
