package repositories

import "eminence/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	GetByUsername(username string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	Update(user *models.User) error
}
