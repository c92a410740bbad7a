package repositories

import "eminence/internal/models"

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
	// SetTelegramMessageID records the channel message reference as a second,
	// independent write after the row itself has been committed.
	SetTelegramMessageID(id uint, messageID int64) error
	// FindUnsynced returns products that never got a Telegram message.
	FindUnsynced() ([]models.Product, error)
	// ExistsByNameAndCode reports whether another product (excluding
	// excludeID when non-zero) already uses the given name and code.
	ExistsByNameAndCode(name, code string, excludeID uint) (bool, error)
	// DeleteByCategory removes every product referencing the category.
	DeleteByCategory(categoryID uint) error
}
