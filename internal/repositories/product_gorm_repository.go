package repositories

import (
	"errors"
	"fmt"

	"eminence/internal/apperrors"
	"eminence/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// joined builds the base query that resolves each product's category name.
func (r *GORMProductRepository) joined() *gorm.DB {
	return r.db.Model(&models.Product{}).
		Select("products.*, categories.name AS category_name").
		Joins("LEFT JOIN categories ON categories.id = products.category_id")
}

// GetAll retrieves all products with their category names, ordered by id.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.joined().Order("products.id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID with its category name.
func (r *GORMProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.joined().Where("products.id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &product, nil
}

// Create inserts a new product row.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update persists all fields of an existing product.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %d: %w", product.ID, apperrors.ErrNotFound)
	}
	return nil
}

// Delete removes a product row by its ID.
func (r *GORMProductRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// SetTelegramMessageID stores the channel message reference for a product.
func (r *GORMProductRepository) SetTelegramMessageID(id uint, messageID int64) error {
	res := r.db.Model(&models.Product{}).Where("id = ?", id).Update("telegram_message_id", messageID)
	if res.Error != nil {
		return fmt.Errorf("failed to set telegram message id for product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// FindUnsynced lists products whose telegram_message_id is still null.
func (r *GORMProductRepository) FindUnsynced() ([]models.Product, error) {
	var products []models.Product
	if err := r.joined().
		Where("products.telegram_message_id IS NULL").
		Order("products.id").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find unsynced products: %w", err)
	}
	return products, nil
}

// ExistsByNameAndCode reports whether the (name, code) pair is already taken.
func (r *GORMProductRepository) ExistsByNameAndCode(name, code string, excludeID uint) (bool, error) {
	query := r.db.Model(&models.Product{}).Where("name = ? AND code = ?", name, code)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check product uniqueness: %w", err)
	}
	return count > 0, nil
}

// DeleteByCategory removes all products referencing the given category.
// Deleting zero rows is not an error.
func (r *GORMProductRepository) DeleteByCategory(categoryID uint) error {
	if err := r.db.Where("category_id = ?", categoryID).Delete(&models.Product{}).Error; err != nil {
		return fmt.Errorf("failed to delete products of category %d: %w", categoryID, err)
	}
	return nil
}
