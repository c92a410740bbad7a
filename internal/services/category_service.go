package services

import (
	"fmt"

	"eminence/internal/apperrors"
	"eminence/internal/models"
	"eminence/internal/repositories"
)

// CategoryService handles category CRUD. Deleting a category removes its
// products first; the two statements run without a surrounding transaction,
// so a failure in between leaves partial state (accepted, see spec of the
// cascade in the HTTP docs).
type CategoryService struct {
	categoryRepo repositories.CategoryRepository
	productRepo  repositories.ProductRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categoryRepo repositories.CategoryRepository, productRepo repositories.ProductRepository) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

// List retrieves all categories ordered by id.
func (s *CategoryService) List() ([]models.Category, error) {
	return s.categoryRepo.GetAll()
}

// Create adds a new category.
func (s *CategoryService) Create(name string) (*models.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("missing category name: %w", apperrors.ErrValidation)
	}
	category := &models.Category{Name: name}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

// Rename changes a category's display name.
func (s *CategoryService) Rename(id uint, name string) (*models.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("missing category name: %w", apperrors.ErrValidation)
	}
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	category.Name = name
	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category together with all products referencing it.
func (s *CategoryService) Delete(id uint) error {
	if _, err := s.categoryRepo.GetByID(id); err != nil {
		return err
	}
	if err := s.productRepo.DeleteByCategory(id); err != nil {
		return fmt.Errorf("failed to cascade category %d delete: %w", id, err)
	}
	return s.categoryRepo.Delete(id)
}
