package models

// Category groups products. Deleting a category cascades to its products.
type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(255)" validate:"required"`
}
