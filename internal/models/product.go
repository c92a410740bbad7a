package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ImageList is an ordered list of image URLs persisted as a JSON string in
// the legacy `image` text column.
type ImageList []string

// Value implements driver.Valuer. A nil list is stored as an empty JSON array.
func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		l = ImageList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner. Rows written before the upload gateway
// existed may hold a bare filename instead of a JSON array; those are
// wrapped into a single-element list rather than rejected.
func (l *ImageList) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*l = ImageList{}
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("unsupported type %T for image list", value)
	}
	if raw == "" {
		*l = ImageList{}
		return nil
	}
	if err := json.Unmarshal([]byte(raw), l); err != nil {
		*l = ImageList{raw}
	}
	return nil
}

// Product represents a catalog product. TelegramMessageID is nil until the
// product has been successfully mirrored into the Telegram channel and holds
// the identifier of the most recently sent message afterwards.
type Product struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	Name              string    `json:"name" gorm:"type:varchar(255)" validate:"required"`
	Code              string    `json:"code" gorm:"type:varchar(100)" validate:"required"`
	CategoryID        uint      `json:"category_id" validate:"required"`
	PriceCustomer     float64   `json:"price_customer"`
	Description       string    `json:"description"`
	Images            ImageList `json:"image" gorm:"column:image;type:text"`
	Length            float64   `json:"length"`
	Width             float64   `json:"width"`
	Height            float64   `json:"height"`
	Weight            float64   `json:"weight"`
	TelegramMessageID *int64    `json:"telegram_message_id"`

	// CategoryName is filled by the LEFT JOIN in product reads; it is nil
	// when the category reference is dangling and is never written back.
	CategoryName *string `json:"category_name,omitempty" gorm:"->;-:migration"`
}
