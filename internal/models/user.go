package models

// User is an admin account. Password always holds a bcrypt hash; rows that
// still carry a plaintext password predate the hashed contract and must be
// migrated before they can log in.
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Username string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Password string `json:"-" gorm:"type:varchar(255)"`
}
