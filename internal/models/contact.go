package models

// Contact is an address book entry owned by a single account.
type Contact struct {
	BaseModel

	Name     string `gorm:"not null" json:"name"`
	Email    string `json:"email"`
	Phone    string `gorm:"not null" json:"phone"`
	Favorite bool   `gorm:"default:false" json:"favorite"`

	OwnerID string `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner   *User  `gorm:"foreignKey:OwnerID" json:"-"`
}
