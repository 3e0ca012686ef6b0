package models

import "time"

// Profile carries the credit balance. Credits are mutated only through
// DeductCredits / AddCredits in db.go; the balance never goes negative.
type Profile struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Profile) TableName() string {
	return "profile"
}
