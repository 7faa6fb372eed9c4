package models

import (
	"time"

	"gorm.io/datatypes"
)

// CartItem is one experience held in a user's cart. Snapshot keeps the experience as it was
// shown when added.
type CartItem struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       string         `gorm:"size:64;not null;uniqueIndex:idx_cart_user_experience" json:"user_id"`
	ExperienceID string         `gorm:"size:128;not null;uniqueIndex:idx_cart_user_experience" json:"experience_id"`
	Position     int            `gorm:"not null;default:0" json:"position"`
	Snapshot     datatypes.JSON `gorm:"type:json" json:"snapshot"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
