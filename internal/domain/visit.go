package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visit is a field activity event. Amount > 0 marks a sale; a plain
// check-in visit carries Amount == 0.
type Visit struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ClientID uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Client   *Client   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ClientID;references:ID" json:"client,omitempty"`

	Date    time.Time `gorm:"not null;index" json:"date"`
	Amount  float64   `gorm:"not null;default:0" json:"amount"`
	Outcome string    `json:"outcome"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Visit) TableName() string { return "visits" }
