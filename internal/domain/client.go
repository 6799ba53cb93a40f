package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a customer account. Name and phone are stored as ciphertext
// blobs and go through fieldcrypt to be displayed; city stays cleartext so
// list views and fallbacks never need a decryption round-trip.
type Client struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	NameEnc  []byte `gorm:"column:name_enc" json:"-"`
	PhoneEnc []byte `gorm:"column:phone_enc" json:"-"`
	City     string `json:"city"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Client) TableName() string { return "clients" }

// EncryptedFields returns the ciphertext columns in the shape fieldcrypt
// expects.
func (c *Client) EncryptedFields() map[string][]byte {
	return map[string][]byte{
		"name":  c.NameEnc,
		"phone": c.PhoneEnc,
	}
}
