package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a workshop customer. Orders reference clients by id.
type Client struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Noms      string         `gorm:"not null" json:"noms"`
	Surnom    *string        `json:"surnom"`
	Phone     *string        `json:"phone"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Client model
func (Client) TableName() string {
	return "clients"
}

// BeforeCreate assigns the client id
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// DisplayName prefers the full name and falls back to the nickname
func (c *Client) DisplayName() string {
	if c.Noms != "" {
		return c.Noms
	}
	if c.Surnom != nil {
		return *c.Surnom
	}
	return ""
}

// Model is a garment from the workshop catalogue
type Model struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Category  *string        `json:"category"`
	BasePrice float64        `gorm:"not null;default:0" json:"base_price"`
	ImageURL  *string        `json:"image_url"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Model model
func (Model) TableName() string {
	return "models"
}

// BeforeCreate assigns the model id
func (m *Model) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
