package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus is the position of an order on the workshop board
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCutting   OrderStatus = "cutting"
	StatusSewing    OrderStatus = "sewing"
	StatusFitting   OrderStatus = "fitting"
	StatusCompleted OrderStatus = "completed"
)

// OrderStatuses lists the statuses in their conventional workshop order
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusCutting,
	StatusSewing,
	StatusFitting,
	StatusCompleted,
}

// ParseOrderStatus normalizes s and reports whether it names a known status
func ParseOrderStatus(s string) (OrderStatus, bool) {
	candidate := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	return candidate, candidate.IsValid()
}

// IsValid reports whether the status is one of the five board columns
func (s OrderStatus) IsValid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// InProgress reports whether work on the garment has not reached fitting yet
func (s OrderStatus) InProgress() bool {
	return s == StatusPending || s == StatusCutting || s == StatusSewing
}

// PaymentMethod is how the advance was paid
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentWave PaymentMethod = "wave"
)

// IsValid reports whether the method is cash or wave
func (p PaymentMethod) IsValid() bool {
	return p == PaymentCash || p == PaymentWave
}

// ImageKind names one of the image slots on an order
type ImageKind string

const (
	ImageFabric          ImageKind = "fabric"
	ImageClientReference ImageKind = "client-reference"
	ImageSketch          ImageKind = "sketch"
)

// ParseImageKind reports whether s names an image slot
func ParseImageKind(s string) (ImageKind, bool) {
	switch kind := ImageKind(s); kind {
	case ImageFabric, ImageClientReference, ImageSketch:
		return kind, true
	}
	return "", false
}

// Order represents a tailoring job tying one client to one model
type Order struct {
	ID                      string        `gorm:"primaryKey;size:36" json:"id"`
	ClientID                string        `gorm:"not null;index;size:36" json:"client_id"`
	ModelID                 string        `gorm:"not null;index;size:36" json:"model_id"`
	Status                  OrderStatus   `gorm:"not null;default:'pending';index;size:16" json:"status"`
	FabricImageURL          *string       `json:"fabric_image_url"`
	ClientReferenceImageURL *string       `json:"client_reference_image_url"`
	SketchURL               *string       `json:"sketch_url"`
	FabricMeters            *string       `json:"fabric_meters"`
	SuppliesFromStock       []string      `gorm:"serializer:json;type:text" json:"supplies_from_stock"`
	TotalPrice              float64       `gorm:"not null;default:0" json:"total_price"`
	Advance                 float64       `gorm:"not null;default:0" json:"advance"`
	PaymentMethod           PaymentMethod `gorm:"not null;default:'cash';size:16" json:"payment_method"`
	DeliveryDate            Date          `gorm:"not null;index" json:"delivery_date"`
	CompletedAt             *time.Time    `json:"completed_at"`
	CreatedBy               *uint         `json:"created_by"`
	UpdatedBy               *uint         `json:"updated_by"`
	CreatedAt               time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt               time.Time     `json:"updated_at"`

	// Resolved by the enricher; nil when the reference is dangling
	Client *Client `gorm:"-" json:"client"`
	Model  *Model  `gorm:"-" json:"model"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns the order id and default status
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.SuppliesFromStock == nil {
		o.SuppliesFromStock = []string{}
	}
	return nil
}

// Remaining is the balance still owed after the advance
func (o *Order) Remaining() float64 {
	return o.TotalPrice - o.Advance
}

// ImageURL returns the stored URL for an image slot
func (o *Order) ImageURL(kind ImageKind) *string {
	switch kind {
	case ImageFabric:
		return o.FabricImageURL
	case ImageClientReference:
		return o.ClientReferenceImageURL
	case ImageSketch:
		return o.SketchURL
	}
	return nil
}

// ImageURLs returns every non-empty image URL attached to the order
func (o *Order) ImageURLs() []string {
	var urls []string
	for _, u := range []*string{o.FabricImageURL, o.ClientReferenceImageURL, o.SketchURL} {
		if u != nil && *u != "" {
			urls = append(urls, *u)
		}
	}
	return urls
}
