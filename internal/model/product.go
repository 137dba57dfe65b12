package model

import (
	"time"

	"gorm.io/gorm"
)

// Product is a single version record in a product's version chain.
// One row exists per (product_id, version); exactly one row per product_id
// carries is_current = true.
type Product struct {
	ID uint `json:"-" gorm:"primarykey"`

	// Version chain fields
	ProductID        string    `json:"product_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_product_version;index:idx_product_current"`
	Version          int       `json:"version" gorm:"not null;uniqueIndex:idx_product_version"`
	IsCurrent        bool      `json:"is_current" gorm:"not null;default:false;index:idx_product_current"`
	VersionCreatedAt time.Time `json:"version_created_at"`
	VersionCreatedBy string    `json:"version_created_by" gorm:"type:varchar(100)"`
	ChangeNotes      string    `json:"change_notes,omitempty" gorm:"type:text"`

	// Mutable attribute set, replaced wholesale on every new version.
	// Stock is nullable: nil means the product is not stock-tracked.
	Name        string           `json:"name" gorm:"type:varchar(255);not null"`
	Description string           `json:"description" gorm:"type:text"`
	SKU         string           `json:"sku" gorm:"type:varchar(100)"`
	Price       float64          `json:"price"`
	Currency    string           `json:"currency" gorm:"type:varchar(3);default:'USD'"`
	Stock       *int             `json:"stock,omitempty"`
	Variants    []ProductVariant `json:"variants,omitempty" gorm:"serializer:json"`
	Images      []string         `json:"images,omitempty" gorm:"serializer:json"`
	CategoryIDs []uint           `json:"category_ids,omitempty" gorm:"serializer:json"`
	TenantID    uint             `json:"tenant_id" gorm:"index;not null"`
	MarketID    uint             `json:"market_id" gorm:"index"`
	IsActive    bool             `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductVariant lives inside the owning version record's serialized
// variant collection, never as its own row.
type ProductVariant struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	SKU   string  `json:"sku"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// Variant returns the variant with the given id, or nil if absent.
func (p *Product) Variant(variantID string) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// ProductCategory represents product categories. Categories form a tree
// via ParentID within a tenant.
type ProductCategory struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	ParentID  *uint          `json:"parent_id,omitempty" gorm:"index"`
	TenantID  uint           `json:"tenant_id" gorm:"index;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
