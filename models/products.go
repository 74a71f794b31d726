package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultStockLevel is applied when a product is written without a stock level.
	DefaultStockLevel = 0
	// DefaultMinStockLevel is applied when a product is written without a restock threshold.
	DefaultMinStockLevel = 10

	// PriceIntegerDigits is the integer part of the decimal(10,2) price column.
	PriceIntegerDigits = 8
)

// Product represents a sellable inventory item.
// It optionally belongs to a category and carries stock and pricing attributes.
type Product struct {
	ID             uint            `gorm:"primaryKey"`
	Name           string          `gorm:"size:150;not null;index"`
	Brand          *string         `gorm:"size:100"`
	Price          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CategoryID     *uint           `gorm:"index"`
	Category       *Category       `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	StockLevel     int             `gorm:"not null"`
	MinStockLevel  int             `gorm:"not null"`
	ExpirationDate *time.Time      `gorm:"type:date"`
	Image          []byte          `gorm:"column:image_blob"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p *Product) TableName() string {
	return "products"
}

// IsLowStock reports whether the product is at or below its restock threshold.
func (p *Product) IsLowStock() bool {
	return p.StockLevel <= p.MinStockLevel
}
