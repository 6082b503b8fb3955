package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// desktop client and public menu read prices as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:100;not null;index" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Category    string          `gorm:"size:50;not null;index" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	// no default tag: gorm would skip a false value on insert
	Available bool      `gorm:"not null" json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
