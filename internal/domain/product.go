package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned when no product has the requested id.
var ErrProductNotFound = errors.New("product not found")

// ProductID identifies a catalog product.
type ProductID int64

// Product is a catalog entry. Products are immutable once loaded.
type Product struct {
	ID          ProductID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Rating      float64         `json:"rating"`
	Featured    bool            `json:"featured"`
	Image       string          `json:"image"`
}

// Category is a product category value with its display label.
type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// StockStatus labels how much of a product is left.
type StockStatus string

const (
	StockOut StockStatus = "out-of-stock"
	StockLow StockStatus = "low-stock"
	StockIn  StockStatus = "in-stock"
)

// LowStockThreshold is the largest stock level still reported as low.
const LowStockThreshold = 5

// StockStatusOf classifies a stock level.
func StockStatusOf(stock int) StockStatus {
	switch {
	case stock <= 0:
		return StockOut
	case stock <= LowStockThreshold:
		return StockLow
	default:
		return StockIn
	}
}

// Label returns the human readable form of the status.
func (s StockStatus) Label() string {
	switch s {
	case StockOut:
		return "Out of Stock"
	case StockLow:
		return "Low Stock"
	default:
		return "In Stock"
	}
}

// Review is a customer review shown on a product page.
type Review struct {
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SortOption is a catalog sort criterion with its display label.
type SortOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
