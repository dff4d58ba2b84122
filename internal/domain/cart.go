package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrStockChanged      = errors.New("stock changed")
	ErrCartEmpty         = errors.New("cart is already empty")
)

// CartLine is one product entry in the cart. Name, Price and Image are
// captured when the line is first added.
type CartLine struct {
	ProductID ProductID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

// Subtotal is price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSummary is a derived view of the cart.
type CartSummary struct {
	Lines      []CartLine      `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// FormattedTotal renders the total as dollars with two decimals.
func (s CartSummary) FormattedTotal() string {
	return FormatPrice(s.TotalPrice)
}

// Receipt is what a successful checkout returns. No order is stored.
type Receipt struct {
	Lines      []CartLine      `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// FormatPrice renders an amount as $x.yy.
func FormatPrice(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// StockError reports that the requested quantity exceeds available stock.
type StockError struct {
	ProductID ProductID
	Available int
}

func (e *StockError) Error() string {
	item := "items"
	if e.Available == 1 {
		item = "item"
	}

	return fmt.Sprintf("only %d %s available", e.Available, item)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

// StockChangedError lists cart lines that no longer fit current stock.
type StockChangedError struct {
	ProductIDs []ProductID
}

func (e *StockChangedError) Error() string {
	ids := make([]string, 0, len(e.ProductIDs))
	for _, id := range e.ProductIDs {
		ids = append(ids, strconv.FormatInt(int64(id), 10))
	}

	return "stock changed for products " + strings.Join(ids, ", ")
}

func (e *StockChangedError) Unwrap() error {
	return ErrStockChanged
}
