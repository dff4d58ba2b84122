// Package cartsvc keeps the shopping cart: an ordered list of lines checked
// against live catalog stock and persisted after every change.
package cartsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/infra/logging"
	"github.com/mkrupp/shopzone/internal/repo/kv"
)

// ProductLookup resolves products and their current stock.
type ProductLookup interface {
	FindByID(id domain.ProductID) (domain.Product, bool)
}

// Engine owns the cart. Totals are summed from the lines on every read.
type Engine struct {
	products ProductLookup
	storage  kv.Storage
	log      logging.Logger

	mu          sync.Mutex
	lines       []domain.CartLine
	subscribers []func(domain.CartSummary)
}

// NewEngine restores the cart persisted in storage. An unreadable snapshot
// yields an empty cart.
func NewEngine(ctx context.Context, products ProductLookup, storage kv.Storage) *Engine {
	e := &Engine{
		products: products,
		storage:  storage,
		log:      logging.GetLogger("svc.cartsvc.engine"),
	}

	e.lines = e.load(ctx)

	return e
}

func (e *Engine) load(ctx context.Context) []domain.CartLine {
	raw, ok, err := e.storage.Get(ctx, kv.KeyCartItems)
	if err != nil {
		e.log.WarnContext(ctx, "read cart failed", "error", err)

		return nil
	} else if !ok {
		return nil
	}

	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		e.log.WarnContext(ctx, "stored cart is corrupted", "error", err)

		return nil
	}

	// drop anything that could not have been written by the engine
	lines = slices.DeleteFunc(lines, func(line domain.CartLine) bool {
		return line.Quantity <= 0
	})

	return lines
}

// save must be called with e.mu held.
func (e *Engine) save(ctx context.Context, lines []domain.CartLine) error {
	if lines == nil {
		lines = []domain.CartLine{}
	}

	entry, err := kv.JSONEntry(kv.KeyCartItems, lines)
	if err != nil {
		return err
	}

	if err := e.storage.Put(ctx, entry); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}

	return nil
}

// commit persists lines and, on success, makes them the cart. Must be called
// with e.mu held; subscribers are notified after unlocking.
func (e *Engine) commit(ctx context.Context, lines []domain.CartLine) error {
	if err := e.save(ctx, lines); err != nil {
		return err
	}

	e.lines = lines

	return nil
}

func (e *Engine) index(id domain.ProductID) int {
	return slices.IndexFunc(e.lines, func(line domain.CartLine) bool {
		return line.ProductID == id
	})
}

// Subscribe registers fn to receive the cart summary after every change.
func (e *Engine) Subscribe(fn func(domain.CartSummary)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subscribers = append(e.subscribers, fn)
}

func (e *Engine) notify() {
	e.mu.Lock()
	summary := summarize(e.lines)
	subscribers := slices.Clone(e.subscribers)
	e.mu.Unlock()

	for _, fn := range subscribers {
		fn(summary)
	}
}

// AddItem adds quantity of a product, merging with an existing line. It
// returns the number of lines in the cart. The cart is unchanged on error.
func (e *Engine) AddItem(ctx context.Context, id domain.ProductID, quantity int) (_ int, err error) {
	log := e.log.With(logging.Group("cart", "product", id, "quantity", quantity))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "add item rejected", "error", err)
		} else {
			log.DebugContext(ctx, "item added")
		}
	}()

	product, ok := e.products.FindByID(id)

	switch {
	case !ok:
		return 0, fmt.Errorf("add item %d: %w", id, domain.ErrProductNotFound)
	case product.Stock <= 0:
		return 0, fmt.Errorf("add %s: %w", product.Name, domain.ErrOutOfStock)
	case quantity <= 0:
		return 0, fmt.Errorf("add %d of %s: %w", quantity, product.Name, domain.ErrInvalidQuantity)
	}

	e.mu.Lock()

	lines := slices.Clone(e.lines)

	if i := e.index(id); i >= 0 {
		if quantity > product.Stock-lines[i].Quantity {
			e.mu.Unlock()

			return 0, &domain.StockError{ProductID: id, Available: product.Stock}
		}

		lines[i].Quantity += quantity
	} else {
		if quantity > product.Stock {
			e.mu.Unlock()

			return 0, &domain.StockError{ProductID: id, Available: product.Stock}
		}

		lines = append(lines, domain.CartLine{
			ProductID: id,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
			Image:     product.Image,
		})
	}

	err = e.commit(ctx, lines)
	count := len(e.lines)
	e.mu.Unlock()

	if err != nil {
		return 0, err
	}

	e.notify()

	return count, nil
}

// RemoveItem deletes the line of a product. It reports false when there was none.
func (e *Engine) RemoveItem(ctx context.Context, id domain.ProductID) (bool, error) {
	e.mu.Lock()

	i := e.index(id)
	if i < 0 {
		e.mu.Unlock()

		return false, nil
	}

	err := e.commit(ctx, slices.Delete(slices.Clone(e.lines), i, i+1))
	e.mu.Unlock()

	if err != nil {
		return false, err
	}

	e.log.DebugContext(ctx, "item removed", "product", id)
	e.notify()

	return true, nil
}

// SetQuantity overwrites the quantity of an existing line. A quantity of zero
// or less removes the line. It reports false, before any stock check, when
// the product has no line.
func (e *Engine) SetQuantity(ctx context.Context, id domain.ProductID, quantity int) (bool, error) {
	if quantity <= 0 {
		return e.RemoveItem(ctx, id)
	}

	product, ok := e.products.FindByID(id)
	if !ok {
		return false, fmt.Errorf("set quantity of %d: %w", id, domain.ErrProductNotFound)
	}

	e.mu.Lock()

	i := e.index(id)
	if i < 0 {
		e.mu.Unlock()

		return false, nil
	}

	if quantity > product.Stock {
		e.mu.Unlock()

		return false, &domain.StockError{ProductID: id, Available: product.Stock}
	}

	lines := slices.Clone(e.lines)
	lines[i].Quantity = quantity

	err := e.commit(ctx, lines)
	e.mu.Unlock()

	if err != nil {
		return false, err
	}

	e.notify()

	return true, nil
}

// Clear empties the cart. It reports false, without writing storage, when
// the cart was already empty.
func (e *Engine) Clear(ctx context.Context) (bool, error) {
	e.mu.Lock()

	if len(e.lines) == 0 {
		e.mu.Unlock()

		return false, nil
	}

	err := e.commit(ctx, nil)
	e.mu.Unlock()

	if err != nil {
		return false, err
	}

	e.log.DebugContext(ctx, "cart cleared")
	e.notify()

	return true, nil
}

// Checkout re-validates every line against current stock and empties the
// cart. No order is recorded.
func (e *Engine) Checkout(ctx context.Context) (_ domain.Receipt, err error) {
	defer func() {
		if err != nil {
			e.log.InfoContext(ctx, "checkout rejected", "error", err)
		}
	}()

	e.mu.Lock()

	if len(e.lines) == 0 {
		e.mu.Unlock()

		return domain.Receipt{}, domain.ErrCartEmpty
	}

	var changed []domain.ProductID

	for _, line := range e.lines {
		product, ok := e.products.FindByID(line.ProductID)
		if !ok || line.Quantity > product.Stock {
			changed = append(changed, line.ProductID)
		}
	}

	if len(changed) > 0 {
		e.mu.Unlock()

		return domain.Receipt{}, &domain.StockChangedError{ProductIDs: changed}
	}

	summary := summarize(e.lines)

	err = e.commit(ctx, nil)
	e.mu.Unlock()

	if err != nil {
		return domain.Receipt{}, err
	}

	e.log.InfoContext(ctx, "checked out",
		"items", summary.TotalItems, "total", summary.TotalPrice.StringFixed(2))
	e.notify()

	return domain.Receipt{
		Lines:      summary.Lines,
		TotalItems: summary.TotalItems,
		TotalPrice: summary.TotalPrice,
	}, nil
}

// Reload replaces the in-memory cart with the persisted one and notifies
// subscribers.
func (e *Engine) Reload(ctx context.Context) {
	e.mu.Lock()
	e.lines = e.load(ctx)
	e.mu.Unlock()

	e.notify()
}

// Lines returns a copy of the cart lines in insertion order.
func (e *Engine) Lines() []domain.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()

	return slices.Clone(e.lines)
}

// Total is the exact sum of price times quantity.
func (e *Engine) Total() decimal.Decimal {
	return e.Summary().TotalPrice
}

// ItemCount is the sum of all quantities.
func (e *Engine) ItemCount() int {
	return e.Summary().TotalItems
}

func (e *Engine) Summary() domain.CartSummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	return summarize(e.lines)
}

func (e *Engine) Contains(id domain.ProductID) bool {
	return e.QuantityOf(id) > 0
}

// QuantityOf returns the quantity of a product in the cart, or 0.
func (e *Engine) QuantityOf(id domain.ProductID) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i := e.index(id); i >= 0 {
		return e.lines[i].Quantity
	}

	return 0
}

func summarize(lines []domain.CartLine) domain.CartSummary {
	summary := domain.CartSummary{
		Lines:      slices.Clone(lines),
		TotalPrice: decimal.Zero,
	}

	if summary.Lines == nil {
		summary.Lines = []domain.CartLine{}
	}

	for _, line := range lines {
		summary.TotalItems += line.Quantity
		summary.TotalPrice = summary.TotalPrice.Add(line.Subtotal())
	}

	return summary
}
