package cartsvc_test

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/repo/catalog"
	"github.com/mkrupp/shopzone/internal/repo/kv"
	. "github.com/mkrupp/shopzone/internal/svc/cartsvc"
)

// fakeCatalog is a ProductLookup whose stock can change under the cart.
type fakeCatalog struct {
	mu       sync.Mutex
	products map[domain.ProductID]domain.Product
}

func newFakeCatalog() *fakeCatalog {
	products := []domain.Product{
		{ID: 1, Name: "Headphones", Price: decimal.RequireFromString("79.99"), Stock: 15},
		{ID: 2, Name: "T-Shirt", Price: decimal.RequireFromString("24.99"), Stock: 32},
		{ID: 3, Name: "Camera", Price: decimal.RequireFromString("149.99"), Stock: 5},
		{ID: 8, Name: "Running Shoes", Price: decimal.RequireFromString("89.99"), Stock: 0},
		{ID: 20, Name: "Stand", Price: decimal.RequireFromString("0.10"), Stock: 1000},
	}

	c := &fakeCatalog{products: make(map[domain.ProductID]domain.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}

	return c
}

func (c *fakeCatalog) FindByID(id domain.ProductID) (domain.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]

	return p, ok
}

func (c *fakeCatalog) setStock(id domain.ProductID, stock int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.products[id]
	p.Stock = stock
	c.products[id] = p
}

func (c *fakeCatalog) remove(id domain.ProductID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.products, id)
}

// countingStorage counts writes to the wrapped storage.
type countingStorage struct {
	*kv.MemoryStorage

	puts int
	fail error
}

func (s *countingStorage) Put(ctx context.Context, entries ...kv.Entry) error {
	if s.fail != nil {
		return s.fail
	}

	s.puts++

	return s.MemoryStorage.Put(ctx, entries...)
}

func newEngine(t *testing.T) (*Engine, *fakeCatalog, *countingStorage) {
	t.Helper()

	products := newFakeCatalog()
	storage := &countingStorage{MemoryStorage: kv.NewMemoryStorage()}

	return NewEngine(t.Context(), products, storage), products, storage
}

func TestEngine_AddItemInsufficientStock(t *testing.T) {
	t.Parallel()

	engine, _, _ := newEngine(t)

	lines, err := engine.AddItem(t.Context(), 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, lines)
	assert.Equal(t, 2, engine.QuantityOf(3))

	_, err = engine.AddItem(t.Context(), 3, 4)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, "only 5 items available", err.Error())

	require.Len(t, engine.Lines(), 1)
	assert.Equal(t, 2, engine.Lines()[0].Quantity)
}

func TestEngine_AddItemHugeQuantityOnExistingLine(t *testing.T) {
	t.Parallel()

	engine, _, storage := newEngine(t)

	_, err := engine.AddItem(t.Context(), 3, 2)
	require.NoError(t, err)

	puts := storage.puts

	_, err = engine.AddItem(t.Context(), 3, math.MaxInt)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 2, engine.QuantityOf(3))
	assert.Equal(t, 2, engine.ItemCount())
	assert.True(t, engine.Total().Equal(decimal.RequireFromString("299.98")))
	assert.Equal(t, puts, storage.puts)

	receipt, err := engine.Checkout(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, receipt.TotalItems)
}

func TestEngine_AddItemErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		id       domain.ProductID
		quantity int
		wantErr  error
	}{
		{name: "unknown product", id: 999, quantity: 1, wantErr: domain.ErrProductNotFound},
		{name: "out of stock", id: 8, quantity: 1, wantErr: domain.ErrOutOfStock},
		{name: "out of stock wins over bad quantity", id: 8, quantity: 0, wantErr: domain.ErrOutOfStock},
		{name: "zero quantity", id: 1, quantity: 0, wantErr: domain.ErrInvalidQuantity},
		{name: "negative quantity", id: 1, quantity: -3, wantErr: domain.ErrInvalidQuantity},
		{name: "more than stock", id: 3, quantity: 6, wantErr: domain.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine, _, storage := newEngine(t)

			_, err := engine.AddItem(t.Context(), tt.id, tt.quantity)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, engine.Lines())
			assert.Zero(t, storage.puts)
		})
	}
}

func TestEngine_OutOfStockForAnyQuantity(t *testing.T) {
	t.Parallel()

	engine, _, _ := newEngine(t)

	for n := 1; n <= 50; n++ {
		_, err := engine.AddItem(t.Context(), 8, n)
		require.ErrorIs(t, err, domain.ErrOutOfStock)
	}

	assert.Empty(t, engine.Lines())
}

func TestEngine_ExactTotal(t *testing.T) {
	t.Parallel()

	engine, _, _ := newEngine(t)

	_, err := engine.AddItem(t.Context(), 2, 1)
	require.NoError(t, err)
	_, err = engine.AddItem(t.Context(), 2, 1)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("49.98").Equal(engine.Total()), engine.Total().String())
	assert.Equal(t, "$49.98", engine.Summary().FormattedTotal())

	// a thousand dimes add up to exactly one hundred
	_, err = engine.AddItem(t.Context(), 20, 1)
	require.NoError(t, err)

	for range 999 {
		_, err = engine.SetQuantity(t.Context(), 20, engine.QuantityOf(20)+1)
		require.NoError(t, err)
	}

	assert.Equal(t, "149.98", engine.Total().StringFixed(2))
}

func TestEngine_RemoveAndSetQuantity(t *testing.T) {
	t.Parallel()

	engine, products, storage := newEngine(t)

	_, err := engine.AddItem(t.Context(), 1, 1)
	require.NoError(t, err)
	_, err = engine.AddItem(t.Context(), 2, 3)
	require.NoError(t, err)

	ok, err := engine.SetQuantity(t.Context(), 1, 4)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, engine.QuantityOf(1))

	_, err = engine.SetQuantity(t.Context(), 1, 16)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 4, engine.QuantityOf(1))

	_, err = engine.SetQuantity(t.Context(), 999, 1)
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	puts := storage.puts

	ok, err = engine.SetQuantity(t.Context(), 3, 1)
	require.NoError(t, err)
	assert.False(t, ok, "no line for product 3")
	assert.Equal(t, puts, storage.puts)

	ok, err = engine.SetQuantity(t.Context(), 3, 50)
	require.NoError(t, err, "a missing line is reported before stock")
	assert.False(t, ok)
	assert.Equal(t, puts, storage.puts)

	ok, err = engine.SetQuantity(t.Context(), 2, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, engine.Contains(2))

	ok, err = engine.RemoveItem(t.Context(), 2)
	require.NoError(t, err)
	assert.False(t, ok)

	// a vanished product can still be removed
	products.remove(1)

	ok, err = engine.SetQuantity(t.Context(), 1, -1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, engine.Lines())
}

func TestEngine_Clear(t *testing.T) {
	t.Parallel()

	engine, _, storage := newEngine(t)

	cleared, err := engine.Clear(t.Context())
	require.NoError(t, err)
	assert.False(t, cleared)
	assert.Zero(t, storage.puts)

	_, err = engine.AddItem(t.Context(), 1, 2)
	require.NoError(t, err)

	cleared, err = engine.Clear(t.Context())
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.Zero(t, engine.ItemCount())
	assert.Equal(t, 2, storage.puts)

	raw, ok, err := storage.Get(t.Context(), kv.KeyCartItems)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[]`, raw)
}

func TestEngine_PersistenceRoundTrip(t *testing.T) {
	t.Parallel()

	engine, products, storage := newEngine(t)

	for _, id := range []domain.ProductID{3, 1, 2} {
		_, err := engine.AddItem(t.Context(), id, 2)
		require.NoError(t, err)
	}

	raw, _, err := storage.Get(t.Context(), kv.KeyCartItems)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"id":3,"name":"Camera","price":"149.99","quantity":2,"image":""},`+
			`{"id":1,"name":"Headphones","price":"79.99","quantity":2,"image":""},`+
			`{"id":2,"name":"T-Shirt","price":"24.99","quantity":2,"image":""}]`,
		raw)

	restored := NewEngine(t.Context(), products, storage)
	assert.Equal(t, engine.Lines(), restored.Lines())
	assert.True(t, engine.Total().Equal(restored.Total()))
}

func TestEngine_CorruptedSnapshot(t *testing.T) {
	t.Parallel()

	storage := kv.NewMemoryStorage()
	require.NoError(t, storage.Put(t.Context(), kv.Entry{Key: kv.KeyCartItems, Value: "{not json"}))

	engine := NewEngine(t.Context(), newFakeCatalog(), storage)
	assert.Empty(t, engine.Lines())

	_, err := engine.AddItem(t.Context(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, engine.ItemCount())
}

func TestEngine_StorageFailureLeavesCartUnchanged(t *testing.T) {
	t.Parallel()

	engine, _, storage := newEngine(t)

	_, err := engine.AddItem(t.Context(), 1, 1)
	require.NoError(t, err)

	errDisk := errors.New("disk full")
	storage.fail = errDisk

	_, err = engine.AddItem(t.Context(), 1, 1)
	require.ErrorIs(t, err, errDisk)
	assert.Equal(t, 1, engine.QuantityOf(1))

	_, err = engine.Clear(t.Context())
	require.ErrorIs(t, err, errDisk)
	assert.Equal(t, 1, engine.ItemCount())
}

func TestEngine_Checkout(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		engine, _, _ := newEngine(t)

		_, err := engine.Checkout(t.Context())
		require.ErrorIs(t, err, domain.ErrCartEmpty)
	})

	t.Run("stock changed", func(t *testing.T) {
		t.Parallel()

		engine, products, _ := newEngine(t)

		for _, id := range []domain.ProductID{1, 2, 3} {
			_, err := engine.AddItem(t.Context(), id, 3)
			require.NoError(t, err)
		}

		products.setStock(3, 2)
		products.remove(2)

		_, err := engine.Checkout(t.Context())
		require.ErrorIs(t, err, domain.ErrStockChanged)

		var changed *domain.StockChangedError
		require.ErrorAs(t, err, &changed)
		assert.Equal(t, []domain.ProductID{2, 3}, changed.ProductIDs)
		assert.Equal(t, 9, engine.ItemCount(), "cart untouched")
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		engine, _, storage := newEngine(t)

		_, err := engine.AddItem(t.Context(), 1, 1)
		require.NoError(t, err)
		_, err = engine.AddItem(t.Context(), 2, 2)
		require.NoError(t, err)

		puts := storage.puts

		receipt, err := engine.Checkout(t.Context())
		require.NoError(t, err)
		assert.Len(t, receipt.Lines, 2)
		assert.Equal(t, 3, receipt.TotalItems)
		assert.Equal(t, "129.97", receipt.TotalPrice.StringFixed(2))

		assert.Empty(t, engine.Lines())
		assert.Equal(t, puts+1, storage.puts)
	})
}

func TestEngine_Subscribe(t *testing.T) {
	t.Parallel()

	engine, _, _ := newEngine(t)

	var summaries []domain.CartSummary

	engine.Subscribe(func(s domain.CartSummary) { summaries = append(summaries, s) })

	_, err := engine.AddItem(t.Context(), 1, 2)
	require.NoError(t, err)
	_, err = engine.AddItem(t.Context(), 8, 1)
	require.Error(t, err)
	_, err = engine.RemoveItem(t.Context(), 1)
	require.NoError(t, err)
	_, err = engine.Clear(t.Context())
	require.NoError(t, err)

	require.Len(t, summaries, 2, "only successful changes notify")
	assert.Equal(t, 2, summaries[0].TotalItems)
	assert.Zero(t, summaries[1].TotalItems)

	engine.Reload(t.Context())
	assert.Len(t, summaries, 3)
}

// Random operation sequences never break the stock bound or the derived totals.
func TestEngine_RandomOperations(t *testing.T) {
	t.Parallel()

	cat, err := catalog.Default()
	require.NoError(t, err)

	storage := kv.NewMemoryStorage()
	engine := NewEngine(t.Context(), cat, storage)
	rng := rand.New(rand.NewPCG(1, 2)) //nolint:gosec

	for range 2000 {
		id := domain.ProductID(rng.IntN(22))
		quantity := rng.IntN(12) - 2

		switch rng.IntN(4) {
		case 0, 1:
			_, _ = engine.AddItem(t.Context(), id, quantity)
		case 2:
			_, _ = engine.SetQuantity(t.Context(), id, quantity)
		default:
			_, _ = engine.RemoveItem(t.Context(), id)
		}

		count := 0
		total := decimal.Zero
		seen := make(map[domain.ProductID]bool)

		for _, line := range engine.Lines() {
			product, ok := cat.FindByID(line.ProductID)
			require.True(t, ok)
			require.Positive(t, line.Quantity)
			require.LessOrEqual(t, line.Quantity, product.Stock)
			require.False(t, seen[line.ProductID], "one line per product")

			seen[line.ProductID] = true
			count += line.Quantity
			total = total.Add(line.Subtotal())
		}

		require.Equal(t, count, engine.ItemCount())
		require.True(t, total.Equal(engine.Total()))
	}

	restored := NewEngine(t.Context(), cat, storage)
	assert.Equal(t, engine.Lines(), restored.Lines())
}
