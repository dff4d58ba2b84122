package catalog_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/mkrupp/shopzone/internal/domain"

	. "github.com/mkrupp/shopzone/internal/repo/catalog"
)

func defaultCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := Default()
	require.NoError(t, err)

	return c
}

func ids(products []domain.Product) []domain.ProductID {
	out := make([]domain.ProductID, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}

	return out
}

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c := defaultCatalog(t)

	all := c.All()
	require.Len(t, all, 20)

	for i, p := range all {
		assert.Equal(t, domain.ProductID(i+1), p.ID)
	}

	shoes, ok := c.FindByID(8)
	require.True(t, ok)
	assert.Equal(t, "Running Shoes", shoes.Name)
	assert.Zero(t, shoes.Stock)
	assert.True(t, shoes.Price.Equal(decimal.RequireFromString("89.99")))

	assert.Len(t, c.Categories(), 5)
	assert.Equal(t, "Home & Garden", c.CategoryLabel("home"))
	assert.Equal(t, "Garden", c.CategoryLabel("garden"))
	assert.Len(t, c.Reviews(1), 2)
	assert.Empty(t, c.Reviews(3))
	assert.Len(t, c.SortOptions(), 4)
}

func TestFindByIDAndInStock(t *testing.T) {
	t.Parallel()

	c := defaultCatalog(t)

	_, ok := c.FindByID(999)
	assert.False(t, ok)

	assert.True(t, c.InStock(1))
	assert.False(t, c.InStock(8))
	assert.False(t, c.InStock(999))
}

func TestSearch(t *testing.T) {
	t.Parallel()

	c := defaultCatalog(t)

	tests := []struct {
		name  string
		query string
		want  []domain.ProductID
	}{
		{name: "matches name case-insensitively", query: "WIRELESS", want: []domain.ProductID{1, 7, 15}},
		{name: "matches description", query: "qi-enabled", want: []domain.ProductID{7}},
		{name: "matches category", query: "books", want: []domain.ProductID{6, 14, 19}},
		{name: "no match", query: "submarine", want: []domain.ProductID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, ids(c.Search(tt.query)))
		})
	}

	assert.Len(t, c.Search(""), 20)
}

func TestFilterByCategory(t *testing.T) {
	t.Parallel()

	c := defaultCatalog(t)

	assert.Equal(t, []domain.ProductID{4, 8, 13, 18}, ids(c.FilterByCategory("sports")))
	assert.Len(t, c.FilterByCategory(""), 20)
	assert.Empty(t, c.FilterByCategory("garden"))
	assert.Equal(t, []domain.ProductID{1, 2, 4, 6, 10, 13}, ids(c.Featured()))
}

func TestSort(t *testing.T) {
	t.Parallel()

	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	input := []domain.Product{
		{ID: 1, Name: "banana", Price: price("10"), Rating: 4.5},
		{ID: 2, Name: "Apple", Price: price("5"), Rating: 4.9},
		{ID: 3, Name: "cherry", Price: price("10"), Rating: 4.5},
		{ID: 4, Name: "Éclair", Price: price("1.5"), Rating: 3},
	}
	original := append([]domain.Product(nil), input...)

	tests := []struct {
		criterion string
		want      []domain.ProductID
	}{
		{criterion: SortPriceLow, want: []domain.ProductID{4, 2, 1, 3}},
		{criterion: SortPriceHigh, want: []domain.ProductID{1, 3, 2, 4}},
		{criterion: SortRating, want: []domain.ProductID{2, 1, 3, 4}},
		{criterion: SortName, want: []domain.ProductID{2, 1, 3, 4}},
		{criterion: "popularity", want: []domain.ProductID{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.criterion, func(t *testing.T) {
			t.Parallel()

			got := Sort(input, tt.criterion, language.English)
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, original, input, "input must not be mutated")
		})
	}
}

func TestSortUnknownCriterionReturnsCopy(t *testing.T) {
	t.Parallel()

	c := defaultCatalog(t)
	input := c.All()

	got := c.Sort(input, "")
	got[0].Name = "changed"

	assert.Equal(t, "Wireless Bluetooth Headphones", input[0].Name)
}

func TestStockStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.StockOut, StockStatus(0))
	assert.Equal(t, domain.StockLow, StockStatus(1))
	assert.Equal(t, domain.StockLow, StockStatus(5))
	assert.Equal(t, domain.StockIn, StockStatus(6))
	assert.Equal(t, "Low Stock", StockStatus(3).Label())
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "duplicate id",
			yaml: "products:\n  - {id: 1, name: a, price: \"1\"}\n  - {id: 1, name: b, price: \"2\"}\n",
		},
		{
			name: "negative price",
			yaml: "products:\n  - {id: 1, name: a, price: \"-1\"}\n",
		},
		{
			name: "negative stock",
			yaml: "products:\n  - {id: 1, name: a, price: \"1\", stock: -2}\n",
		},
		{
			name: "unparsable price",
			yaml: "products:\n  - {id: 1, name: a, price: \"cheap\"}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(strings.NewReader(tt.yaml))
			require.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}

	_, err := Load(strings.NewReader("products:\n  - {id: 1, colour: red}\n"))
	require.Error(t, err, "unknown fields are rejected")
}

func TestQuery(t *testing.T) {
	t.Parallel()

	c := defaultCatalog(t)

	tests := []struct {
		name  string
		query Query
		want  []domain.ProductID
	}{
		{name: "featured sports by price", query: Query{Category: "sports", Featured: true, Sort: SortPriceHigh}, want: []domain.ProductID{13, 4}},
		{name: "search only", query: Query{Search: "books"}, want: []domain.ProductID{6, 14, 19}},
		{name: "search within category", query: Query{Category: "sports", Search: "WIRELESS"}, want: []domain.ProductID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, ids(c.Query(tt.query)))
		})
	}

	assert.Len(t, c.Query(Query{}), 20)
}
