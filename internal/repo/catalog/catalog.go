// Package catalog is the read-only product catalog.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/infra/logging"
)

//go:embed products.yaml
var defaultCatalog []byte

var ErrInvalidCatalog = errors.New("invalid catalog")

// Sort criteria.
const (
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortRating    = "rating"
	SortName      = "name"
)

//nolint:gochecknoglobals
var sortOptions = []domain.SortOption{
	{Value: SortPriceLow, Label: "Price: Low to High"},
	{Value: SortPriceHigh, Label: "Price: High to Low"},
	{Value: SortRating, Label: "Rating"},
	{Value: SortName, Label: "Name A-Z"},
}

// Config holds configuration for the catalog.
type Config struct {
	// Path is a YAML catalog file. Empty uses the built-in catalog.
	Path string `env:"PATH" default:""`
	// Locale drives name collation.
	Locale string `env:"LOCALE" default:"en"`
}

// Catalog holds the products loaded at startup. It never changes afterwards
// and is safe for concurrent use.
type Catalog struct {
	products   []domain.Product
	byID       map[domain.ProductID]int
	categories []domain.Category
	reviews    map[domain.ProductID][]domain.Review
	locale     language.Tag
}

type fileDTO struct {
	Categories []domain.Category `yaml:"categories"`
	Products   []productDTO      `yaml:"products"`
}

type productDTO struct {
	ID          int64           `yaml:"id"`
	Name        string          `yaml:"name"`
	Price       string          `yaml:"price"`
	Description string          `yaml:"description"`
	Category    string          `yaml:"category"`
	Rating      float64         `yaml:"rating"`
	Stock       int             `yaml:"stock"`
	Featured    bool            `yaml:"featured"`
	Image       string          `yaml:"image"`
	Reviews     []domain.Review `yaml:"reviews"`
}

// Open loads the catalog named by cfg.Path, or the built-in one.
func Open(ctx context.Context, cfg Config) (*Catalog, error) {
	log := logging.GetLogger("repo.catalog")

	var (
		c   *Catalog
		err error
	)

	if cfg.Path == "" {
		c, err = Default()
	} else {
		c, err = LoadFile(cfg.Path)
	}

	if err != nil {
		log.ErrorContext(ctx, "catalog load failed", "path", cfg.Path, "error", err)

		return nil, err
	}

	if cfg.Locale != "" {
		tag, err := language.Parse(cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale: %w", err)
		}

		c.locale = tag
	}

	log.DebugContext(ctx, "catalog loaded", "path", cfg.Path, "products", len(c.products))

	return c, nil
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()

	return Load(file)
}

// Load parses a YAML catalog. Duplicate ids, negative prices and negative
// stock are rejected.
func Load(r io.Reader) (*Catalog, error) {
	var dto fileDTO

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&dto); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		products:   make([]domain.Product, 0, len(dto.Products)),
		byID:       make(map[domain.ProductID]int, len(dto.Products)),
		categories: dto.Categories,
		reviews:    make(map[domain.ProductID][]domain.Review),
		locale:     language.English,
	}

	for _, p := range dto.Products {
		id := domain.ProductID(p.ID)

		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("%w: duplicate product id %d", ErrInvalidCatalog, p.ID)
		}

		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: product %d price %q: %w", ErrInvalidCatalog, p.ID, p.Price, err)
		}

		if price.IsNegative() {
			return nil, fmt.Errorf("%w: product %d has negative price", ErrInvalidCatalog, p.ID)
		}

		if p.Stock < 0 {
			return nil, fmt.Errorf("%w: product %d has negative stock", ErrInvalidCatalog, p.ID)
		}

		c.byID[id] = len(c.products)
		c.products = append(c.products, domain.Product{
			ID:          id,
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Stock:       p.Stock,
			Category:    p.Category,
			Rating:      p.Rating,
			Featured:    p.Featured,
			Image:       p.Image,
		})

		if len(p.Reviews) > 0 {
			c.reviews[id] = p.Reviews
		}
	}

	return c, nil
}

// All returns every product in catalog order.
func (c *Catalog) All() []domain.Product {
	return slices.Clone(c.products)
}

// FindByID returns the product with id.
func (c *Catalog) FindByID(id domain.ProductID) (domain.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}

	return c.products[i], true
}

// InStock reports whether id exists and has stock left.
func (c *Catalog) InStock(id domain.ProductID) bool {
	p, ok := c.FindByID(id)

	return ok && p.Stock > 0
}

// Featured returns the featured products.
func (c *Catalog) Featured() []domain.Product {
	return c.filter(func(p domain.Product) bool { return p.Featured })
}

// FilterByCategory returns the products of category. An empty category
// matches everything.
func (c *Catalog) FilterByCategory(category string) []domain.Product {
	if category == "" {
		return c.All()
	}

	return c.filter(func(p domain.Product) bool { return p.Category == category })
}

// Search matches query case-insensitively against name, description and
// category. An empty query matches everything.
func (c *Catalog) Search(query string) []domain.Product {
	if query == "" {
		return c.All()
	}

	fold := cases.Fold()
	needle := fold.String(query)

	return c.filter(func(p domain.Product) bool {
		return strings.Contains(fold.String(p.Name), needle) ||
			strings.Contains(fold.String(p.Description), needle) ||
			strings.Contains(fold.String(p.Category), needle)
	})
}

func (c *Catalog) filter(keep func(domain.Product) bool) []domain.Product {
	out := make([]domain.Product, 0, len(c.products))

	for _, p := range c.products {
		if keep(p) {
			out = append(out, p)
		}
	}

	return out
}

// Query combines the catalog filters. Zero fields do not filter.
type Query struct {
	Category string
	Search   string
	Featured bool
	Sort     string
}

// Query returns the products matching every filter of q, sorted by q.Sort.
func (c *Catalog) Query(q Query) []domain.Product {
	matches := make(map[domain.ProductID]bool)
	for _, p := range c.Search(q.Search) {
		matches[p.ID] = true
	}

	products := slices.DeleteFunc(c.FilterByCategory(q.Category), func(p domain.Product) bool {
		return !matches[p.ID] || (q.Featured && !p.Featured)
	})

	return c.Sort(products, q.Sort)
}

// Sort returns a sorted copy of products. Ties keep their input order and an
// unknown criterion returns an unsorted copy.
func (c *Catalog) Sort(products []domain.Product, criterion string) []domain.Product {
	return Sort(products, criterion, c.locale)
}

// Sort is Catalog.Sort for an explicit collation locale.
func Sort(products []domain.Product, criterion string, locale language.Tag) []domain.Product {
	out := slices.Clone(products)

	switch criterion {
	case SortPriceLow:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceHigh:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return b.Price.Cmp(a.Price) })
	case SortRating:
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			switch {
			case a.Rating > b.Rating:
				return -1
			case a.Rating < b.Rating:
				return 1
			default:
				return 0
			}
		})
	case SortName:
		coll := collate.New(locale)
		slices.SortStableFunc(out, func(a, b domain.Product) int { return coll.CompareString(a.Name, b.Name) })
	}

	return out
}

// Categories returns the category values with their labels.
func (c *Catalog) Categories() []domain.Category {
	return slices.Clone(c.categories)
}

// CategoryLabel returns the label of category, or the title-cased value
// when the category is not declared.
func (c *Catalog) CategoryLabel(category string) string {
	for _, cat := range c.categories {
		if cat.Value == category {
			return cat.Label
		}
	}

	return cases.Title(c.locale).String(category)
}

// SortOptions returns the supported sort criteria.
func (c *Catalog) SortOptions() []domain.SortOption {
	return slices.Clone(sortOptions)
}

// Reviews returns the reviews of a product.
func (c *Catalog) Reviews(id domain.ProductID) []domain.Review {
	return slices.Clone(c.reviews[id])
}

// StockStatus classifies a stock level as out-of-stock, low-stock or in-stock.
func StockStatus(stock int) domain.StockStatus {
	return domain.StockStatusOf(stock)
}
