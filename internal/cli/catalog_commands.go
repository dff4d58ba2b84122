package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/repo/catalog"
)

func parseProductID(arg string) (domain.ProductID, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid product id %q", arg)
	}

	return domain.ProductID(id), nil
}

func newProductsCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	var query catalog.Query

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProducts(app, newOutput(rootOpts, cmd), query)
		},
	}

	cmd.Flags().StringVarP(&query.Category, "category", "c", "", "only show products of this category")
	cmd.Flags().StringVarP(&query.Search, "search", "q", "", "only show products matching this text")
	cmd.Flags().StringVarP(&query.Sort, "sort", "s", "", "sort by price-low, price-high, rating or name")
	cmd.Flags().BoolVar(&query.Featured, "featured", false, "only show featured products")

	return cmd
}

func newSearchCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	var sortBy string

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search products by name, description or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProducts(app, newOutput(rootOpts, cmd), catalog.Query{Search: args[0], Sort: sortBy})
		},
	}

	cmd.Flags().StringVarP(&sortBy, "sort", "s", "", "sort by price-low, price-high, rating or name")

	return cmd
}

func runProducts(app *App, out output, query catalog.Query) error {
	products := app.Catalog.Query(query)

	return out.emit(products, func(w io.Writer) {
		renderProducts(w, products)
	})
}

type productDetail struct {
	domain.Product

	StockStatus   domain.StockStatus `json:"stockStatus"`
	CategoryLabel string             `json:"categoryLabel"`
	Reviews       []domain.Review    `json:"reviews"`
}

func newShowCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show a product with its reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}

			p, ok := app.Catalog.FindByID(id)
			if !ok {
				return fmt.Errorf("show product %d: %w", id, domain.ErrProductNotFound)
			}

			detail := productDetail{
				Product:       p,
				StockStatus:   catalog.StockStatus(p.Stock),
				CategoryLabel: app.Catalog.CategoryLabel(p.Category),
				Reviews:       app.Catalog.Reviews(id),
			}

			return newOutput(rootOpts, cmd).emit(detail, func(w io.Writer) {
				renderProduct(w, p, detail.CategoryLabel, detail.Reviews)
			})
		},
	}
}

func newCategoriesCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories and sort options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories := app.Catalog.Categories()
			sortOptions := app.Catalog.SortOptions()

			data := struct {
				Categories  []domain.Category   `json:"categories"`
				SortOptions []domain.SortOption `json:"sortOptions"`
			}{categories, sortOptions}

			return newOutput(rootOpts, cmd).emit(data, func(w io.Writer) {
				renderCategories(w, categories, sortOptions)
			})
		},
	}
}
