package cli

import (
	"fmt"
	"io"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/repo/catalog"
)

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}

	return many
}

func renderProducts(w io.Writer, products []domain.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products found")

		return
	}

	fmt.Fprintf(w, "%-4s %-30s %9s  %-6s  %s\n", "ID", "NAME", "PRICE", "RATING", "STOCK")

	for _, p := range products {
		fmt.Fprintf(w, "%-4d %-30s %9s  %-6.1f  %s\n",
			p.ID, p.Name, domain.FormatPrice(p.Price), p.Rating, catalog.StockStatus(p.Stock).Label())
	}

	fmt.Fprintf(w, "%d %s\n", len(products), plural(len(products), "product", "products"))
}

func renderProduct(w io.Writer, p domain.Product, category string, reviews []domain.Review) {
	status := catalog.StockStatus(p.Stock)

	stock := status.Label()
	if status != domain.StockOut {
		stock = fmt.Sprintf("%s (%d left)", stock, p.Stock)
	}

	featured := "no"
	if p.Featured {
		featured = "yes"
	}

	fmt.Fprintf(w, "%s (#%d)\n", p.Name, p.ID)
	fmt.Fprintf(w, "Price:    %s\n", domain.FormatPrice(p.Price))
	fmt.Fprintf(w, "Category: %s\n", category)
	fmt.Fprintf(w, "Rating:   %.1f\n", p.Rating)
	fmt.Fprintf(w, "Stock:    %s\n", stock)
	fmt.Fprintf(w, "Featured: %s\n", featured)
	fmt.Fprintf(w, "\n%s\n\n", p.Description)

	if len(reviews) == 0 {
		fmt.Fprintln(w, "No reviews yet")

		return
	}

	fmt.Fprintln(w, "Reviews:")

	for _, r := range reviews {
		fmt.Fprintf(w, "  %s (%d/5): %s\n", r.Name, r.Rating, r.Comment)
	}
}

func renderCategories(w io.Writer, categories []domain.Category, sortOptions []domain.SortOption) {
	fmt.Fprintln(w, "Categories:")

	for _, c := range categories {
		fmt.Fprintf(w, "  %-12s %s\n", c.Value, c.Label)
	}

	fmt.Fprintln(w, "Sort options:")

	for _, o := range sortOptions {
		fmt.Fprintf(w, "  %-12s %s\n", o.Value, o.Label)
	}
}

func renderLines(w io.Writer, lines []domain.CartLine) {
	fmt.Fprintf(w, "%-4s %-30s %4s %10s %10s\n", "ID", "NAME", "QTY", "PRICE", "SUBTOTAL")

	for _, l := range lines {
		fmt.Fprintf(w, "%-4d %-30s %4d %10s %10s\n",
			l.ProductID, l.Name, l.Quantity, domain.FormatPrice(l.Price), domain.FormatPrice(l.Subtotal()))
	}
}

func renderCart(w io.Writer, summary domain.CartSummary) {
	if len(summary.Lines) == 0 {
		fmt.Fprintln(w, "Your cart is empty")

		return
	}

	renderLines(w, summary.Lines)
	fmt.Fprintf(w, "\nItems: %d\n", summary.TotalItems)
	fmt.Fprintf(w, "Total: %s\n", summary.FormattedTotal())
}

func renderReceipt(w io.Writer, receipt domain.Receipt) {
	renderLines(w, receipt.Lines)
	fmt.Fprintf(w, "\nItems: %d\n", receipt.TotalItems)
	fmt.Fprintf(w, "Total: %s\n", domain.FormatPrice(receipt.TotalPrice))
	fmt.Fprintln(w, "\nOrder placed successfully! Thank you for shopping with us.")
}

func renderUser(w io.Writer, displayName string, user domain.User) {
	fmt.Fprintf(w, "Signed in as %s\n", displayName)
	fmt.Fprintf(w, "Email: %s\n", user.Email)

	if user.Role != "" {
		fmt.Fprintf(w, "Role:  %s\n", user.Role)
	}
}
