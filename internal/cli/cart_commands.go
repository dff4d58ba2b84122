package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mkrupp/shopzone/internal/domain"
)

func newCartCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change your cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary := app.Bridge.Cart().Summary()

			return newOutput(rootOpts, cmd).emit(summary, func(w io.Writer) {
				renderCart(w, summary)
			})
		},
	}

	cmd.AddCommand(newCartAddCommand(app, rootOpts))
	cmd.AddCommand(newCartRemoveCommand(app, rootOpts))
	cmd.AddCommand(newCartUpdateCommand(app, rootOpts))
	cmd.AddCommand(newCartClearCommand(app, rootOpts))
	cmd.AddCommand(newCartCheckoutCommand(app, rootOpts))

	return cmd
}

func parseQuantity(arg string) (int, error) {
	quantity, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidQuantity, arg)
	}

	return quantity, nil
}

func (app *App) productName(id domain.ProductID) string {
	if p, ok := app.Catalog.FindByID(id); ok {
		return p.Name
	}

	return fmt.Sprintf("Product %d", id)
}

func newCartAddCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a product to your cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}

			quantity := 1

			if len(args) == 2 {
				if quantity, err = parseQuantity(args[1]); err != nil {
					return err
				}
			}

			if _, err := app.Bridge.AddToCart(cmd.Context(), id, quantity); err != nil {
				return err //nolint:wrapcheck
			}

			return newOutput(rootOpts, cmd).message(app.productName(id) + " added to cart!")
		},
	}
}

func newCartRemoveCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from your cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}

			removed, err := app.Bridge.RemoveFromCart(cmd.Context(), id)
			if err != nil {
				return err //nolint:wrapcheck
			}

			if !removed {
				return newOutput(rootOpts, cmd).message(app.productName(id) + " is not in your cart")
			}

			return newOutput(rootOpts, cmd).message(app.productName(id) + " removed from cart")
		},
	}
}

func newCartUpdateCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set the quantity of a product in your cart; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}

			quantity, err := parseQuantity(args[1])
			if err != nil {
				return err
			}

			updated, err := app.Bridge.UpdateQuantity(cmd.Context(), id, quantity)
			if err != nil {
				return err //nolint:wrapcheck
			}

			out := newOutput(rootOpts, cmd)

			switch {
			case !updated:
				return out.message(app.productName(id) + " is not in your cart")
			case quantity <= 0:
				return out.message(app.productName(id) + " removed from cart")
			default:
				return out.message(fmt.Sprintf("%s quantity set to %d", app.productName(id), quantity))
			}
		},
	}
}

func newCartClearCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty your cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cleared, err := app.Bridge.ClearCart(cmd.Context())
			if err != nil {
				return err //nolint:wrapcheck
			}

			if !cleared {
				return newOutput(rootOpts, cmd).message("Cart is already empty")
			}

			return newOutput(rootOpts, cmd).message("Cart cleared successfully")
		},
	}
}

func newCartCheckoutCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Check out the items in your cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			receipt, err := app.Bridge.Checkout(cmd.Context())
			if err != nil {
				return err //nolint:wrapcheck
			}

			return newOutput(rootOpts, cmd).emit(receipt, func(w io.Writer) {
				renderReceipt(w, receipt)
			})
		},
	}
}
