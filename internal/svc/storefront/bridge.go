// Package storefront gates cart actions on the session and keeps the cart
// in step with sign in and sign out.
package storefront

import (
	"context"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/infra/logging"
	"github.com/mkrupp/shopzone/internal/svc/cartsvc"
	"github.com/mkrupp/shopzone/internal/svc/sessionsvc"
)

// Actions named in AuthRequiredError.
const (
	ActionAddToCart      = "add items to your cart"
	ActionRemoveFromCart = "change your cart"
	ActionUpdateQuantity = "change your cart"
	ActionClearCart      = "clear your cart"
	ActionCheckout       = "checkout"
)

// AuthRequiredError is returned instead of performing an action that needs
// a signed in user.
type AuthRequiredError struct {
	Action string
}

func (e *AuthRequiredError) Error() string {
	return "please sign in to " + e.Action
}

func (e *AuthRequiredError) Unwrap() error {
	return domain.ErrAuthRequired
}

// Config contains configuration parameters for the bridge.
type Config struct {
	// ClearCartOnLogout empties the cart when the session ends, so the next
	// user of the same storage does not inherit it.
	ClearCartOnLogout bool `env:"CLEAR_CART_ON_LOGOUT" default:"true"`
}

// Bridge is the entry point for user actions touching the session or cart.
type Bridge struct {
	cfg      Config
	sessions *sessionsvc.Store
	cart     *cartsvc.Engine
	log      logging.Logger
}

func NewBridge(sessions *sessionsvc.Store, cart *cartsvc.Engine, cfg Config) *Bridge {
	return &Bridge{
		cfg:      cfg,
		sessions: sessions,
		cart:     cart,
		log:      logging.GetLogger("svc.storefront.bridge"),
	}
}

func (b *Bridge) Sessions() *sessionsvc.Store { return b.sessions }

func (b *Bridge) Cart() *cartsvc.Engine { return b.cart }

// Guard returns an *AuthRequiredError for action unless a session exists.
func (b *Bridge) Guard(action string) error {
	if b.sessions.IsAuthenticated() {
		return nil
	}

	return &AuthRequiredError{Action: action}
}

func (b *Bridge) AddToCart(ctx context.Context, id domain.ProductID, quantity int) (int, error) {
	if err := b.Guard(ActionAddToCart); err != nil {
		return 0, err
	}

	return b.cart.AddItem(ctx, id, quantity)
}

func (b *Bridge) RemoveFromCart(ctx context.Context, id domain.ProductID) (bool, error) {
	if err := b.Guard(ActionRemoveFromCart); err != nil {
		return false, err
	}

	return b.cart.RemoveItem(ctx, id)
}

func (b *Bridge) UpdateQuantity(ctx context.Context, id domain.ProductID, quantity int) (bool, error) {
	if err := b.Guard(ActionUpdateQuantity); err != nil {
		return false, err
	}

	return b.cart.SetQuantity(ctx, id, quantity)
}

func (b *Bridge) ClearCart(ctx context.Context) (bool, error) {
	if err := b.Guard(ActionClearCart); err != nil {
		return false, err
	}

	return b.cart.Clear(ctx)
}

func (b *Bridge) Checkout(ctx context.Context) (domain.Receipt, error) {
	if err := b.Guard(ActionCheckout); err != nil {
		return domain.Receipt{}, err
	}

	return b.cart.Checkout(ctx)
}

// Login signs in and reconciles the cart.
func (b *Bridge) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := b.sessions.Login(ctx, email, password)
	if err != nil {
		return domain.User{}, err
	}

	b.cart.Reload(ctx)

	return user, nil
}

// Register creates an account, signs it in and reconciles the cart.
func (b *Bridge) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	user, err := b.sessions.Register(ctx, name, email, password)
	if err != nil {
		return domain.User{}, err
	}

	b.cart.Reload(ctx)

	return user, nil
}

// Logout ends the session and resets the cart.
func (b *Bridge) Logout(ctx context.Context) {
	b.sessions.Logout(ctx)
	b.resetCart(ctx)
}

// RefreshSession revalidates the session. When that signs the user out the
// cart is reset as on Logout.
func (b *Bridge) RefreshSession(ctx context.Context) (domain.User, error) {
	user, err := b.sessions.RefreshSession(ctx)
	if err != nil && !b.sessions.IsAuthenticated() {
		b.resetCart(ctx)
	}

	return user, err //nolint:wrapcheck
}

func (b *Bridge) resetCart(ctx context.Context) {
	if !b.cfg.ClearCartOnLogout {
		b.cart.Reload(ctx)

		return
	}

	if _, err := b.cart.Clear(ctx); err != nil {
		b.log.WarnContext(ctx, "clear cart on logout failed", "error", err)
	}
}
