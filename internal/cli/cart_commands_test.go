package cli_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/repo/kv"
	"github.com/mkrupp/shopzone/internal/svc/storefront"
)

func TestCartCommands_RequireSignIn(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, kv.NewMemoryStorage())

	for _, args := range [][]string{
		{"cart", "add", "1"},
		{"cart", "remove", "1"},
		{"cart", "update", "1", "2"},
		{"cart", "clear"},
		{"cart", "checkout"},
	} {
		_, err := execute(t, app, args...)

		var authErr *storefront.AuthRequiredError
		require.ErrorAs(t, err, &authErr, "%v", args)
	}

	_, err := execute(t, app, "cart", "add", "1")
	require.EqualError(t, err, "please sign in to add items to your cart")

	assert.Equal(t, "Your cart is empty\n", mustExecute(t, app, "cart"))
}

func TestCartCommands_ShoppingSession(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, kv.NewMemoryStorage())

	assert.Equal(t, "Welcome back jane! Login successful!\n", mustExecute(t, app, "login", "jane@example.com", "secret"))

	assert.Equal(t, "Smart Home Security Camera added to cart!\n", mustExecute(t, app, "cart", "add", "3", "2"))
	assert.Equal(t, "Organic Cotton T-Shirt added to cart!\n", mustExecute(t, app, "cart", "add", "2"))

	assertGolden(t, "cart", mustExecute(t, app, "cart"))

	_, err := execute(t, app, "cart", "add", "8")
	require.ErrorIs(t, err, domain.ErrOutOfStock)

	_, err = execute(t, app, "cart", "add", "3", "7")
	require.EqualError(t, err, "only 8 items available")

	_, err = execute(t, app, "cart", "add", "3", "many")
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	assert.Equal(t, "Organic Cotton T-Shirt quantity set to 4\n", mustExecute(t, app, "cart", "update", "2", "4"))
	assert.Equal(t, "Organic Cotton T-Shirt removed from cart\n", mustExecute(t, app, "cart", "update", "2", "0"))
	assert.Equal(t, "Organic Cotton T-Shirt is not in your cart\n", mustExecute(t, app, "cart", "remove", "2"))

	mustExecute(t, app, "cart", "add", "2")
	assertGolden(t, "checkout", mustExecute(t, app, "cart", "checkout"))

	_, err = execute(t, app, "cart", "checkout")
	require.ErrorIs(t, err, domain.ErrCartEmpty)

	assert.Equal(t, "Cart is already empty\n", mustExecute(t, app, "cart", "clear"))
}

func TestCartCommands_PersistAcrossInvocations(t *testing.T) {
	t.Parallel()

	storage := kv.NewMemoryStorage()

	first := newTestApp(t, storage)
	mustExecute(t, first, "register", "Jane", "jane@example.com", "secret")
	mustExecute(t, first, "cart", "add", "1", "2")

	second := newTestApp(t, storage)

	var summary domain.CartSummary
	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, second, "--format", "json", "cart")), &summary))
	assert.Equal(t, 2, summary.TotalItems)
	assert.Equal(t, "$159.98", summary.FormattedTotal())

	assert.Contains(t, mustExecute(t, second, "whoami"), "Signed in as Jane")

	assert.Equal(t, "Logged out successfully\n", mustExecute(t, second, "logout"))
	assert.Equal(t, "Your cart is empty\n", mustExecute(t, newTestApp(t, storage), "cart"))
}
