package sessionsvc_test

import (
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/shopzone/internal/domain"
	http_ "github.com/mkrupp/shopzone/internal/infra/transport/http"
	"github.com/mkrupp/shopzone/internal/repo/kv"
	"github.com/mkrupp/shopzone/internal/repo/user"
	"github.com/mkrupp/shopzone/internal/svc/authsvc"
	"github.com/mkrupp/shopzone/internal/svc/authsvc/authclient"
	. "github.com/mkrupp/shopzone/internal/svc/sessionsvc"
)

// newRemoteStore runs a real auth service over a temporary SQLite database.
func newRemoteStore(t *testing.T) (*Store, *kv.MemoryStorage, *httptest.Server) {
	t.Helper()

	dir := t.TempDir()

	authSvc, err := authsvc.NewAuthService(t.Context(),
		user.SQLiteUserRepositoryFactory(user.SQLiteUserRepositoryConfig{
			DatabasePath: filepath.Join(dir, "users.db"),
			BusyTimeout:  time.Second,
		}),
		authsvc.AuthConfig{
			SigningKeyFile:    filepath.Join(dir, "auth.key"),
			TokenDuration:     time.Hour,
			TokenIssuer:       "shopzone",
			BcryptCost:        bcrypt.MinCost,
			MinNameLength:     2,
			MinPasswordLength: 6,
		},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = authSvc.Close() })

	srv := httptest.NewServer(http_.Mount("/api", authsvc.NewHTTPTransport(authSvc, authsvc.HTTPTransportConfig{})))
	t.Cleanup(srv.Close)

	client := authclient.NewHTTPClient(authclient.HTTPClientConfig{
		BaseURL:            srv.URL + "/api",
		Timeout:            5 * time.Second,
		BreakerFailures:    5,
		BreakerOpenTimeout: time.Minute,
	}, nil)

	storage := kv.NewMemoryStorage()
	cfg := Config{Mode: ModeRemote, MinNameLength: 2, MinPasswordLength: 3}

	return NewStore(t.Context(), NewRemoteAuthProvider(client), storage, cfg), storage, srv
}

func TestRemoteStore_Lifecycle(t *testing.T) {
	t.Parallel()

	store, storage, _ := newRemoteStore(t)

	// the server enforces a longer password than the client
	_, err := store.Register(t.Context(), "Jane", "jane@example.com", "abc")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("password"))
	assert.False(t, requirePair(t, storage))

	registered, err := store.Register(t.Context(), "Jane", "jane@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", registered.Name)
	assert.True(t, requirePair(t, storage))

	_, err = store.Register(t.Context(), "Jane", "jane@example.com", "secret1")
	require.ErrorIs(t, err, domain.ErrDuplicateAccount)

	store.Logout(t.Context())
	assert.False(t, requirePair(t, storage))

	_, err = store.Login(t.Context(), "jane@example.com", "wrong-password")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	user, err := store.Login(t.Context(), "jane@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered, user)

	refreshed, err := store.RefreshSession(t.Context())
	require.NoError(t, err)
	assert.Equal(t, registered, refreshed)
}

func TestRemoteStore_ServerGone(t *testing.T) {
	t.Parallel()

	store, storage, srv := newRemoteStore(t)

	_, err := store.Register(t.Context(), "Jane", "jane@example.com", "secret1")
	require.NoError(t, err)

	srv.Close()

	_, err = store.Login(t.Context(), "jane@example.com", "secret1")
	require.ErrorIs(t, err, domain.ErrNetwork)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)

	// a failed login leaves the current session alone
	assert.True(t, store.IsAuthenticated())

	_, err = store.RefreshSession(t.Context())
	require.ErrorIs(t, err, domain.ErrNetwork)
	assert.False(t, store.IsAuthenticated())
	assert.False(t, requirePair(t, storage))

	// logout still succeeds locally
	store.Logout(t.Context())
	assert.False(t, store.IsAuthenticated())
}
