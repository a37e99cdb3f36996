package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	infraidentity "github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Storage.DSN = filepath.Join(t.TempDir(), "store.db")
	cfg.PaymentMethods = []config.MethodConfig{
		{ID: " Bank ", DisplayName: "Bank transfer", Kind: "plain", Enabled: true, RecipientName: "Mochi Shop", RecipientAccount: "000-123"},
	}
	cfg.Catalog = []config.ProductConfig{{ID: "ebook", Title: "Go in Practice", Price: "20.00", AssetLocation: "s3://assets/ebook.pdf"}}
	cfg.Buyers = []config.BuyerConfig{{UserID: "ana", Name: "Ana"}}
	return cfg
}

func TestCatalogParsesPrices(t *testing.T) {
	cat, err := Catalog([]config.ProductConfig{{ID: "ebook", Price: "20.5", AssetLocation: "s3://x"}})
	require.NoError(t, err)
	p, err := cat.Product(context.Background(), "ebook")
	require.NoError(t, err)
	assert.Equal(t, "20.50", p.Price.StringFixed(2))

	_, err = cat.Product(context.Background(), "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = Catalog([]config.ProductConfig{{ID: "bad", Price: "twenty"}})
	require.Error(t, err)
}

func TestAuthenticatorFollowsSecret(t *testing.T) {
	auth, err := Authenticator(config.IdentityConfig{})
	require.NoError(t, err)
	require.IsType(t, infraidentity.HeaderTrust{}, auth)

	auth, err = Authenticator(config.IdentityConfig{HMACSecret: "s3cret", Issuer: "idp"})
	require.NoError(t, err)
	require.IsType(t, &infraidentity.HMACVerifier{}, auth)
}

func TestNewSeedsRegistryAndServesHTTP(t *testing.T) {
	ctx := context.Background()
	app, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(ctx) })

	m, err := app.Store.Methods().Get(ctx, "bank")
	require.NoError(t, err)
	assert.Equal(t, payment.KindPlain, m.Kind)
	assert.True(t, m.Enabled)

	handler, err := app.Handler()
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	for _, path := range []string{"/health", "/payment-methods", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestServeStopsWithContext(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTP.Addr = "127.0.0.1:0"
	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, app.Serve(ctx))
}
