package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
service:
  name: checkout
  env: test
http:
  addr: ":9090"
  evidence_rate: 2
  evidence_burst: 3
storage:
  driver: sqlite
  dsn: "file:test.db"
  timeout: 2s
delivery:
  token_ttl: 30m
payment_methods:
  - id: bank
    display_name: Bank transfer
    kind: plain
    enabled: true
    recipient_name: Mochi Shop
    recipient_account: "000-123"
  - id: relay
    kind: chained
catalog:
  - id: ebook
    title: Go in Practice
    price: "20.00"
    asset_location: s3://assets/ebook.pdf
buyers:
  - user_id: user-1
    name: Ana
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "checkout", cfg.Service.Name)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout, "unset keys keep defaults")
	assert.Equal(t, 2*time.Second, cfg.Storage.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Delivery.TokenTTL)
	require.Len(t, cfg.PaymentMethods, 2)
	assert.Equal(t, "chained", cfg.PaymentMethods[1].Kind)
	require.Len(t, cfg.Catalog, 1)
	assert.Equal(t, "20.00", cfg.Catalog[0].Price)
	assert.Equal(t, "Ana", cfg.Buyers[0].Name)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_ADDR", ":7000")
	t.Setenv("STOREFRONT_STORAGE_DRIVER", "postgres")
	t.Setenv("STOREFRONT_STORAGE_DSN", "postgres://localhost/shop")
	t.Setenv("STOREFRONT_DELIVERY_TOKEN_TTL", "5m")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/shop", cfg.Storage.DSN)
	assert.Equal(t, 5*time.Minute, cfg.Delivery.TokenTTL)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
}

func TestEnvOverrideErrors(t *testing.T) {
	t.Setenv("STOREFRONT_STORAGE_TIMEOUT", "soon")
	_, err := Load("")
	require.ErrorContains(t, err, "STOREFRONT_STORAGE_TIMEOUT")
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "mysql"
	cfg.Delivery.TokenTTL = 0
	cfg.PaymentMethods = []MethodConfig{
		{ID: "bank", Kind: "plain", Enabled: true},
		{ID: "BANK", Kind: "card"},
	}
	cfg.Catalog = []ProductConfig{{ID: "p", Price: "-1"}}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"storage.driver",
		"token_ttl",
		"needs recipient details",
		"duplicate id",
		"must be plain or chained",
		"positive decimal",
		"asset_location",
	} {
		assert.ErrorContains(t, err, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "storefront.example.yaml"))
	require.NoError(t, err)
	assert.Len(t, cfg.PaymentMethods, 2)
	assert.Equal(t, time.Hour, cfg.Delivery.TokenTTL)
	assert.Equal(t, "20.00", cfg.Catalog[0].Price)
}
