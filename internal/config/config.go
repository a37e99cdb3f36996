// Package config loads the service configuration from a YAML file and applies
// STOREFRONT_* environment overrides on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const envPrefix = "STOREFRONT_"

type Config struct {
	Service        ServiceConfig   `yaml:"service"`
	HTTP           HTTPConfig      `yaml:"http"`
	Storage        StorageConfig   `yaml:"storage"`
	Delivery       DeliveryConfig  `yaml:"delivery"`
	Identity       IdentityConfig  `yaml:"identity"`
	Telemetry      TelemetryConfig `yaml:"telemetry"`
	PaymentMethods []MethodConfig  `yaml:"payment_methods"`
	Catalog        []ProductConfig `yaml:"catalog"`
	Buyers         []BuyerConfig   `yaml:"buyers"`
}

type ServiceConfig struct {
	Name string `yaml:"name"`
	Env  string `yaml:"env"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// EvidenceRate is the sustained evidence submissions per second allowed per user.
	EvidenceRate  float64 `yaml:"evidence_rate"`
	EvidenceBurst int     `yaml:"evidence_burst"`
}

type StorageConfig struct {
	Driver       string        `yaml:"driver"`
	DSN          string        `yaml:"dsn"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	SlowQuery    time.Duration `yaml:"slow_query"`
}

type DeliveryConfig struct {
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type IdentityConfig struct {
	// HMACSecret verifies bearer tokens. When empty the X-User-ID header is trusted.
	HMACSecret string `yaml:"hmac_secret"`
	Issuer     string `yaml:"issuer"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
	OTLPHeaders  string `yaml:"otlp_headers"`
}

type MethodConfig struct {
	ID               string `yaml:"id"`
	DisplayName      string `yaml:"display_name"`
	Kind             string `yaml:"kind"`
	Enabled          bool   `yaml:"enabled"`
	RecipientName    string `yaml:"recipient_name"`
	RecipientAccount string `yaml:"recipient_account"`
}

type ProductConfig struct {
	ID            string `yaml:"id"`
	Title         string `yaml:"title"`
	Price         string `yaml:"price"`
	AssetLocation string `yaml:"asset_location"`
}

type BuyerConfig struct {
	UserID string `yaml:"user_id"`
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
}

// Default returns a configuration that runs locally against an SQLite file.
func Default() Config {
	return Config{
		Service: ServiceConfig{Name: "storefront-checkout", Env: "dev"},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			EvidenceRate:    1,
			EvidenceBurst:   5,
		},
		Storage: StorageConfig{
			Driver:    "sqlite",
			DSN:       "storefront.db",
			Timeout:   3 * time.Second,
			SlowQuery: 200 * time.Millisecond,
		},
		Delivery: DeliveryConfig{TokenTTL: time.Hour},
	}
}

// Load reads path (optional) over the defaults, then applies env overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Service.Name = getenvDefault(envPrefix+"SERVICE_NAME", cfg.Service.Name)
	cfg.Service.Env = getenvDefault(envPrefix+"ENV", cfg.Service.Env)
	cfg.HTTP.Addr = getenvDefault(envPrefix+"HTTP_ADDR", cfg.HTTP.Addr)
	cfg.Storage.Driver = getenvDefault(envPrefix+"STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.DSN = getenvDefault(envPrefix+"STORAGE_DSN", cfg.Storage.DSN)
	cfg.Identity.HMACSecret = getenvDefault(envPrefix+"IDENTITY_HMAC_SECRET", cfg.Identity.HMACSecret)
	cfg.Identity.Issuer = getenvDefault(envPrefix+"IDENTITY_ISSUER", cfg.Identity.Issuer)
	cfg.Telemetry.OTLPEndpoint = getenvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.OTLPHeaders = getenvDefault("OTEL_EXPORTER_OTLP_HEADERS", cfg.Telemetry.OTLPHeaders)

	var err error
	if cfg.HTTP.ShutdownTimeout, err = parseDurationDefault(envPrefix+"HTTP_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout); err != nil {
		return err
	}
	if cfg.Storage.Timeout, err = parseDurationDefault(envPrefix+"STORAGE_TIMEOUT", cfg.Storage.Timeout); err != nil {
		return err
	}
	if cfg.Delivery.TokenTTL, err = parseDurationDefault(envPrefix+"DELIVERY_TOKEN_TTL", cfg.Delivery.TokenTTL); err != nil {
		return err
	}
	if raw := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("config: parse OTEL_EXPORTER_OTLP_INSECURE: %w", err)
		}
		cfg.Telemetry.OTLPInsecure = v
	}
	return nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Service.Name) == "" {
		errs = append(errs, errors.New("service.name is required"))
	}
	switch strings.ToLower(c.Storage.Driver) {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q must be sqlite or postgres", c.Storage.Driver))
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		errs = append(errs, errors.New("storage.dsn is required"))
	}
	if c.Storage.Timeout <= 0 {
		errs = append(errs, errors.New("storage.timeout must be positive"))
	}
	if c.Delivery.TokenTTL <= 0 {
		errs = append(errs, errors.New("delivery.token_ttl must be positive"))
	}
	if c.HTTP.EvidenceRate < 0 || c.HTTP.EvidenceBurst < 0 {
		errs = append(errs, errors.New("http evidence rate and burst must not be negative"))
	}

	seen := map[string]bool{}
	for i, m := range c.PaymentMethods {
		id := strings.ToLower(strings.TrimSpace(m.ID))
		switch {
		case id == "":
			errs = append(errs, fmt.Errorf("payment_methods[%d].id is required", i))
		case seen[id]:
			errs = append(errs, fmt.Errorf("payment_methods[%d]: duplicate id %q", i, id))
		}
		seen[id] = true
		if m.Kind != "plain" && m.Kind != "chained" {
			errs = append(errs, fmt.Errorf("payment_methods[%d].kind %q must be plain or chained", i, m.Kind))
		}
		if m.Enabled && (strings.TrimSpace(m.RecipientName) == "" || strings.TrimSpace(m.RecipientAccount) == "") {
			errs = append(errs, fmt.Errorf("payment_methods[%d]: enabled method needs recipient details", i))
		}
	}
	for i, p := range c.Catalog {
		if strings.TrimSpace(p.ID) == "" {
			errs = append(errs, fmt.Errorf("catalog[%d].id is required", i))
		}
		price, err := decimal.NewFromString(strings.TrimSpace(p.Price))
		if err != nil || !price.IsPositive() {
			errs = append(errs, fmt.Errorf("catalog[%d].price %q must be a positive decimal", i, p.Price))
		}
		if strings.TrimSpace(p.AssetLocation) == "" {
			errs = append(errs, fmt.Errorf("catalog[%d].asset_location is required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseDurationDefault(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	return d, nil
}
