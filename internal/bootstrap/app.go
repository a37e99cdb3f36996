// Package bootstrap assembles the service from its configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/audit"
	appdelivery "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/delivery"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/fulfillment"
	apppayment "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	appreceipt "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/receipt"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/gormstore"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	infraidentity "github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/identity"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tracerName = "storefront"

// App owns every long-lived component of a running service.
type App struct {
	Config   config.Config
	Log      observability.Logger
	Registry *prometheus.Registry
	Tel      observability.Observability
	DB       *gorm.DB
	Store    *gormstore.Store
	Bus      *outbox.Bus
	Payments *apppayment.Service
	Receipts *appreceipt.Assembler
	Issuer   *appdelivery.Issuer
	Audit    *audit.Worker

	zap           *zap.Logger
	stopTelemetry func(context.Context) error
}

// NewLogger builds the zap logger and its port adapter.
func NewLogger(cfg config.Config) (*zap.Logger, observability.Logger, error) {
	zl, err := logging.NewLogger(logging.OptionsFromEnv(cfg.Service.Name, cfg.Service.Env))
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: logger: %w", err)
	}
	return zl, zaplogger.Wrap(zl), nil
}

// OpenStore connects to the configured database and migrates it.
func OpenStore(cfg config.Config, log observability.Logger) (*gorm.DB, *gormstore.Store, error) {
	db, err := gormstore.Open(gormstore.Config{
		Driver:       cfg.Storage.Driver,
		DSN:          cfg.Storage.DSN,
		MaxOpenConns: cfg.Storage.MaxOpenConns,
		SlowQuery:    cfg.Storage.SlowQuery,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	if err := gormstore.Migrate(db); err != nil {
		_ = gormstore.Close(db)
		return nil, nil, fmt.Errorf("bootstrap: migrate: %w", err)
	}
	return db, gormstore.NewStore(db, cfg.Storage.Timeout), nil
}

// SeedMethods upserts the configured payment methods into the registry.
func SeedMethods(ctx context.Context, admin payment.MethodAdmin, methods []config.MethodConfig) error {
	for _, m := range methods {
		if err := admin.Upsert(ctx, Method(m)); err != nil {
			return fmt.Errorf("bootstrap: seed method %q: %w", m.ID, err)
		}
	}
	return nil
}

func Method(m config.MethodConfig) payment.Method {
	return payment.Method{
		ID:               payment.NormalizeMethodID(m.ID),
		DisplayName:      m.DisplayName,
		Kind:             payment.MethodKind(m.Kind),
		Enabled:          m.Enabled,
		RecipientName:    m.RecipientName,
		RecipientAccount: m.RecipientAccount,
	}
}

// Catalog builds the in-process catalog from configuration.
func Catalog(products []config.ProductConfig) (*memory.Catalog, error) {
	items := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		price, err := decimal.NewFromString(strings.TrimSpace(p.Price))
		if err != nil {
			return nil, fmt.Errorf("bootstrap: catalog %q price: %w", p.ID, err)
		}
		items = append(items, catalog.Product{
			ID:            strings.TrimSpace(p.ID),
			Title:         p.Title,
			Price:         price,
			AssetLocation: p.AssetLocation,
		})
	}
	return memory.NewCatalog(items...), nil
}

func Directory(buyers []config.BuyerConfig) *memory.Directory {
	out := make([]identity.Buyer, 0, len(buyers))
	for _, b := range buyers {
		out = append(out, identity.Buyer{UserID: b.UserID, Name: b.Name, Email: b.Email})
	}
	return memory.NewDirectory(out...)
}

// Authenticator verifies bearer tokens when a secret is configured and trusts
// the gateway header otherwise.
func Authenticator(cfg config.IdentityConfig) (identity.Authenticator, error) {
	if strings.TrimSpace(cfg.HMACSecret) == "" {
		return infraidentity.HeaderTrust{}, nil
	}
	return infraidentity.NewHMACVerifier(cfg.HMACSecret, cfg.Issuer)
}

// New wires the full service. Close must be called once the App is no longer needed.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	zl, log, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Log: log, zap: zl}

	app.stopTelemetry, err = oteltrace.Init(ctx, oteltrace.Config{
		ServiceName: cfg.Service.Name,
		Environment: cfg.Service.Env,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.OTLPInsecure,
		Headers:     oteltrace.ParseHeaders(cfg.Telemetry.OTLPHeaders),
	})
	if err != nil {
		_ = zl.Sync()
		return nil, fmt.Errorf("bootstrap: telemetry: %w", err)
	}

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Tel = infraobs.NewWithRegistry(app.Registry, tracerName, log)

	app.DB, app.Store, err = OpenStore(cfg, log)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	if err := SeedMethods(ctx, app.Store.Methods(), cfg.PaymentMethods); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	cat, err := Catalog(cfg.Catalog)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	dir := Directory(cfg.Buyers)
	clock := time.Now
	ids := id.UUID{}

	app.Bus = outbox.NewBus(log)
	ledger := fulfillment.NewLedger(app.Store, clock, app.Tel)
	app.Issuer = appdelivery.NewIssuer(app.Store, clock, cfg.Delivery.TokenTTL, app.Tel)
	app.Receipts = appreceipt.NewAssembler(app.Store, cat, dir, ids, clock, app.Tel)
	app.Payments = apppayment.NewService(apppayment.Deps{
		Store:     app.Store,
		Methods:   app.Store.Methods(),
		Catalog:   cat,
		Ledger:    ledger,
		Receipts:  app.Receipts,
		Issuer:    app.Issuer,
		Publisher: app.Bus,
		IDs:       ids,
		Clock:     clock,
		Tel:       app.Tel,
	})
	app.Audit = audit.New(app.Bus, app.Store.Audit(), app.Tel, workerpresentation.EventScope(app.Tel, "audit_worker"))
	return app, nil
}

// Handler returns the HTTP surface, including /metrics.
func (a *App) Handler() (http.Handler, error) {
	auth, err := Authenticator(a.Config.Identity)
	if err != nil {
		return nil, err
	}
	return httppresentation.NewHandler(httppresentation.Options{
		Payments: a.Payments,
		Receipts: a.Receipts,
		Issuer:   a.Issuer,
		Auth:     auth,
		Limiter:  httppresentation.NewRateLimiter(a.Config.HTTP.EvidenceRate, a.Config.HTTP.EvidenceBurst),
		Logger:   a.Log,
		Tel:      a.Tel,
		Metrics:  promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry}),
	}).Router(), nil
}

// Serve runs the workers and the HTTP server until ctx is cancelled, then
// drains both within the configured shutdown timeout.
func (a *App) Serve(ctx context.Context) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}
	systemLogger := a.Log.With(
		observability.F("trace_id", logging.SystemTraceID),
		observability.F("span_id", logging.SystemSpanID),
	)

	a.Audit.Start()
	a.Bus.Start(ctx)

	server := &http.Server{
		Addr:              a.Config.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		systemLogger.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		if runErr != nil {
			systemLogger.Error("http_server_error", observability.F("error", runErr.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", observability.F("error", err.Error()))
		runErr = errors.Join(runErr, err)
	} else {
		systemLogger.Info("http_server_stopped")
	}
	if err := a.Bus.Stop(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

// Close releases storage and flushes telemetry and logs.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, gormstore.Close(a.DB))
	}
	if a.stopTelemetry != nil {
		errs = append(errs, a.stopTelemetry(ctx))
	}
	if a.zap != nil {
		_ = a.zap.Sync()
	}
	return errors.Join(errs...)
}
