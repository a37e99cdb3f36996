package payment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/delivery"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/fulfillment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/receipt"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/identity"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/gormstore"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// flakyCatalog fails every lookup while down is set and reports withdrawn
// products as missing.
type flakyCatalog struct {
	catalog.Catalog
	down      atomic.Bool
	withdrawn sync.Map
}

var errCatalogDown = errors.New("catalog unavailable")

func (c *flakyCatalog) Product(ctx context.Context, id string) (*catalog.Product, error) {
	if c.down.Load() {
		return nil, errCatalogDown
	}
	if _, ok := c.withdrawn.Load(id); ok {
		return nil, catalog.ErrNotFound
	}
	return c.Catalog.Product(ctx, id)
}

// eventLog keeps every published event in order.
type eventLog struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (l *eventLog) Publish(_ context.Context, evt domoutbox.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
	return nil
}

func (l *eventLog) all() []domoutbox.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domoutbox.Event(nil), l.events...)
}

type harness struct {
	store   *gormstore.Store
	catalog *flakyCatalog
	clock   *fakeClock
	svc     *Service
	ledger  *fulfillment.Ledger
	issuer  *delivery.Issuer
	receipt *receipt.Assembler
}

const (
	ebook   = "ebook"
	course  = "course"
	bank    = "bank"
	relay   = "relay"
	buyerID = "user-1"
)

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil)
}

func newHarnessWith(t *testing.T, pub domoutbox.Publisher) *harness {
	t.Helper()
	db, err := gormstore.Open(gormstore.Config{
		Driver: gormstore.DriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, observability.NopLogger())
	require.NoError(t, err)
	require.NoError(t, gormstore.Migrate(db))
	t.Cleanup(func() { _ = gormstore.Close(db) })

	store := gormstore.NewStore(db, 2*time.Second)
	ctx := context.Background()
	require.NoError(t, store.Methods().Upsert(ctx, payment.Method{ID: bank, DisplayName: "Bank transfer", Kind: payment.KindPlain, Enabled: true, RecipientName: "Mochi Shop", RecipientAccount: "000-123"}))
	require.NoError(t, store.Methods().Upsert(ctx, payment.Method{ID: relay, DisplayName: "Wallet relay", Kind: payment.KindChained, Enabled: true, RecipientName: "Relay Desk", RecipientAccount: "W-77"}))
	require.NoError(t, store.Methods().Upsert(ctx, payment.Method{ID: "cash", Kind: payment.KindPlain, Enabled: false}))

	cat := &flakyCatalog{Catalog: memory.NewCatalog(
		catalog.Product{ID: ebook, Title: "Go in Practice", Price: decimal.RequireFromString("20.00"), AssetLocation: "s3://assets/ebook.pdf"},
		catalog.Product{ID: course, Title: "Video course", Price: decimal.RequireFromString("49.50"), AssetLocation: "s3://assets/course.zip"},
	)}
	dir := memory.NewDirectory(identity.Buyer{UserID: buyerID, Name: "Ana", Email: "ana@example.com"})
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	h := &harness{store: store, catalog: cat, clock: clock}
	h.ledger = fulfillment.NewLedger(store, clock.Now, nil)
	h.issuer = delivery.NewIssuer(store, clock.Now, time.Hour, nil)
	h.receipt = receipt.NewAssembler(store, cat, dir, id.UUID{}, clock.Now, nil)
	deps := Deps{
		Store:     store,
		Methods:   store.Methods(),
		Catalog:   cat,
		Ledger:    h.ledger,
		Receipts:  h.receipt,
		Issuer:    h.issuer,
		IDs:       id.UUID{},
		Clock:     clock.Now,
		Publisher: pub,
	}
	h.svc = NewService(deps)
	return h
}

func (h *harness) initialize(t *testing.T, user, product, method string) *payment.Session {
	t.Helper()
	res, err := h.svc.Initialize.Execute(context.Background(), InitializeSessionInput{UserID: user, ProductID: product, MethodID: method})
	require.NoError(t, err)
	return res.Session
}

func (h *harness) submit(user, sessionID string, ev payment.EvidenceInput) (*Decision, error) {
	return h.svc.Submit.Execute(context.Background(), SubmitEvidenceInput{UserID: user, SessionID: sessionID, Evidence: ev})
}

func (h *harness) db(t *testing.T) *gorm.DB {
	t.Helper()
	return h.store.DB()
}

// markPending stores evidence without deciding, as a crash between the two steps would.
func (h *harness) markPending(t *testing.T, s *payment.Session, in payment.EvidenceInput) {
	t.Helper()
	ev, err := payment.ParseEvidence(s.MethodKind, in)
	require.NoError(t, err)
	pending := s.Clone()
	require.NoError(t, pending.Submit(ev, h.clock.Now()))
	require.NoError(t, h.store.Sessions().Save(context.Background(), pending, payment.StatusInitialized))
}
