package delivery

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/ports"
	domdelivery "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

const (
	issuerService   = "delivery-issuer"
	useCaseMint     = "delivery.mint"
	useCaseResolve  = "delivery.resolve"
	tokenBytes      = 32
	DefaultTokenTTL = time.Hour
)

// Issuer mints and redeems single-use download tokens.
type Issuer struct {
	store    ports.Store
	clock    ports.Clock
	ttl      time.Duration
	random   io.Reader
	inst     *application.Instrument
	resolved observability.Counter
}

type Option func(*Issuer)

// WithRandom replaces crypto/rand as the token entropy source.
func WithRandom(r io.Reader) Option { return func(i *Issuer) { i.random = r } }

func NewIssuer(store ports.Store, clock ports.Clock, ttl time.Duration, tel observability.Observability, opts ...Option) *Issuer {
	if clock == nil {
		clock = time.Now
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	metrics := observability.NopMetrics()
	if tel != nil {
		metrics = tel.Metrics()
	}
	i := &Issuer{
		store:    store,
		clock:    clock,
		ttl:      ttl,
		random:   rand.Reader,
		inst:     application.NewInstrument(tel, issuerService),
		resolved: metrics.Counter(observability.MDeliveryResolutions),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// Mint returns the newest usable token of the transaction, minting one when
// none exists. assetLocation is captured into the token at mint time.
func (i *Issuer) Mint(ctx context.Context, transactionID, assetLocation string) (tok *domdelivery.Token, err error) {
	ctx, call := i.inst.Start(ctx, useCaseMint, "Mint", observability.F("transaction_id", transactionID))
	defer func() { call.End(err) }()

	if strings.TrimSpace(transactionID) == "" || strings.TrimSpace(assetLocation) == "" {
		return nil, failure.Invalid("transaction id and asset location are required")
	}
	return i.MintTx(ctx, i.store, transactionID, assetLocation, false)
}

// MintTx mints through repos, which may be bound to an open transaction. With
// fresh unset an existing usable token is reused.
func (i *Issuer) MintTx(ctx context.Context, repos ports.Repositories, transactionID, assetLocation string, fresh bool) (*domdelivery.Token, error) {
	now := i.clock().UTC()
	if !fresh {
		existing, err := repos.Tokens().LatestUsable(ctx, transactionID, now)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}
	raw, err := i.newToken()
	if err != nil {
		return nil, err
	}
	tok := &domdelivery.Token{
		Token:         raw,
		TransactionID: transactionID,
		AssetLocation: assetLocation,
		IssuedAt:      now,
		ExpiresAt:     now.Add(i.ttl),
	}
	if err := repos.Tokens().Insert(ctx, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func (i *Issuer) newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(i.random, buf); err != nil {
		return "", fmt.Errorf("delivery: token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Resolve redeems token once and returns the asset location it stands for.
func (i *Issuer) Resolve(ctx context.Context, token string) (location string, err error) {
	ctx, call := i.inst.Start(ctx, useCaseResolve, "Resolve")
	defer func() {
		outcome := "resolved"
		if err != nil {
			outcome = strings.ToLower(failure.CodeOf(err))
		}
		i.resolved.Add(1, observability.L("outcome", outcome))
		call.End(err)
	}()

	token = strings.TrimSpace(token)
	if token == "" {
		return "", domdelivery.ErrTokenUnknown
	}
	tok, err := i.store.Tokens().Get(ctx, token)
	if err != nil {
		return "", err
	}
	call.With(observability.F("transaction_id", tok.TransactionID))

	now := i.clock().UTC()
	if err := tok.Check(now); err != nil {
		return "", err
	}
	ok, err := i.store.Tokens().MarkUsed(ctx, token, now)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domdelivery.ErrTokenUsed
	}
	return tok.AssetLocation, nil
}

// IsRedemptionError reports whether err is one of the expected token failures.
func IsRedemptionError(err error) bool {
	return errors.Is(err, domdelivery.ErrTokenUnknown) ||
		errors.Is(err, domdelivery.ErrTokenExpired) ||
		errors.Is(err, domdelivery.ErrTokenUsed)
}
