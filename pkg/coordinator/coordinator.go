// Package coordinator is the single public surface of the settlement engine.
// It normalises input, serialises every call, delegates to the component that
// owns the operation and publishes the outcome.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/chris/trade-sphere/pkg/dispute"
	"github.com/chris/trade-sphere/pkg/escrow"
	"github.com/chris/trade-sphere/pkg/events"
	"github.com/chris/trade-sphere/pkg/metrics"
	"github.com/chris/trade-sphere/pkg/models"
	"github.com/chris/trade-sphere/pkg/registry"
	"github.com/chris/trade-sphere/pkg/storage"
	"github.com/chris/trade-sphere/pkg/trades"
)

// Entry point names, used as metric labels.
const (
	EntryAddSupportedToken    = "add-supported-token"
	EntryRemoveSupportedToken = "remove-supported-token"
	EntryIsSupportedToken     = "is-supported-token"
	EntryListSupportedTokens  = "list-supported-tokens"
	EntryCreateTrade          = "create-trade"
	EntryGetTrade             = "get-trade"
	EntryListTrades           = "list-trades"
	EntryFundEscrow           = "fund-escrow"
	EntryReleaseEscrow        = "release-escrow"
	EntryRefundEscrow         = "refund-escrow"
	EntryUpdateStatus         = "update-status"
	EntryRaiseDispute         = "raise-dispute"
	EntryResolveDispute       = "resolve-dispute"
	EntryDeposit              = "deposit"
	EntryGetWallet            = "get-wallet"
	EntryListWallets          = "list-wallets"
	EntryListLedger           = "list-ledger"
	EntryCustody              = "custody"
)

// Principals are the contract-wide roles. They must already be normalised.
type Principals struct {
	Admin    string
	Arbiter  string
	Contract string
}

// Coordinator wires the registry, trade ledger, escrow engine and dispute
// resolver behind one mutex.
type Coordinator struct {
	mu sync.RWMutex

	store    storage.Storage
	registry *registry.Registry
	trades   *trades.Ledger
	escrow   *escrow.Engine
	disputes *dispute.Resolver

	principals Principals
	emitter    events.Emitter
	metrics    *metrics.Metrics
	logger     *slog.Logger
	nowFn      func() time.Time
}

// New creates a coordinator over store. Events are discarded and metrics are
// not recorded until SetEmitter and SetMetrics are called.
func New(store storage.Storage, principals Principals) *Coordinator {
	reg := registry.New(store, principals.Admin)
	ledger := trades.New(store, reg, principals.Contract)
	engine := escrow.NewEngine(store, principals.Contract)
	return &Coordinator{
		store:      store,
		registry:   reg,
		trades:     ledger,
		escrow:     engine,
		disputes:   dispute.NewResolver(ledger, engine, principals.Arbiter),
		principals: principals,
		emitter:    events.NoopEmitter{},
		logger:     slog.Default(),
		nowFn:      time.Now,
	}
}

// SetEmitter configures where committed events are sent. Passing nil resets it
// to a no-op emitter.
func (c *Coordinator) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	c.emitter = emitter
}

// SetMetrics configures the metrics sink.
func (c *Coordinator) SetMetrics(m *metrics.Metrics) { c.metrics = m }

// SetLogger configures the logger. Passing nil restores slog.Default.
func (c *Coordinator) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	c.logger = logger
}

// SetNowFunc overrides the time source used for event timestamps and by the
// escrow engine.
func (c *Coordinator) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	c.nowFn = now
	c.escrow.SetNowFunc(now)
}

// Principals returns the configured contract-wide roles.
func (c *Coordinator) Principals() Principals { return c.principals }

// write runs fn under the exclusive lock and records its outcome.
func (c *Coordinator) write(entryPoint string, fn func() error) error {
	start := time.Now()
	c.mu.Lock()
	err := classify(fn())
	c.mu.Unlock()
	c.observe(entryPoint, start, err)
	return err
}

// read runs fn under the shared lock and records its outcome.
func (c *Coordinator) read(entryPoint string, fn func() error) error {
	start := time.Now()
	c.mu.RLock()
	err := classify(fn())
	c.mu.RUnlock()
	c.observe(entryPoint, start, err)
	return err
}

func (c *Coordinator) observe(entryPoint string, start time.Time, err error) {
	c.metrics.ObserveCall(entryPoint, string(models.CodeOf(err)), time.Since(start))
	if err != nil {
		level := slog.LevelDebug
		if models.CodeOf(err) == models.CodeInternal {
			level = slog.LevelError
		}
		c.logger.Log(context.Background(), level, "entry point failed",
			slog.String("entry_point", entryPoint),
			slog.String("code", string(models.CodeOf(err))),
			slog.String("error", err.Error()))
	}
}

// classify guarantees every failure carries a taxonomy code.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var tagged *models.Error
	if errors.As(err, &tagged) {
		return err
	}
	return models.Wrap(models.CodeInternal, err, "unexpected failure")
}

// emit publishes a committed event. It must be called with the lock held so
// events leave in commit order. Failures are logged and never returned.
func (c *Coordinator) emit(ctx context.Context, typ events.Type, tradeID *uint64, attrs map[string]string) {
	evt := events.New(typ, tradeID, attrs, c.nowFn())
	if err := c.emitter.Emit(ctx, evt); err != nil {
		c.logger.Error("failed to emit event",
			slog.String("event_id", evt.ID),
			slog.String("event_type", string(evt.Type)),
			slog.String("error", err.Error()))
	}
}

func (c *Coordinator) logTransition(entryPoint string, trade *models.Trade, caller string) {
	c.logger.Info("trade transition committed",
		slog.String("entry_point", entryPoint),
		slog.Uint64("trade_id", trade.Id),
		slog.String("status", string(trade.Status)),
		slog.String("caller", caller),
		slog.Uint64("escrowed", trade.EscrowedAmount))
}

func tradeAttrs(trade *models.Trade, caller string) map[string]string {
	return map[string]string{
		"buyer":    trade.Buyer,
		"seller":   trade.Seller,
		"asset":    trade.Asset(),
		"amount":   strconv.FormatUint(trade.Amount, 10),
		"escrowed": strconv.FormatUint(trade.EscrowedAmount, 10),
		"status":   string(trade.Status),
		"caller":   caller,
	}
}

// normalizeCaller rejects anonymous callers before any other validation.
func normalizeCaller(raw string) (string, error) {
	if raw == "" {
		return "", models.Errorf(models.CodeUnauthorized, "caller principal is required")
	}
	return models.NormalizePrincipal(raw)
}
