// Package forwarder sequences the deposit pipeline: size and place the
// buy order, wait for the purchase to settle, send the bought asset
// back to the depositor. Every run leaves one transaction in the
// ledger with a terminal status.
package forwarder

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"autoswap/internal/domain"
	"autoswap/internal/hyperliquid"
	"autoswap/internal/observability"
	"autoswap/internal/storage"
	"autoswap/internal/trading"
)

// Pipeline defaults, matching the long-running service configuration.
var (
	DefaultTargetCoin      = "HYPE"
	DefaultMinOrderAmount  = decimal.NewFromInt(1)
	DefaultSlippagePercent = decimal.NewFromInt(5)
	DefaultSettleDelay     = 3 * time.Second
)

// Config holds the pipeline parameters. Zero values fall back to the
// defaults above.
type Config struct {
	TargetCoin      string
	MinOrderAmount  decimal.Decimal
	SlippagePercent decimal.Decimal
	SettleDelay     time.Duration
}

func (c Config) withDefaults() Config {
	if c.TargetCoin == "" {
		c.TargetCoin = DefaultTargetCoin
	}
	if c.MinOrderAmount.IsZero() {
		c.MinOrderAmount = DefaultMinOrderAmount
	}
	if c.SlippagePercent.IsZero() {
		c.SlippagePercent = DefaultSlippagePercent
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	return c
}

// MarketData serves price and metadata lookups. Implemented by
// hyperliquid.InfoClient.
type MarketData interface {
	AllMids(ctx context.Context) (map[string]string, error)
	SpotMeta(ctx context.Context) (*hyperliquid.SpotMeta, error)
}

// OrderExecutor places one sized order. Implemented by trading.Executor.
type OrderExecutor interface {
	Execute(ctx context.Context, spec *trading.OrderSpec, assetID int) (*trading.Fill, error)
}

// TransferSender moves the bought asset back to the depositor.
// Implemented by transfer.Executor.
type TransferSender interface {
	Send(ctx context.Context, tokenSymbol, destination, amount string) error
}

// Forwarder runs one deposit through the buy/settle/transfer state
// machine. It is safe for the watcher path and the manual path to call
// it concurrently; ledger writes go through the store's own locking.
type Forwarder struct {
	cfg       Config
	address   string
	sizer     *trading.Sizer
	orders    OrderExecutor
	transfers TransferSender
	info      MarketData
	store     storage.TransactionStore
	audit     storage.AuditStore // optional
	logger    *log.Logger
}

// Options configures a Forwarder. Audit and Logger are optional.
type Options struct {
	Config    Config
	Address   string // monitored wallet, recorded as the "to" side
	Sizer     *trading.Sizer
	Orders    OrderExecutor
	Transfers TransferSender
	Info      MarketData
	Store     storage.TransactionStore
	Audit     storage.AuditStore
	Logger    *log.Logger
}

// New creates a forwarder.
func New(opts Options) *Forwarder {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Sizer == nil {
		opts.Sizer = trading.NewSizer(nil)
	}
	return &Forwarder{
		cfg:       opts.Config.withDefaults(),
		address:   opts.Address,
		sizer:     opts.Sizer,
		orders:    opts.Orders,
		transfers: opts.Transfers,
		info:      opts.Info,
		store:     opts.Store,
		audit:     opts.Audit,
		logger:    opts.Logger,
	}
}

// Config returns the effective pipeline configuration.
func (f *Forwarder) Config() Config {
	return f.cfg
}

// Process runs a detected deposit through the pipeline. The returned
// transaction always holds a terminal status; a non-nil error is only
// returned when the ledger itself rejected the record.
func (f *Forwarder) Process(ctx context.Context, dep domain.DepositEvent) (*domain.Transaction, error) {
	amount, err := decimal.NewFromString(dep.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse deposit amount %q: %w", dep.Amount, err)
	}

	tx := &domain.Transaction{
		ID:           "auto_" + uuid.NewString(),
		CreatedAt:    time.Now().UnixMilli(),
		From:         dep.Sender,
		To:           f.address,
		InputAmount:  dep.Amount,
		OutputAmount: "0",
		Coin:         f.cfg.TargetCoin,
		EventHash:    dep.Hash,
		Status:       domain.StatusPending,
	}
	if err := f.store.Insert(ctx, tx); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	f.logger.Printf("USDC received: %s from %s", dep.Amount, dep.Sender)
	f.run(ctx, tx, amount, f.cfg.TargetCoin, f.cfg.SlippagePercent)
	return tx, nil
}

// ProcessManual runs the identical pipeline outside the event stream.
// Empty targetCoin and zero slippage fall back to the configured
// defaults.
func (f *Forwarder) ProcessManual(ctx context.Context, amount decimal.Decimal, sender, targetCoin string, slippagePercent decimal.Decimal) (*domain.Transaction, error) {
	coin := targetCoin
	if coin == "" {
		coin = f.cfg.TargetCoin
	}
	slippage := slippagePercent
	if slippage.IsZero() {
		slippage = f.cfg.SlippagePercent
	}

	tx := &domain.Transaction{
		ID:           "manual_" + uuid.NewString(),
		CreatedAt:    time.Now().UnixMilli(),
		From:         sender,
		To:           f.address,
		InputAmount:  amount.String(),
		OutputAmount: "0",
		Coin:         coin,
		EventHash:    "manual_process",
		Status:       domain.StatusPending,
	}
	if err := f.store.Insert(ctx, tx); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	f.logger.Printf("manual process: %s USDC -> %s for %s", amount, coin, sender)
	f.run(ctx, tx, amount, coin, slippage)
	return tx, nil
}

// run drives tx from pending to a terminal status. The buy, the settle
// wait and the transfer each fail the transaction independently; a
// transfer failure after a real purchase keeps the output amount and
// flags the record for manual reconciliation.
func (f *Forwarder) run(ctx context.Context, tx *domain.Transaction, usdAmount decimal.Decimal, coin string, slippage decimal.Decimal) {
	if usdAmount.LessThan(f.cfg.MinOrderAmount) {
		f.logger.Printf("amount %s below minimum %s, skipping order", usdAmount, f.cfg.MinOrderAmount)
		f.fail(ctx, tx, "amount below minimum")
		return
	}

	fill, err := f.buy(ctx, coin, usdAmount, slippage)
	if err != nil {
		f.fail(ctx, tx, err.Error())
		return
	}

	tx.OutputAmount = fill.Quantity.String()
	if err := f.store.Update(ctx, tx); err != nil {
		f.logger.Printf("record fill for %s: %v", tx.ID, err)
	}

	if err := f.settle(ctx); err != nil {
		f.fail(ctx, tx, err.Error())
		return
	}

	f.logger.Printf("transferring %s %s to %s", tx.OutputAmount, coin, tx.From)
	start := time.Now()
	if err := f.transfers.Send(ctx, coin, tx.From, tx.OutputAmount); err != nil {
		observability.RecordStageLatency("transfer", time.Since(start).Seconds())
		observability.RecordManualReconciliation()
		f.fail(ctx, tx, fmt.Sprintf("transfer failed after purchase, manual reconciliation required: %v", err))
		return
	}
	observability.RecordStageLatency("transfer", time.Since(start).Seconds())

	tx.Status = domain.StatusCompleted
	if err := f.store.Update(ctx, tx); err != nil {
		f.logger.Printf("complete transaction %s: %v", tx.ID, err)
	}
	observability.RecordTransaction(domain.StatusCompleted)
	f.archive(ctx, tx)
	f.logger.Printf("process completed: %s USDC -> %s %s -> %s", tx.InputAmount, tx.OutputAmount, coin, tx.From)
}

// buy sizes and submits the IOC order, returning the realized fill.
func (f *Forwarder) buy(ctx context.Context, coin string, usdAmount, slippage decimal.Decimal) (*trading.Fill, error) {
	start := time.Now()
	defer func() {
		observability.RecordStageLatency("buy", time.Since(start).Seconds())
	}()

	mids, err := f.info.AllMids(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch mids: %w", err)
	}
	meta, err := f.info.SpotMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch spot metadata: %w", err)
	}

	spec, err := f.sizer.Size(coin, usdAmount, true, slippage, mids, meta.SizeDecimals(coin))
	if err != nil {
		return nil, err
	}
	assetID, ok := meta.SpotAssetID(spec.Market)
	if !ok {
		return nil, fmt.Errorf("no spot market found for %s", spec.Market)
	}

	f.logger.Printf("buying %s %s at limit %s (mid %s)", spec.Quantity, coin, spec.LimitPrice, spec.MidPrice)
	return f.orders.Execute(ctx, spec, assetID)
}

// settle waits the fixed delay for the exchange to reflect the new
// balance before it is moved. Not a retry loop.
func (f *Forwarder) settle(ctx context.Context) error {
	start := time.Now()
	defer func() {
		observability.RecordStageLatency("settle", time.Since(start).Seconds())
	}()

	timer := time.NewTimer(f.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("settle wait interrupted: %w", ctx.Err())
	}
}

func (f *Forwarder) fail(ctx context.Context, tx *domain.Transaction, reason string) {
	tx.Status = domain.StatusFailed
	tx.Error = reason
	if err := f.store.Update(ctx, tx); err != nil {
		f.logger.Printf("fail transaction %s: %v", tx.ID, err)
	}
	observability.RecordTransaction(domain.StatusFailed)
	f.archive(ctx, tx)
	f.logger.Printf("process failed: %s", reason)
}

// archive copies a terminal record to the audit store when one is
// configured. Archive failures never fail the pipeline.
func (f *Forwarder) archive(ctx context.Context, tx *domain.Transaction) {
	if f.audit == nil {
		return
	}
	if err := f.audit.Archive(ctx, tx); err != nil {
		f.logger.Printf("archive transaction %s: %v", tx.ID, err)
	}
}
