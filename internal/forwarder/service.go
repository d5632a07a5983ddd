package forwarder

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"autoswap/internal/domain"
	"autoswap/internal/hyperliquid"
	"autoswap/internal/storage"
	"autoswap/internal/trading"
	"autoswap/internal/transfer"
	"autoswap/internal/watcher"
)

// Service configuration errors.
var (
	ErrAddressNotConfigured = errors.New("wallet address not configured")
	ErrKeyNotConfigured     = errors.New("private key not configured")
)

// ServiceConfig is the static configuration of the operator service.
type ServiceConfig struct {
	Address    string // monitored wallet
	PrivateKey string // signing key, hex
	Testnet    bool
	Pipeline   Config
}

// StartOptions override parts of the service configuration for one
// monitoring session. Nil pointers keep the configured values.
type StartOptions struct {
	MinOrderAmount *decimal.Decimal
	TargetCoin     string
	Testnet        *bool
}

// Status is a point-in-time snapshot of the service.
type Status struct {
	Running          bool   `json:"isMonitoring"`
	Connected        bool   `json:"wsConnected"`
	Address          string `json:"walletAddress"`
	Network          string `json:"network"`
	TargetCoin       string `json:"targetCoin"`
	MinOrderAmount   string `json:"minOrderAmount"`
	UptimeSeconds    int64  `json:"uptimeSeconds"`
	DepositsDetected int64  `json:"depositsDetected"`
	CompletedCount   int    `json:"completedCount"`
	ArchivedCount    uint64 `json:"archivedCount,omitempty"` // audit archive, when configured
	StartedAt        int64  `json:"startedAt,omitempty"`     // epoch ms, 0 when stopped
}

// Service is the operator facade over the watcher and the forwarder:
// start/stop monitoring, status, ledger listing and the manual trigger.
// All state mutations are mutex-guarded because the manual path and the
// watcher control path may interleave.
type Service struct {
	cfg    ServiceConfig
	store  storage.TransactionStore
	audit  storage.AuditStore // optional
	logger *log.Logger

	mu        sync.Mutex
	running   bool
	testnet   bool
	pipeline  Config
	watcher   *watcher.Watcher
	forwarder *Forwarder
	startedAt time.Time
}

// NewService creates the service. The ledger store is required; the
// audit store is optional.
func NewService(cfg ServiceConfig, store storage.TransactionStore, audit storage.AuditStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		cfg:      cfg,
		store:    store,
		audit:    audit,
		logger:   logger,
		testnet:  cfg.Testnet,
		pipeline: cfg.Pipeline.withDefaults(),
	}
}

// StartMonitoring connects to the ledger stream and begins processing
// deposits. Starting an active service is a no-op.
func (s *Service) StartMonitoring(ctx context.Context, opts StartOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return "monitoring already active", nil
	}
	if s.cfg.Address == "" {
		return "", ErrAddressNotConfigured
	}

	pipeline := s.cfg.Pipeline.withDefaults()
	testnet := s.cfg.Testnet
	if opts.MinOrderAmount != nil {
		pipeline.MinOrderAmount = *opts.MinOrderAmount
	}
	if opts.TargetCoin != "" {
		pipeline.TargetCoin = opts.TargetCoin
	}
	if opts.Testnet != nil {
		testnet = *opts.Testnet
	}

	fwd, err := s.buildForwarder(testnet, pipeline)
	if err != nil {
		return "", err
	}

	ws := hyperliquid.NewWSClient(hyperliquid.WSURL(testnet), s.cfg.Address, nil, s.logger)
	w := watcher.New(watcher.Options{
		WSClient:  ws,
		Address:   s.cfg.Address,
		Processor: fwd,
		Logger:    s.logger,
	})
	if err := w.Start(ctx); err != nil {
		return "", err
	}

	s.running = true
	s.testnet = testnet
	s.pipeline = pipeline
	s.watcher = w
	s.forwarder = fwd
	s.startedAt = time.Now()

	s.logger.Printf("monitoring %s on %s: USDC -> %s -> send back, minimum $%s",
		s.cfg.Address, s.network(testnet), pipeline.TargetCoin, pipeline.MinOrderAmount)
	return "monitoring started", nil
}

// StopMonitoring tears down the stream. An in-progress pipeline runs to
// its terminal state. Stopping an inactive service is a no-op.
func (s *Service) StopMonitoring() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return "monitoring not active"
	}
	s.watcher.Stop()
	s.running = false
	s.watcher = nil
	s.startedAt = time.Time{}
	s.logger.Printf("monitoring stopped")
	return "monitoring stopped"
}

// Status reports the current service state.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	s.mu.Lock()
	running := s.running
	w := s.watcher
	testnet := s.testnet
	pipeline := s.pipeline
	startedAt := s.startedAt
	s.mu.Unlock()

	completed, err := s.store.CountByStatus(ctx, domain.StatusCompleted)
	if err != nil {
		return nil, err
	}

	st := &Status{
		Running:        running,
		Address:        s.cfg.Address,
		Network:        s.network(testnet),
		TargetCoin:     pipeline.TargetCoin,
		MinOrderAmount: pipeline.MinOrderAmount.String(),
		CompletedCount: completed,
	}
	if s.audit != nil {
		// Archive count is best effort: errors are logged, not returned.
		archived, err := s.audit.CountByStatus(ctx, domain.StatusCompleted)
		if err != nil {
			s.logger.Printf("count archived transactions: %v", err)
		} else {
			st.ArchivedCount = archived
		}
	}
	if running {
		st.Connected = w.Connected()
		st.DepositsDetected = w.DepositsDetected()
		st.UptimeSeconds = int64(time.Since(startedAt).Seconds())
		st.StartedAt = startedAt.UnixMilli()
	}
	return st, nil
}

// Transactions lists ledger records most-recent-first. limit <= 0
// returns all.
func (s *Service) Transactions(ctx context.Context, limit int) ([]*domain.Transaction, error) {
	return s.store.List(ctx, limit)
}

// Manual runs the pipeline once outside the event stream. It works
// whether or not monitoring is active.
func (s *Service) Manual(ctx context.Context, amount decimal.Decimal, sender, targetCoin string, slippagePercent decimal.Decimal) (*domain.Transaction, error) {
	s.mu.Lock()
	fwd := s.forwarder
	testnet := s.testnet
	pipeline := s.pipeline
	s.mu.Unlock()

	if fwd == nil {
		var err error
		fwd, err = s.buildForwarder(testnet, pipeline)
		if err != nil {
			return nil, err
		}
	}
	return fwd.ProcessManual(ctx, amount, sender, targetCoin, slippagePercent)
}

// buildForwarder wires the signer, the exchange clients and the
// executors for one network.
func (s *Service) buildForwarder(testnet bool, pipeline Config) (*Forwarder, error) {
	if s.cfg.PrivateKey == "" {
		return nil, ErrKeyNotConfigured
	}
	signer, err := hyperliquid.NewSigner(s.cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	info := hyperliquid.NewInfoClient(testnet)
	exchange := hyperliquid.NewExchangeClient(testnet, signer)

	return New(Options{
		Config:    pipeline,
		Address:   s.cfg.Address,
		Orders:    trading.NewExecutor(exchange, s.logger),
		Transfers: transfer.NewExecutor(exchange, info, nil, s.logger),
		Info:      info,
		Store:     s.store,
		Audit:     s.audit,
		Logger:    s.logger,
	}), nil
}

func (s *Service) network(testnet bool) string {
	if testnet {
		return "testnet"
	}
	return "mainnet"
}
