package watcher

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"autoswap/internal/domain"
	"autoswap/internal/hyperliquid"
	"autoswap/internal/observability"
)

// Processor runs the buy-settle-forward pipeline for one deposit.
type Processor interface {
	Process(ctx context.Context, deposit domain.DepositEvent) (*domain.Transaction, error)
}

// Watcher owns the streaming connection and the single event-processing
// path: one connection, one consumer goroutine, deposits handled to
// completion strictly in arrival order.
type Watcher struct {
	ws        *hyperliquid.WSClient
	filter    *Filter
	inFlight  *InFlight
	processor Processor
	logger    *log.Logger

	startTime int64 // epoch ms
	detected  atomic.Int64

	done chan struct{}
}

// Options configures a Watcher.
type Options struct {
	WSClient  *hyperliquid.WSClient
	Address   string // monitored wallet
	Processor Processor
	Nonces    *NonceCache // optional, defaults to capacity 100
	Logger    *log.Logger
}

// New creates a watcher. Start must be called to begin consuming.
func New(opts Options) *Watcher {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	start := time.Now().UnixMilli()
	return &Watcher{
		ws:        opts.WSClient,
		filter:    NewFilter(opts.Address, start, opts.Nonces),
		inFlight:  NewInFlight(),
		processor: opts.Processor,
		logger:    logger,
		startTime: start,
		done:      make(chan struct{}),
	}
}

// Start opens the connection and launches the consumer loop.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.ws.Start(ctx); err != nil {
		return err
	}
	go w.run()
	return nil
}

// Stop tears down the connection and returns immediately. A pipeline
// already executing runs to its terminal state; the consumer goroutine
// exits in the background once the batch channel drains.
func (w *Watcher) Stop() {
	w.ws.Close()
}

// Done is closed once the consumer goroutine has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Connected reports the connection state.
func (w *Watcher) Connected() bool {
	return w.ws.Connected()
}

// StartTime returns the watcher start in epoch milliseconds.
func (w *Watcher) StartTime() int64 {
	return w.startTime
}

// DepositsDetected returns how many qualifying deposits were handed to
// the processor.
func (w *Watcher) DepositsDetected() int64 {
	return w.detected.Load()
}

// run is the single consumer. Processing deliberately uses a background
// context: stopping the watcher must not cancel a buy or transfer that
// is already underway.
func (w *Watcher) run() {
	defer close(w.done)

	for batch := range w.ws.Batches() {
		deposits := w.filter.Extract(&batch)
		for _, dep := range deposits {
			key := dep.DedupKey()
			if !w.inFlight.TryAcquire(key) {
				observability.RecordDuplicateSkipped("in_flight")
				continue
			}

			w.detected.Add(1)
			observability.RecordDepositDetected()
			w.logger.Printf("USDC received: %s from %s", dep.Amount, dep.Sender)

			if _, err := w.processor.Process(context.Background(), dep); err != nil {
				w.logger.Printf("deposit %s failed: %v", dep.Hash, err)
			}
			w.inFlight.Release(key)
		}
		observability.SetConnected(w.ws.Connected())
	}
}
