package watcher

import (
	"strings"

	"autoswap/internal/domain"
	"autoswap/internal/hyperliquid"
	"autoswap/internal/observability"
)

// usdcToken is the only token that triggers processing.
const usdcToken = "USDC"

// Filter extracts qualifying deposits from ledger batches. It owns the
// per-connection snapshot skip, the start-time gate and nonce dedup.
// Not safe for concurrent use; the watcher is its single caller.
type Filter struct {
	monitored string // lowercased monitored address
	startTime int64  // epoch ms; older events are replays
	nonces    *NonceCache

	// seenGen is the highest connection generation whose first batch
	// has been discarded. The first batch of every new generation is
	// historical regardless of its snapshot flag.
	seenGen int64
}

// NewFilter creates a filter for the monitored address. startTime is
// the watcher start in epoch milliseconds.
func NewFilter(monitoredAddress string, startTime int64, nonces *NonceCache) *Filter {
	if nonces == nil {
		nonces = NewNonceCache(DefaultNonceCapacity)
	}
	return &Filter{
		monitored: strings.ToLower(monitoredAddress),
		startTime: startTime,
		nonces:    nonces,
	}
}

// Extract returns the deposits in the batch that survive all gates:
// snapshot and first-per-connection skip, start-time gate, USDC spot
// transfers addressed to the monitored wallet, nonce dedup.
func (f *Filter) Extract(batch *hyperliquid.LedgerBatch) []domain.DepositEvent {
	if batch.Gen > f.seenGen {
		f.seenGen = batch.Gen
		observability.RecordBatchSkipped("first_after_connect")
		return nil
	}
	if batch.IsSnapshot {
		observability.RecordBatchSkipped("snapshot")
		return nil
	}

	var deposits []domain.DepositEvent
	for _, update := range batch.Updates() {
		if update.Time < f.startTime {
			continue
		}

		delta := update.Delta
		if delta.Type != hyperliquid.DeltaSpotTransfer {
			continue
		}
		if delta.Token != usdcToken {
			continue
		}
		if strings.ToLower(delta.Destination) != f.monitored {
			continue
		}

		if delta.Nonce != 0 {
			if f.nonces.Seen(delta.Nonce) {
				observability.RecordDuplicateSkipped("nonce")
				continue
			}
			f.nonces.Mark(delta.Nonce)
		}

		deposits = append(deposits, domain.DepositEvent{
			Sender:    delta.User,
			Amount:    delta.Amount,
			UsdcValue: delta.UsdcValue,
			Fee:       delta.Fee,
			Time:      update.Time,
			Hash:      update.Hash,
			Nonce:     delta.Nonce,
		})
	}
	return deposits
}
