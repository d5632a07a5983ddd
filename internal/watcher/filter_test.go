package watcher

import (
	"testing"

	"autoswap/internal/hyperliquid"
)

const monitored = "0xAbCd000000000000000000000000000000000001"

func spotTransfer(sender, dest, amount string, timeMs, nonce int64, hash string) hyperliquid.LedgerUpdate {
	return hyperliquid.LedgerUpdate{
		Time: timeMs,
		Hash: hash,
		Delta: hyperliquid.LedgerDelta{
			Type:        hyperliquid.DeltaSpotTransfer,
			Token:       "USDC",
			Amount:      amount,
			UsdcValue:   amount,
			User:        sender,
			Destination: dest,
			Fee:         "0.1",
			Nonce:       nonce,
		},
	}
}

// liveBatch builds a batch on a generation the filter has already seen.
func liveBatch(updates ...hyperliquid.LedgerUpdate) *hyperliquid.LedgerBatch {
	return &hyperliquid.LedgerBatch{Raw: updates, Gen: 1}
}

// prime discards the first batch of generation 1 so subsequent batches
// are treated as live.
func prime(f *Filter) {
	f.Extract(&hyperliquid.LedgerBatch{Gen: 1})
}

func TestFilter_SkipsFirstBatchPerGeneration(t *testing.T) {
	f := NewFilter(monitored, 1000, nil)
	dep := spotTransfer("0xsender", monitored, "100", 2000, 1, "0xh1")

	// First batch of generation 1 is historical, even with live data.
	if got := f.Extract(&hyperliquid.LedgerBatch{Raw: []hyperliquid.LedgerUpdate{dep}, Gen: 1}); got != nil {
		t.Fatalf("first batch produced %d deposits, want none", len(got))
	}

	// Second batch of the same generation passes.
	dep2 := spotTransfer("0xsender", monitored, "100", 2000, 2, "0xh2")
	if got := f.Extract(liveBatch(dep2)); len(got) != 1 {
		t.Fatalf("second batch produced %d deposits, want 1", len(got))
	}

	// A reconnect bumps the generation; its first batch is skipped again.
	dep3 := spotTransfer("0xsender", monitored, "100", 2000, 3, "0xh3")
	if got := f.Extract(&hyperliquid.LedgerBatch{Raw: []hyperliquid.LedgerUpdate{dep3}, Gen: 2}); got != nil {
		t.Fatalf("first batch after reconnect produced %d deposits, want none", len(got))
	}
}

func TestFilter_SkipsSnapshots(t *testing.T) {
	f := NewFilter(monitored, 1000, nil)
	prime(f)

	dep := spotTransfer("0xsender", monitored, "100", 2000, 1, "0xh1")
	batch := &hyperliquid.LedgerBatch{IsSnapshot: true, Raw: []hyperliquid.LedgerUpdate{dep}, Gen: 1}
	if got := f.Extract(batch); got != nil {
		t.Fatalf("snapshot batch produced %d deposits, want none", len(got))
	}
}

func TestFilter_TimeGate(t *testing.T) {
	f := NewFilter(monitored, 5000, nil)
	prime(f)

	old := spotTransfer("0xsender", monitored, "100", 4999, 1, "0xh1")
	fresh := spotTransfer("0xsender", monitored, "200", 5000, 2, "0xh2")

	got := f.Extract(liveBatch(old, fresh))
	if len(got) != 1 {
		t.Fatalf("got %d deposits, want 1", len(got))
	}
	if got[0].Amount != "200" {
		t.Errorf("wrong deposit passed the gate: %+v", got[0])
	}
}

func TestFilter_MatchesTokenAndDestination(t *testing.T) {
	f := NewFilter(monitored, 1000, nil)
	prime(f)

	wrongToken := spotTransfer("0xsender", monitored, "100", 2000, 1, "0xh1")
	wrongToken.Delta.Token = "HYPE"

	wrongDest := spotTransfer("0xsender", "0xother", "100", 2000, 2, "0xh2")

	notTransfer := spotTransfer("0xsender", monitored, "100", 2000, 3, "0xh3")
	notTransfer.Delta.Type = "deposit"

	// Destination match is case-insensitive.
	mixedCase := spotTransfer("0xsender", "0xabcd000000000000000000000000000000000001", "300", 2000, 4, "0xh4")

	got := f.Extract(liveBatch(wrongToken, wrongDest, notTransfer, mixedCase))
	if len(got) != 1 {
		t.Fatalf("got %d deposits, want 1", len(got))
	}
	if got[0].Amount != "300" || got[0].Sender != "0xsender" {
		t.Errorf("unexpected deposit: %+v", got[0])
	}
}

func TestFilter_NonceDedup(t *testing.T) {
	f := NewFilter(monitored, 1000, nil)
	prime(f)

	dep := spotTransfer("0xsender", monitored, "100", 2000, 77, "0xh1")
	if got := f.Extract(liveBatch(dep)); len(got) != 1 {
		t.Fatalf("first delivery produced %d deposits, want 1", len(got))
	}

	// Same nonce redelivered (different hash) is a duplicate.
	replay := spotTransfer("0xsender", monitored, "100", 2100, 77, "0xh2")
	if got := f.Extract(liveBatch(replay)); got != nil {
		t.Fatalf("replayed nonce produced %d deposits, want none", len(got))
	}

	// Nonce-less events are never deduplicated here.
	a := spotTransfer("0xsender", monitored, "50", 2200, 0, "0xh3")
	b := spotTransfer("0xsender", monitored, "50", 2200, 0, "0xh4")
	if got := f.Extract(liveBatch(a, b)); len(got) != 2 {
		t.Fatalf("nonce-less events produced %d deposits, want 2", len(got))
	}
}

func TestFilter_LegacyFieldName(t *testing.T) {
	f := NewFilter(monitored, 1000, nil)
	prime(f)

	dep := spotTransfer("0xsender", monitored, "100", 2000, 1, "0xh1")
	batch := &hyperliquid.LedgerBatch{RawLegacy: []hyperliquid.LedgerUpdate{dep}, Gen: 1}
	if got := f.Extract(batch); len(got) != 1 {
		t.Fatalf("legacy-field batch produced %d deposits, want 1", len(got))
	}
}

func TestFilter_DepositFieldsCopied(t *testing.T) {
	f := NewFilter(monitored, 1000, nil)
	prime(f)

	dep := spotTransfer("0xSenderA", monitored, "123.45", 2000, 9, "0xhash9")
	got := f.Extract(liveBatch(dep))
	if len(got) != 1 {
		t.Fatalf("got %d deposits, want 1", len(got))
	}

	d := got[0]
	if d.Sender != "0xSenderA" || d.Amount != "123.45" || d.UsdcValue != "123.45" ||
		d.Fee != "0.1" || d.Time != 2000 || d.Hash != "0xhash9" || d.Nonce != 9 {
		t.Errorf("deposit fields not copied: %+v", d)
	}
}
