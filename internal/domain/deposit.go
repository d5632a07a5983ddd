package domain

// DepositEvent is a qualifying USDC spot transfer extracted from the
// ledger stream: token USDC, addressed to the monitored wallet, not a
// replay and not a duplicate.
type DepositEvent struct {
	Sender    string // address that sent the USDC
	Amount    string // USDC amount, decimal string
	UsdcValue string // exchange-reported USD value, decimal string
	Fee       string // transfer fee, decimal string
	Time      int64  // event timestamp in milliseconds
	Hash      string // opaque event id, unique per event
	Nonce     int64  // transfer nonce, 0 when the delta carried none
}

// DedupKey identifies the physical deposit for in-flight tracking.
// The event hash is unique per event; the composite fallback exists
// only for hash-less events.
func (d DepositEvent) DedupKey() string {
	if d.Hash != "" {
		return d.Hash
	}
	return compositeKey(d.Sender, d.Amount, d.Time)
}
