package domain

// Transaction is the audit record for one deposit-to-forward operation.
// Created the moment a qualifying deposit is accepted, mutated to a
// terminal status by the forwarder, never deleted.
type Transaction struct {
	ID           string // "auto_<uuid>" or "manual_<uuid>"
	CreatedAt    int64  // Unix timestamp in milliseconds
	From         string // sender address (forward destination)
	To           string // monitored address
	InputAmount  string // USDC amount received, decimal string
	OutputAmount string // purchased asset amount, decimal string, "0" until bought
	Coin         string // purchased asset symbol
	EventHash    string // ledger event hash, "manual_process" for manual runs
	Status       string // StatusPending | StatusCompleted | StatusFailed
	Error        string // failure reason, empty unless Status == StatusFailed
}

// Transaction status constants
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
