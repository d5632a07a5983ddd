package clickhouse

import (
	"context"
	"fmt"

	"autoswap/internal/domain"
	"autoswap/internal/storage"
)

// AuditStore implements storage.AuditStore using ClickHouse.
// Terminal transactions are archived append-only for offline analysis.
type AuditStore struct {
	conn *Conn
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(conn *Conn) *AuditStore {
	return &AuditStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AuditStore = (*AuditStore)(nil)

// Archive appends a terminal transaction to the audit table.
// ReplacingMergeTree keyed by id makes re-archiving the same transaction safe.
func (s *AuditStore) Archive(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO transaction_audit (
			id, created_at, from_address, to_address,
			input_amount, output_amount, coin,
			event_hash, status, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		tx.ID, tx.CreatedAt, tx.From, tx.To,
		tx.InputAmount, tx.OutputAmount, tx.Coin,
		tx.EventHash, tx.Status, tx.Error,
	)
	if err != nil {
		return fmt.Errorf("archive transaction: %w", err)
	}
	return nil
}

// CountByStatus returns the number of archived transactions with the given status.
func (s *AuditStore) CountByStatus(ctx context.Context, status string) (uint64, error) {
	var count uint64
	query := `SELECT count() FROM transaction_audit FINAL WHERE status = ?`
	if err := s.conn.QueryRow(ctx, query, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("count archived transactions: %w", err)
	}
	return count, nil
}
