// Package storage defines the transaction ledger contracts. The ledger
// is append-then-mutate: records are inserted pending, updated to a
// terminal status, never deleted.
package storage

import (
	"context"

	"autoswap/internal/domain"
)

// TransactionStore provides access to the transaction ledger.
type TransactionStore interface {
	// Insert adds a new transaction. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, tx *domain.Transaction) error

	// Update replaces the stored record by id. Returns ErrNotFound if absent.
	Update(ctx context.Context, tx *domain.Transaction) error

	// GetByID retrieves a transaction. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)

	// List retrieves transactions most-recent-first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]*domain.Transaction, error)

	// CountByStatus returns how many transactions hold the status.
	CountByStatus(ctx context.Context, status string) (int, error)
}

// AuditStore archives transactions that reached a terminal status.
// Append-only; archiving the same id twice is the caller's bug but
// must not fail the pipeline.
type AuditStore interface {
	Archive(ctx context.Context, tx *domain.Transaction) error

	// CountByStatus returns how many archived transactions hold the status.
	CountByStatus(ctx context.Context, status string) (uint64, error)
}
