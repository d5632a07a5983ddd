package postgres

import (
	"context"
	"fmt"

	"autoswap/internal/domain"
	"autoswap/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

var _ storage.TransactionStore = (*TransactionStore)(nil)

// Insert adds a new transaction. Returns ErrDuplicateKey if the id exists.
func (s *TransactionStore) Insert(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO transactions (
			id, created_at, from_address, to_address, input_amount, output_amount, coin, event_hash, status, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		tx.ID,
		tx.CreatedAt,
		tx.From,
		tx.To,
		tx.InputAmount,
		tx.OutputAmount,
		tx.Coin,
		tx.EventHash,
		tx.Status,
		tx.Error,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// Update replaces the stored record by id. Returns ErrNotFound if absent.
func (s *TransactionStore) Update(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE transactions
		SET output_amount = $2, status = $3, error = $4
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, tx.ID, tx.OutputAmount, tx.Status, tx.Error)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a transaction. Returns ErrNotFound if absent.
func (s *TransactionStore) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `
		SELECT id, created_at, from_address, to_address, input_amount, output_amount, coin, event_hash, status, error
		FROM transactions
		WHERE id = $1
	`

	row := s.pool.QueryRow(ctx, query, id)

	var tx domain.Transaction
	err := row.Scan(
		&tx.ID,
		&tx.CreatedAt,
		&tx.From,
		&tx.To,
		&tx.InputAmount,
		&tx.OutputAmount,
		&tx.Coin,
		&tx.EventHash,
		&tx.Status,
		&tx.Error,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return &tx, nil
}

// List retrieves transactions most-recent-first. limit <= 0 returns all.
func (s *TransactionStore) List(ctx context.Context, limit int) ([]*domain.Transaction, error) {
	query := `
		SELECT id, created_at, from_address, to_address, input_amount, output_amount, coin, event_hash, status, error
		FROM transactions
		ORDER BY created_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var result []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.CreatedAt,
			&tx.From,
			&tx.To,
			&tx.InputAmount,
			&tx.OutputAmount,
			&tx.Coin,
			&tx.EventHash,
			&tx.Status,
			&tx.Error,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return result, nil
}

// CountByStatus returns how many transactions hold the status.
func (s *TransactionStore) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}
