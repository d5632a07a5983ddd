// Package memory provides the default in-memory transaction ledger.
package memory

import (
	"context"
	"sync"

	"autoswap/internal/domain"
	"autoswap/internal/storage"
)

// TransactionStore is an in-memory implementation of
// storage.TransactionStore. Insertion order is preserved so List can
// return most-recent-first without timestamps ties mattering.
type TransactionStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.Transaction
	order []string
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string]*domain.Transaction),
	}
}

// Insert adds a new transaction. Returns ErrDuplicateKey if the id exists.
func (s *TransactionStore) Insert(_ context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[tx.ID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *tx
	s.data[tx.ID] = &cp
	s.order = append(s.order, tx.ID)
	return nil
}

// Update replaces the stored record by id. Returns ErrNotFound if absent.
func (s *TransactionStore) Update(_ context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[tx.ID]; !exists {
		return storage.ErrNotFound
	}

	cp := *tx
	s.data[tx.ID] = &cp
	return nil
}

// GetByID retrieves a transaction. Returns ErrNotFound if absent.
func (s *TransactionStore) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

// List retrieves transactions most-recent-first. limit <= 0 returns all.
func (s *TransactionStore) List(_ context.Context, limit int) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.order)
	if limit <= 0 || limit > n {
		limit = n
	}

	result := make([]*domain.Transaction, 0, limit)
	for i := n - 1; i >= 0 && len(result) < limit; i-- {
		cp := *s.data[s.order[i]]
		result = append(result, &cp)
	}
	return result, nil
}

// CountByStatus returns how many transactions hold the status.
func (s *TransactionStore) CountByStatus(_ context.Context, status string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, tx := range s.data {
		if tx.Status == status {
			count++
		}
	}
	return count, nil
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
