// Package memory provides an in-process ledger repository for local runs and tests.
package memory

import (
	"context"
	"sync"

	"example.com/trainerworkload/internal/domain"
	"example.com/trainerworkload/internal/persistence"
)

// Repository stores ledgers as documents in a map guarded by a mutex.
type Repository struct {
	mu      sync.RWMutex
	ledgers map[string]persistence.Document
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{ledgers: make(map[string]persistence.Document)}
}

// LoadByUsername returns a copy of the stored ledger.
func (r *Repository) LoadByUsername(_ context.Context, username string) (*domain.Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.ledgers[username]
	if !ok {
		return nil, domain.ErrLedgerNotFound
	}
	return doc.Ledger(), nil
}

// Save stores the ledger when its version matches the stored one and bumps the version.
func (r *Repository) Save(_ context.Context, ledger *domain.Ledger) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stored int64
	if existing, ok := r.ledgers[ledger.Username]; ok {
		stored = existing.Version
	}
	if stored != ledger.Version {
		return domain.ErrVersionConflict
	}

	doc := persistence.ToDocument(ledger)
	doc.Version = stored + 1
	r.ledgers[ledger.Username] = doc
	ledger.Version = doc.Version
	return nil
}
