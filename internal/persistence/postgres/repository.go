// Package postgres stores trainer ledgers in a JSONB column guarded by an optimistic version.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/trainerworkload/internal/domain"
	"example.com/trainerworkload/internal/persistence"
)

// Repository provides Postgres-backed persistence for trainer ledgers.
type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, now: time.Now}
}

// LoadByUsername fetches the ledger for username.
func (r *Repository) LoadByUsername(ctx context.Context, username string) (*domain.Ledger, error) {
	const query = `SELECT document, version FROM trainer_workloads WHERE username=$1`

	var (
		body    []byte
		version int64
	)
	if err := r.pool.QueryRow(ctx, query, username).Scan(&body, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLedgerNotFound
		}
		return nil, fmt.Errorf("load trainer workload %q: %w", username, err)
	}

	var doc persistence.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode trainer workload %q: %w", username, err)
	}
	doc.Version = version
	return doc.Ledger(), nil
}

// Save inserts a new ledger (version zero) or updates the stored one when the
// versions still match. On success ledger.Version holds the stored version.
func (r *Repository) Save(ctx context.Context, ledger *domain.Ledger) error {
	doc := persistence.ToDocument(ledger)
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode trainer workload %q: %w", ledger.Username, err)
	}

	next := ledger.Version + 1
	var stmt string
	args := []interface{}{ledger.Username, ledger.FirstName, ledger.LastName, ledger.IsActive, body, next, r.now().UTC()}
	if ledger.Version == 0 {
		stmt = `INSERT INTO trainer_workloads (username, first_name, last_name, is_active, document, version, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (username) DO NOTHING`
	} else {
		stmt = `UPDATE trainer_workloads
           SET first_name=$2, last_name=$3, is_active=$4, document=$5, version=$6, updated_at=$7
         WHERE username=$1 AND version=$8`
		args = append(args, ledger.Version)
	}

	tag, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("save trainer workload %q: %w", ledger.Username, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	ledger.Version = next
	return nil
}
