package deadletter

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultListLimit bounds List when no limit is given.
const DefaultListLimit = 50

// PostgresRecorder persists dead-lettered messages into workload_dead_letters.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder initialises a recorder backed by the provided connection pool.
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

// Record stores entry. Redelivered records with the same topic, partition and
// offset are ignored.
func (r *PostgresRecorder) Record(ctx context.Context, entry Entry) error {
	const stmt = `INSERT INTO workload_dead_letters (transaction_id, failure_class, payload, topic, partition, message_offset, created_at)
                   VALUES ($1,$2,$3,$4,$5,$6, COALESCE($7, NOW()))
                   ON CONFLICT (topic, partition, message_offset) DO NOTHING`

	var createdAt interface{}
	if !entry.CreatedAt.IsZero() {
		createdAt = entry.CreatedAt
	}
	if _, err := r.pool.Exec(ctx, stmt,
		nullable(entry.TransactionID),
		entry.Class,
		entry.Payload,
		entry.Topic,
		entry.Partition,
		entry.Offset,
		createdAt,
	); err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	return nil
}

// Count returns the number of recorded entries.
func (r *PostgresRecorder) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM workload_dead_letters`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count dead letters: %w", err)
	}
	return count, nil
}

// List returns the most recent entries, optionally restricted to one failure class.
func (r *PostgresRecorder) List(ctx context.Context, class string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	const query = `SELECT dead_letter_id, COALESCE(transaction_id, ''), failure_class, payload, topic, partition, message_offset, created_at
                    FROM workload_dead_letters
                   WHERE ($1 = '' OR failure_class = $1)
                   ORDER BY created_at DESC, dead_letter_id DESC
                   LIMIT $2`

	rows, err := r.pool.Query(ctx, query, class, limit)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	return entries, nil
}

func scanEntry(rows pgx.Rows) (Entry, error) {
	var entry Entry
	if err := rows.Scan(&entry.ID, &entry.TransactionID, &entry.Class, &entry.Payload, &entry.Topic, &entry.Partition, &entry.Offset, &entry.CreatedAt); err != nil {
		return Entry{}, fmt.Errorf("scan dead letter: %w", err)
	}
	return entry, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
