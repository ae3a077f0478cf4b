// Package deliverylog records processed deliveries in PostgreSQL for audit
// and troubleshooting. The store is optional; a nil pool disables it.
package deliverylog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Delivery is one processed webhook delivery.
type Delivery struct {
	RequestID  string
	Mode       string
	AppID      string
	StatusCode int
	DurationMs int64
}

// Store writes delivery records. Nil-safe: all methods are no-ops without a
// database pool.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Enabled reports whether records will actually be written.
func (s *Store) Enabled() bool {
	return s != nil && s.db != nil
}

// Record inserts one delivery row.
func (s *Store) Record(ctx context.Context, d Delivery) error {
	if !s.Enabled() {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO deliveries (request_id, mode, app_id, status_code, duration_ms)
		VALUES ($1, $2, $3, $4, $5)
	`, d.RequestID, d.Mode, d.AppID, d.StatusCode, d.DurationMs)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}
