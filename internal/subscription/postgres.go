package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const (
	createTableQuery = `CREATE TABLE IF NOT EXISTS user_subscriptions (
	whop_purchase_id TEXT PRIMARY KEY,
	whop_user_id TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

	upsertQuery = `INSERT INTO user_subscriptions (whop_purchase_id, whop_user_id, email, status, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (whop_purchase_id) DO UPDATE SET
	whop_user_id = EXCLUDED.whop_user_id,
	email = EXCLUDED.email,
	status = EXCLUDED.status,
	updated_at = EXCLUDED.updated_at`

	updateStatusQuery = `UPDATE user_subscriptions SET status = $1, updated_at = $2 WHERE whop_purchase_id = $3`

	selectQuery = `SELECT whop_purchase_id, whop_user_id, email, status, updated_at FROM user_subscriptions WHERE whop_purchase_id = $1`
)

// PostgresStore keeps subscriptions in the user_subscriptions table.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgresStore connects to the database at dsn.
func OpenPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the subscriptions table when it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableQuery); err != nil {
		return fmt.Errorf("create user_subscriptions: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Upsert(ctx context.Context, sub Subscription) error {
	_, err := s.db.ExecContext(ctx, upsertQuery,
		sub.PurchaseID, sub.UserID, sub.Email, string(sub.Status), sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert subscription %s: %w", sub.PurchaseID, err)
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, purchaseID string, status Status, at time.Time) error {
	res, err := s.db.ExecContext(ctx, updateStatusQuery, string(status), at, purchaseID)
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", purchaseID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", purchaseID, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, purchaseID string) (Subscription, error) {
	var (
		sub    Subscription
		status string
	)
	err := s.db.QueryRowContext(ctx, selectQuery, purchaseID).
		Scan(&sub.PurchaseID, &sub.UserID, &sub.Email, &status, &sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscription{}, ErrNotFound
	}
	if err != nil {
		return Subscription{}, fmt.Errorf("get subscription %s: %w", purchaseID, err)
	}
	sub.Status = Status(status)
	return sub, nil
}
