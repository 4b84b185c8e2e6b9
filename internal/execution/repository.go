package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-sri/internal/contracts"
)

// Schema creates the journal tables
const Schema = `
CREATE SCHEMA IF NOT EXISTS rebalance;

CREATE TABLE IF NOT EXISTS rebalance.runs (
	run_id           TEXT PRIMARY KEY,
	amount           NUMERIC NOT NULL,
	allocation       JSONB NOT NULL,
	dry_run          BOOLEAN NOT NULL,
	status           TEXT NOT NULL,
	error            TEXT,
	started_at       TIMESTAMPTZ NOT NULL,
	finished_at      TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS rebalance.theme_targets (
	run_id           TEXT NOT NULL REFERENCES rebalance.runs(run_id),
	position         INT NOT NULL,
	theme_key        TEXT NOT NULL,
	theme_name       TEXT NOT NULL,
	symbol           TEXT NOT NULL,
	target_fraction  NUMERIC NOT NULL,
	reference_price  NUMERIC NOT NULL,
	target_shares    BIGINT NOT NULL,
	target_value     NUMERIC NOT NULL,
	actual_fraction  NUMERIC NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS rebalance.orders (
	order_id         TEXT PRIMARY KEY,
	client_order_id  TEXT NOT NULL,
	run_id           TEXT NOT NULL REFERENCES rebalance.runs(run_id),
	purpose          TEXT NOT NULL,
	symbol           TEXT NOT NULL,
	side             TEXT NOT NULL,
	qty              BIGINT NOT NULL,
	status           TEXT NOT NULL,
	submitted_at     TIMESTAMPTZ NOT NULL
);
`

// Run statuses
const (
	RunStatusStarted   = "started"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunRecord is one journaled rebalance run
type RunRecord struct {
	RunID      string
	Amount     string
	Allocation map[string]int
	DryRun     bool
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Repository journals rebalance runs and the orders they submitted
// ⭐ SSOT: 주문 기록 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new journal repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the journal tables when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// StartRun records a run before any order is submitted
func (r *Repository) StartRun(ctx context.Context, run *RunRecord) error {
	query := `
		INSERT INTO rebalance.runs (run_id, amount, allocation, dry_run, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		run.RunID, run.Amount, run.Allocation, run.DryRun, RunStatusStarted, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}

	return nil
}

// FinishRun marks a run completed or failed
func (r *Repository) FinishRun(ctx context.Context, runID string, runErr error) error {
	status := RunStatusCompleted
	var msg *string
	if runErr != nil {
		status = RunStatusFailed
		s := runErr.Error()
		msg = &s
	}

	query := `
		UPDATE rebalance.runs
		SET status = $1, error = $2, finished_at = $3
		WHERE run_id = $4
	`

	if _, err := r.pool.Exec(ctx, query, status, msg, time.Now(), runID); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	return nil
}

// SaveOrder journals one acknowledged order
func (r *Repository) SaveOrder(ctx context.Context, runID string, order contracts.SubmittedOrder) error {
	query := `
		INSERT INTO rebalance.orders (
			order_id, client_order_id, run_id, purpose, symbol, side, qty, status, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (order_id) DO UPDATE SET
			status = EXCLUDED.status
	`

	ack := order.Ack
	_, err := r.pool.Exec(ctx, query,
		ack.ID, ack.ClientOrderID, runID, order.Purpose, ack.Symbol,
		ack.Side, ack.Qty, ack.Status, ack.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID
func (r *Repository) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	query := `
		SELECT run_id, amount::text, allocation, dry_run, status, COALESCE(error, ''), started_at, finished_at
		FROM rebalance.runs
		WHERE run_id = $1
	`

	var run RunRecord
	err := r.pool.QueryRow(ctx, query, runID).Scan(
		&run.RunID, &run.Amount, &run.Allocation, &run.DryRun,
		&run.Status, &run.Error, &run.StartedAt, &run.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return &run, nil
}

// GetOrdersByRun retrieves the orders of a run in submission order
func (r *Repository) GetOrdersByRun(ctx context.Context, runID string) ([]contracts.SubmittedOrder, error) {
	query := `
		SELECT order_id, client_order_id, purpose, symbol, side, qty, status, submitted_at
		FROM rebalance.orders
		WHERE run_id = $1
		ORDER BY submitted_at ASC
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]contracts.SubmittedOrder, 0)
	for rows.Next() {
		var o contracts.SubmittedOrder
		var purpose, side string
		err := rows.Scan(
			&o.Ack.ID, &o.Ack.ClientOrderID, &purpose, &o.Ack.Symbol,
			&side, &o.Ack.Qty, &o.Ack.Status, &o.Ack.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Purpose = contracts.Purpose(purpose)
		o.Ack.Side = contracts.OrderSide(side)
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return orders, nil
}
