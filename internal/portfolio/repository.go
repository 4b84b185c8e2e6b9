package portfolio

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-sri/internal/contracts"
)

// Repository persists the theme targets of each run
// ⭐ SSOT: 테마 목표 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new portfolio repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveThemes replaces the stored targets of a run
func (r *Repository) SaveThemes(ctx context.Context, runID string, themes []contracts.Theme) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM rebalance.theme_targets WHERE run_id = $1", runID); err != nil {
		return fmt.Errorf("failed to delete old targets: %w", err)
	}

	query := `
		INSERT INTO rebalance.theme_targets (
			run_id, position, theme_key, theme_name, symbol,
			target_fraction, reference_price, target_shares, target_value, actual_fraction
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for i, t := range themes {
		batch.Queue(query,
			runID, i, t.Key, t.Name, t.Symbol,
			t.TargetFraction.String(), t.ReferencePrice.String(), t.TargetShares,
			t.TargetValue.String(), t.ActualFraction.String(),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range themes {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert theme target: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetThemes loads the stored targets of a run in the order they were saved
func (r *Repository) GetThemes(ctx context.Context, runID string) ([]contracts.Theme, error) {
	query := `
		SELECT theme_key, theme_name, symbol, target_fraction::text, reference_price::text,
		       target_shares, target_value::text, actual_fraction::text
		FROM rebalance.theme_targets
		WHERE run_id = $1
		ORDER BY position ASC
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query theme targets: %w", err)
	}
	defer rows.Close()

	themes := make([]contracts.Theme, 0)
	for rows.Next() {
		var t contracts.Theme
		var fraction, refPrice, value, actual string
		if err := rows.Scan(&t.Key, &t.Name, &t.Symbol, &fraction, &refPrice, &t.TargetShares, &value, &actual); err != nil {
			return nil, fmt.Errorf("failed to scan theme target: %w", err)
		}
		t.TargetFraction = decimal.RequireFromString(fraction)
		t.ReferencePrice = decimal.RequireFromString(refPrice)
		t.TargetValue = decimal.RequireFromString(value)
		t.ActualFraction = decimal.RequireFromString(actual)
		themes = append(themes, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return themes, nil
}
