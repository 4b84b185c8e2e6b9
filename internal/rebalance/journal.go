package rebalance

import (
	"context"
	"time"

	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/internal/execution"
	"github.com/wonny/aegis-sri/internal/portfolio"
)

// Journal records runs, their theme targets and submitted orders
type Journal interface {
	StartRun(ctx context.Context, run *execution.RunRecord) error
	SaveThemes(ctx context.Context, runID string, themes []contracts.Theme) error
	SaveOrder(ctx context.Context, runID string, order contracts.SubmittedOrder) error
	FinishRun(ctx context.Context, runID string, runErr error) error
}

// PostgresJournal stores the journal through the execution and portfolio repositories
type PostgresJournal struct {
	orders  *execution.Repository
	targets *portfolio.Repository
}

// NewPostgresJournal creates a journal backed by PostgreSQL
func NewPostgresJournal(orders *execution.Repository, targets *portfolio.Repository) *PostgresJournal {
	return &PostgresJournal{orders: orders, targets: targets}
}

func (j *PostgresJournal) StartRun(ctx context.Context, run *execution.RunRecord) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	return j.orders.StartRun(ctx, run)
}

func (j *PostgresJournal) SaveThemes(ctx context.Context, runID string, themes []contracts.Theme) error {
	return j.targets.SaveThemes(ctx, runID, themes)
}

func (j *PostgresJournal) SaveOrder(ctx context.Context, runID string, order contracts.SubmittedOrder) error {
	return j.orders.SaveOrder(ctx, runID, order)
}

func (j *PostgresJournal) FinishRun(ctx context.Context, runID string, runErr error) error {
	return j.orders.FinishRun(ctx, runID, runErr)
}

// GetRun reads back a journaled run
func (j *PostgresJournal) GetRun(ctx context.Context, runID string) (*execution.RunRecord, error) {
	return j.orders.GetRun(ctx, runID)
}

// GetOrdersByRun reads back the orders a run submitted
func (j *PostgresJournal) GetOrdersByRun(ctx context.Context, runID string) ([]contracts.SubmittedOrder, error) {
	return j.orders.GetOrdersByRun(ctx, runID)
}

// GetThemes reads back the theme targets a run computed
func (j *PostgresJournal) GetThemes(ctx context.Context, runID string) ([]contracts.Theme, error) {
	return j.targets.GetThemes(ctx, runID)
}
