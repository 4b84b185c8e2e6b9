package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-sri/internal/api"
	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/internal/execution"
	"github.com/wonny/aegis-sri/internal/external/alpaca"
	"github.com/wonny/aegis-sri/internal/portfolio"
	"github.com/wonny/aegis-sri/internal/pricing"
	"github.com/wonny/aegis-sri/internal/rebalance"
	"github.com/wonny/aegis-sri/pkg/config"
	"github.com/wonny/aegis-sri/pkg/database"
	"github.com/wonny/aegis-sri/pkg/httputil"
	"github.com/wonny/aegis-sri/pkg/logger"
	"github.com/wonny/aegis-sri/pkg/redis"
)

// alpacaLocalRPS keeps a single process under the brokerage allowance
// even when Redis is off
const (
	alpacaLocalRPS   = 3
	alpacaLocalBurst = 5
	alpacaTimeout    = 15 * time.Second
)

// app holds the collaborators every command shares
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	broker       contracts.Broker
	prices       contracts.PriceSource
	catalog      portfolio.Catalog
	orchestrator *rebalance.Orchestrator
	journal      *rebalance.PostgresJournal // nil without DATABASE_URL

	redis *redis.Client
	db    *database.DB
}

// newApp loads config and wires the rebalance stack.
// catalog nil means the default theme table.
func newApp(ctx context.Context, catalog portfolio.Catalog) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	if catalog == nil {
		catalog = portfolio.DefaultCatalog()
	}
	a := &app{cfg: cfg, log: log, catalog: catalog}

	// 3. Redis (optional: price cache + shared rate limit)
	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 4. Brokerage
	if err := cfg.RequireAlpaca(); err != nil {
		a.Close()
		return nil, err
	}
	httpClient := httputil.NewWithTimeout(log.WithComponent("http"), alpacaTimeout).WithLocalLimit(alpacaLocalRPS, alpacaLocalBurst)
	if a.redis.Enabled() {
		httpClient = httpClient.WithRateLimiter(redis.NewRateLimiter(a.redis, "sri"), redis.AlpacaRateLimit)
	}
	client := alpaca.NewClient(cfg.Alpaca, httpClient, log.WithComponent("alpaca"))

	a.broker = client
	if paperMode {
		paper, err := newPaperBroker(ctx, client, catalog)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.broker = paper
		log.WithField("cash", paperCash).Warn("Paper broker enabled, no orders reach Alpaca")
	}

	a.prices = pricing.Wrap(a.broker, redis.NewCache(a.redis, "sri"), cfg.Rebalance.PriceCacheTTL, log.WithComponent("pricing"))

	// 5. Allocation core
	constructor := portfolio.NewConstructor(catalog, a.prices, cfg.Rebalance.PriceBuffer, log.WithComponent("constructor"))
	planner := execution.NewPlanner(log.WithComponent("planner"))
	liquidity := execution.NewLiquidityPlanner(a.prices, cfg.Rebalance.PriceBuffer, cfg.Rebalance.FundingMode, log.WithComponent("liquidity"))
	a.orchestrator = rebalance.NewOrchestrator(a.broker, a.broker, constructor, planner, liquidity, log.WithComponent("orchestrator"))

	// 6. Order journal (optional)
	a.db, err = database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrDisabled):
		log.Debug("DATABASE_URL not set, order journal disabled")
	case err != nil:
		a.Close()
		return nil, err
	default:
		runs := execution.NewRepository(a.db.Pool)
		if err := runs.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.journal = rebalance.NewPostgresJournal(runs, portfolio.NewRepository(a.db.Pool))
		a.orchestrator.WithJournal(a.journal)
		log.Info("Order journal enabled")
	}

	return a, nil
}

// Close releases the database pool and the Redis connection
func (a *app) Close() {
	a.db.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}

// healthChecks lists the optional dependencies /health should probe
func (a *app) healthChecks() []api.HealthCheck {
	checks := []api.HealthCheck{{Name: "redis", Check: a.redis.Ping}}
	if a.db != nil {
		checks = append(checks, api.HealthCheck{Name: "database", Check: func(ctx context.Context) error {
			_, err := a.db.HealthCheck(ctx)
			return err
		}})
	}
	return checks
}

// newPaperBroker seeds an in-memory broker with live prices of the
// catalog symbols
func newPaperBroker(ctx context.Context, market contracts.PriceSource, catalog portfolio.Catalog) (*execution.PaperBroker, error) {
	cash, err := decimal.NewFromString(paperCash)
	if err != nil || !cash.IsPositive() {
		return nil, fmt.Errorf("invalid --paper-cash %q: %w", paperCash, contracts.ErrInvalidInput)
	}

	broker := execution.NewPaperBroker(cash)
	for _, spec := range catalog {
		price, err := market.GetLastTradePrice(ctx, spec.Symbol)
		if err != nil {
			return nil, fmt.Errorf("seed paper price for %s: %w", spec.Symbol, err)
		}
		broker.SetPrice(spec.Symbol, price)
	}
	return broker, nil
}
