package strategyconfig

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-sri/internal/portfolio"
)

// Config는 리밸런스 계획 파일 전체
type Config struct {
	Meta      Meta                  `yaml:"meta" json:"meta"`
	Rebalance Rebalance             `yaml:"rebalance" json:"rebalance"`
	Themes    []portfolio.ThemeSpec `yaml:"themes,omitempty" json:"themes,omitempty"` // empty = default catalog
	Schedule  Schedule              `yaml:"schedule" json:"schedule"`
}

// Meta 메타 정보
type Meta struct {
	PlanID  string `yaml:"plan_id" json:"plan_id"`
	Version string `yaml:"version" json:"version"`
}

// Rebalance 배분 요청
type Rebalance struct {
	Amount      string            `yaml:"amount,omitempty" json:"amount,omitempty"` // empty = account equity
	DryRun      bool              `yaml:"dry_run" json:"dry_run"`
	Allocations []ThemeAllocation `yaml:"allocations" json:"allocations"`
}

// ThemeAllocation is one theme's requested percent.
// A list, not a map, so the hash stays reproducible.
type ThemeAllocation struct {
	Theme   string `yaml:"theme" json:"theme"`
	Percent int    `yaml:"percent" json:"percent"`
}

// Schedule 정기 실행
type Schedule struct {
	Cron string `yaml:"cron,omitempty" json:"cron,omitempty"` // 6-field, seconds first
}

// Catalog returns the theme override or the default catalog
func (c *Config) Catalog() portfolio.Catalog {
	if len(c.Themes) == 0 {
		return portfolio.DefaultCatalog()
	}
	return portfolio.Catalog(c.Themes)
}

// Allocation converts the allocation list into a portfolio.Allocation
func (c *Config) Allocation() portfolio.Allocation {
	alloc := make(portfolio.Allocation, len(c.Rebalance.Allocations))
	for _, a := range c.Rebalance.Allocations {
		alloc[a.Theme] = a.Percent
	}
	return alloc
}

// Amount returns the fixed amount to allocate, nil when equity is used
func (c *Config) Amount() (*decimal.Decimal, error) {
	if c.Rebalance.Amount == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(c.Rebalance.Amount)
	if err != nil {
		return nil, err
	}
	return &amount, nil
}
