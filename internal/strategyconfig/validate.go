package strategyconfig

import (
	"fmt"

	"github.com/wonny/aegis-sri/internal/portfolio"
	"github.com/wonny/aegis-sri/internal/scheduler"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.PlanID == "" {
		return ValidationError{Field: "meta.plan_id", Message: "required"}
	}

	// === Themes ===
	catalog := cfg.Catalog()
	if err := catalog.Validate(); err != nil {
		return ValidationError{Field: "themes", Message: err.Error()}
	}

	// === Rebalance ===
	if len(cfg.Rebalance.Allocations) == 0 {
		return ValidationError{Field: "rebalance.allocations", Message: "at least one theme required"}
	}

	seen := make(map[string]bool, len(cfg.Rebalance.Allocations))
	for i, a := range cfg.Rebalance.Allocations {
		field := fmt.Sprintf("rebalance.allocations[%d]", i)
		if seen[a.Theme] {
			return ValidationError{Field: field, Message: fmt.Sprintf("duplicate theme %q", a.Theme)}
		}
		seen[a.Theme] = true
	}

	if err := portfolio.ValidateAllocation(catalog, cfg.Allocation()); err != nil {
		return ValidationError{Field: "rebalance.allocations", Message: err.Error(), Err: err}
	}

	amount, err := cfg.Amount()
	if err != nil {
		return ValidationError{Field: "rebalance.amount", Message: "must be a decimal number", Err: err}
	}
	if amount != nil && !amount.IsPositive() {
		return ValidationError{Field: "rebalance.amount", Message: "must be > 0"}
	}

	// === Schedule ===
	if cfg.Schedule.Cron != "" {
		if _, err := scheduler.ParseSpec(cfg.Schedule.Cron); err != nil {
			return ValidationError{Field: "schedule.cron", Message: err.Error(), Err: err}
		}
	}

	return nil
}
