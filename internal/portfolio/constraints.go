package portfolio

import (
	"fmt"

	"github.com/wonny/aegis-sri/internal/contracts"
)

// MaxTotalPercent is the ceiling for the sum of requested allocations
const MaxTotalPercent = 100

// Allocation maps theme key -> requested percent of the investable amount.
// Themes absent from the map are inactive for the run.
type Allocation map[string]int

// Total returns the sum of requested percentages
func (a Allocation) Total() int {
	total := 0
	for _, pct := range a {
		total += pct
	}
	return total
}

// ValidateAllocation checks an allocation against the catalog
// ⭐ 실패 시 주문 계획 전에 중단 (fatal precondition)
func ValidateAllocation(catalog Catalog, alloc Allocation) error {
	if len(alloc) == 0 {
		return fmt.Errorf("%w: no themes requested", contracts.ErrInvalidInput)
	}

	for key, pct := range alloc {
		if _, ok := catalog.Lookup(key); !ok {
			return fmt.Errorf("%w: unknown theme %q", contracts.ErrInvalidInput, key)
		}
		if pct < 0 || pct > MaxTotalPercent {
			return fmt.Errorf("%w: allocation for %s must be in [0,100], got %d", contracts.ErrInvalidInput, key, pct)
		}
	}

	if total := alloc.Total(); total > MaxTotalPercent {
		return fmt.Errorf("%w: total %d%%", contracts.ErrAllocationExceeded, total)
	}

	return nil
}
