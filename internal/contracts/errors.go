package contracts

import "errors"

var (
	// ErrInvalidInput marks degenerate inputs (amount <= 0, price <= 0, percent out of range)
	ErrInvalidInput = errors.New("invalid input")

	// ErrAllocationExceeded marks requested percentages summing above 100
	ErrAllocationExceeded = errors.New("sum of allocations exceeds 100%")
)
