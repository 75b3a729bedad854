package simulation

import "errors"

// AllocationSumTolerance is the accepted deviation of the weight sum from 1.0.
const AllocationSumTolerance = 0.01

// Configuration errors. Surfaced before the loop starts, never retried.
var (
	// ErrAllocationSum is returned when target weights do not sum to ~1.0
	// or an individual weight is out of range.
	ErrAllocationSum = errors.New("allocation weights must sum to 1.0")

	// ErrNegativeContribution is returned for a negative contribution amount.
	// Zero is valid: it degrades to a buy-and-hold simulation.
	ErrNegativeContribution = errors.New("contribution amount cannot be negative")

	// ErrNoCheckpoints is returned when the checkpoint sequence is empty.
	ErrNoCheckpoints = errors.New("checkpoint sequence is empty")

	// ErrNoPriceData is returned when no asset in the allocation has any
	// price data across the entire range. A run with zero usable data must
	// fail loudly rather than return a degenerate all-cash result.
	ErrNoPriceData = errors.New("no price data available for any asset in the allocation")
)
