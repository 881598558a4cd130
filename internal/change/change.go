// Package change computes cash change breakdowns over the fixed denomination
// set the business operates with. The greedy descent used here is known to be
// optimal for this particular set; it is not a general making-change solver
// and must not be reused with arbitrary denominations.
package change

import (
	"errors"

	"github.com/fondapos/core/internal/domain"
)

// Denominations is the accepted cash denomination set, descending.
var Denominations = []int64{20000, 10000, 2000, 1000, 500, 200, 100, 50, 20, 10}

// ErrUnrepresentable is returned when no combination of denominations sums
// exactly to the requested amount. Callers must block sale completion rather
// than hand out approximate change.
var ErrUnrepresentable = errors.New("change cannot be represented exactly")

// Calculate returns the greedy breakdown of amount into denominations.
// A zero or negative amount means no change is due and yields an empty
// breakdown.
func Calculate(amount int64) ([]domain.ChangePart, error) {
	if amount <= 0 {
		return nil, nil
	}
	remaining := amount
	var parts []domain.ChangePart
	for _, denom := range Denominations {
		if remaining < denom {
			continue
		}
		n := remaining / denom
		parts = append(parts, domain.ChangePart{Value: denom, Count: n})
		remaining -= n * denom
	}
	if remaining != 0 {
		return nil, ErrUnrepresentable
	}
	return parts, nil
}

// Sum returns the total value of a breakdown.
func Sum(parts []domain.ChangePart) int64 {
	var total int64
	for _, p := range parts {
		total += p.Value * p.Count
	}
	return total
}

// SumBills totals a list of tendered bill values.
func SumBills(bills []int64) int64 {
	var total int64
	for _, b := range bills {
		total += b
	}
	return total
}

// IsDenomination reports whether v is an accepted bill or coin value.
func IsDenomination(v int64) bool {
	for _, denom := range Denominations {
		if v == denom {
			return true
		}
	}
	return false
}
