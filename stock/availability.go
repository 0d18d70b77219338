package stock

import "github.com/shopspring/decimal"

// Availability is the outcome of checking a demand against the ledger.
// OK is true exactly when Shortages is empty.
type Availability struct {
	OK        bool
	Shortages []Shortage
}

// Check compares every demanded ingredient with what the reader has on hand.
// It is the only place the satisfiability predicate is evaluated;
// IsSatisfiable and Shortages are derived from it so they can never
// disagree. Zero (or negative) demand is trivially satisfied and skipped.
// An ingredient missing from the ledger counts as zero on hand, which also
// means a satisfiable demand only names ingredients the ledger holds.
func Check(demand Demand, reader LedgerReader) Availability {
	var shortages []Shortage
	for _, key := range demand.keys {
		required := demand.qty[key]
		if !required.IsPositive() {
			continue
		}
		available := decimal.Zero
		if reader.Contains(string(key)) {
			available = reader.QuantityOf(string(key))
		}
		if available.LessThan(required) {
			shortages = append(shortages, Shortage{
				Ingredient: key,
				Required:   required,
				Available:  available,
			})
		}
	}
	return Availability{OK: len(shortages) == 0, Shortages: shortages}
}

// IsSatisfiable reports whether every ingredient in demand is covered.
func IsSatisfiable(demand Demand, reader LedgerReader) bool {
	return Check(demand, reader).OK
}

// Shortages lists every ingredient in demand that is not covered, in demand
// order. An empty result means the demand is satisfiable.
func Shortages(demand Demand, reader LedgerReader) []Shortage {
	return Check(demand, reader).Shortages
}
