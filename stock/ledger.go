/*
ledger.go - In-memory ingredient ledger

PURPOSE:
  The IngredientLedger is the single source of truth for on-hand ingredient
  quantities during a session. Everything else (demand maps, shortage
  reports) is derived from it and thrown away after each evaluation.

CRITICAL INVARIANTS:
  1. NORMALIZED: Every name is turned into a Key at the method boundary
  2. NON-NEGATIVE: No committed operation leaves a quantity below zero
  3. EXCLUSIVE WRITES: Only Upsert, Remove and Decrement mutate entries
  4. ATOMIC TRANSACTS: Transact holds the write lock for the whole callback
     and restores the previous state if the callback fails

READ PATHS:
  QuantityOf / Get / All take the read lock per call. Callers that need
  several reads to observe the same state use View or Transact instead.

UNKNOWN INGREDIENTS:
  An ingredient the ledger has never seen has quantity 0. That is not an
  error for reads; only Decrement reports NotFound.

SEE ALSO:
  - reservation.go: Uses Transact for check-and-commit
  - availability.go: Reads through LedgerReader
*/
package stock

import (
	"iter"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER INTERFACES
// =============================================================================

// LedgerReader is a consistent read view of a ledger.
type LedgerReader interface {
	// QuantityOf returns the on-hand quantity, zero for unknown ingredients.
	QuantityOf(name string) decimal.Decimal

	// Contains reports whether the ledger holds an entry for name.
	Contains(name string) bool
}

// LedgerTx is the view handed to Transact callbacks.
type LedgerTx interface {
	LedgerReader

	// Decrement subtracts amount without checking sufficiency.
	Decrement(name string, amount decimal.Decimal) error
}

// Ledger is what the reservation engine needs from an ingredient ledger.
// Implementations must make View and Transact callbacks observe a single,
// unchanging ledger state.
type Ledger interface {
	// View runs fn with shared read access.
	View(fn func(LedgerReader) error) error

	// Transact runs fn with exclusive access. If fn returns an error, every
	// change fn made is undone before Transact returns.
	Transact(fn func(LedgerTx) error) error
}

// =============================================================================
// INGREDIENT LEDGER - Default implementation
// =============================================================================

// IngredientLedger keeps ingredient entries in insertion order.
type IngredientLedger struct {
	mu      sync.RWMutex
	entries map[Key]Ingredient
	order   []Key
}

var _ Ledger = (*IngredientLedger)(nil)

// NewIngredientLedger returns an empty ledger.
func NewIngredientLedger() *IngredientLedger {
	return &IngredientLedger{entries: make(map[Key]Ingredient)}
}

// ParseQuantity converts user input into a quantity. It is the only place
// where non-numeric input can enter the engine.
func ParseQuantity(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, invalid("quantity", s, "not a number")
	}
	return d, nil
}

// Upsert tops up an existing ingredient or creates a new one. The unit of an
// existing entry is kept. A negative quantity is accepted as a correction as
// long as the entry does not drop below zero.
func (l *IngredientLedger) Upsert(name, unit string, quantity decimal.Decimal) (Ingredient, error) {
	key := NewKey(name)
	if key.IsZero() {
		return Ingredient{}, invalid("ingredient name", name, "must not be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.entries[key]; ok {
		next := existing.Quantity.Add(quantity)
		if next.IsNegative() {
			return Ingredient{}, invalid("quantity", quantity.String(), "would leave "+key.String()+" negative")
		}
		existing.Quantity = next
		l.entries[key] = existing
		return existing, nil
	}

	if quantity.IsNegative() {
		return Ingredient{}, invalid("quantity", quantity.String(), "must not be negative")
	}
	ing := Ingredient{Name: key, Unit: unit, Quantity: quantity}
	l.entries[key] = ing
	l.order = append(l.order, key)
	return ing, nil
}

// Load replaces an entry wholesale. Used when rebuilding the ledger from the
// durable store, where quantities are absolute rather than top-ups.
func (l *IngredientLedger) Load(ing Ingredient) error {
	key := NewKey(string(ing.Name))
	if key.IsZero() {
		return invalid("ingredient name", string(ing.Name), "must not be empty")
	}
	if ing.Quantity.IsNegative() {
		return invalid("quantity", ing.Quantity.String(), "must not be negative")
	}
	ing.Name = key

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[key]; !ok {
		l.order = append(l.order, key)
	}
	l.entries[key] = ing
	return nil
}

// Remove deletes the entry. Removing an unknown ingredient is a no-op.
func (l *IngredientLedger) Remove(name string) {
	key := NewKey(name)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.removeLocked(key)
}

func (l *IngredientLedger) removeLocked(key Key) {
	if _, ok := l.entries[key]; !ok {
		return
	}
	delete(l.entries, key)
	for i, k := range l.order {
		if k == key {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// QuantityOf returns the on-hand quantity, or zero for unknown ingredients.
func (l *IngredientLedger) QuantityOf(name string) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.quantityLocked(NewKey(name))
}

func (l *IngredientLedger) quantityLocked(key Key) decimal.Decimal {
	if ing, ok := l.entries[key]; ok {
		return ing.Quantity
	}
	return decimal.Zero
}

// Contains reports whether the ledger holds the ingredient.
func (l *IngredientLedger) Contains(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[NewKey(name)]
	return ok
}

// Get returns a copy of the entry.
func (l *IngredientLedger) Get(name string) (Ingredient, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ing, ok := l.entries[NewKey(name)]
	return ing, ok
}

// Len returns the number of entries.
func (l *IngredientLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// All yields every entry in insertion order. Each range over the sequence
// copies the ledger at the moment iteration starts, so the loop body may
// call back into the ledger.
func (l *IngredientLedger) All() iter.Seq[Ingredient] {
	return func(yield func(Ingredient) bool) {
		for _, ing := range l.Snapshot() {
			if !yield(ing) {
				return
			}
		}
	}
}

// Snapshot copies the named entries, or every entry when no keys are given.
// Unknown keys are skipped.
func (l *IngredientLedger) Snapshot(keys ...Key) []Ingredient {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(keys) == 0 {
		keys = l.order
	}
	out := make([]Ingredient, 0, len(keys))
	for _, k := range keys {
		if ing, ok := l.entries[k]; ok {
			out = append(out, ing)
		}
	}
	return out
}

// Decrement subtracts amount from the entry without checking that enough is
// on hand. Callers are expected to have validated sufficiency first; the
// reservation engine does so inside the same Transact.
func (l *IngredientLedger) Decrement(name string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.decrementLocked(NewKey(name), amount)
}

func (l *IngredientLedger) decrementLocked(key Key, amount decimal.Decimal) error {
	ing, ok := l.entries[key]
	if !ok {
		return &NotFoundError{Ingredient: key}
	}
	ing.Quantity = ing.Quantity.Sub(amount)
	l.entries[key] = ing
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// View runs fn under the read lock. The reader it gets cannot write.
func (l *IngredientLedger) View(fn func(LedgerReader) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(ledgerView{l: l})
}

// Transact runs fn under the write lock. On error the ledger is restored
// from a snapshot taken before fn ran.
func (l *IngredientLedger) Transact(fn func(LedgerTx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := l.snapshotLocked()
	if err := fn(ledgerTx{ledgerView{l: l}}); err != nil {
		l.restoreLocked(snap)
		return err
	}
	return nil
}

type ledgerSnapshot struct {
	entries map[Key]Ingredient
	order   []Key
}

func (l *IngredientLedger) snapshotLocked() ledgerSnapshot {
	entries := make(map[Key]Ingredient, len(l.entries))
	for k, v := range l.entries {
		entries[k] = v
	}
	order := make([]Key, len(l.order))
	copy(order, l.order)
	return ledgerSnapshot{entries: entries, order: order}
}

func (l *IngredientLedger) restoreLocked(s ledgerSnapshot) {
	l.entries = s.entries
	l.order = s.order
}

// ledgerView reads through an already-held lock.
type ledgerView struct {
	l *IngredientLedger
}

func (v ledgerView) QuantityOf(name string) decimal.Decimal {
	return v.l.quantityLocked(NewKey(name))
}

func (v ledgerView) Contains(name string) bool {
	_, ok := v.l.entries[NewKey(name)]
	return ok
}

// ledgerTx adds writes to ledgerView. It is only handed out under the
// write lock.
type ledgerTx struct {
	ledgerView
}

func (t ledgerTx) Decrement(name string, amount decimal.Decimal) error {
	return t.l.decrementLocked(NewKey(name), amount)
}
