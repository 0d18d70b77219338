/*
reservation.go - All-or-nothing stock reservation

PURPOSE:
  The Engine is the public face of the package. It turns an order into
  demand, checks it against the ledger, and either deducts the whole demand
  or nothing at all.

RESERVATION STATES:
  ┌────────────┐   satisfiable    ┌───────────┐
  │ Evaluating │ ───────────────▶ │ Committed │
  └────────────┘                  └───────────┘
        │        not satisfiable  ┌───────────┐
        └───────────────────────▶ │ Rejected  │
                                  └───────────┘
  Committed and Rejected are terminal. There is no partially committed
  state: a caller never sees some of an order's ingredients deducted and
  others not.

CHECK-AND-COMMIT:
  Both steps run inside one Ledger.Transact call, so every quantity read
  during the check is the quantity the deduction starts from. Nothing
  (a timer callback, a second order) can mutate the ledger in between.

FAILURE:
  The check treats absent ingredients as zero stock, so a satisfiable demand
  only names ingredients the ledger holds and Decrement cannot fail with
  NotFound. If it fails anyway, Transact restores the ledger and the
  engine returns a ConsistencyError. It never reports a partial commit.

EXAMPLE:
  engine := stock.NewEngine(ledger, catalog, stock.WithLogger(logger))

  probe, _ := engine.Evaluate(ctx, order) // read-only
  if probe.OK {
      result, err := engine.Commit(ctx, order)
      ...
  }

SEE ALSO:
  - availability.go: Check
  - requirements.go: Aggregate
*/
package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// RESERVATION - State machine for one check-and-commit
// =============================================================================

// State is the lifecycle position of a reservation.
type State string

const (
	StateEvaluating State = "evaluating"
	StateCommitted  State = "committed"
	StateRejected   State = "rejected"
)

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateCommitted || s == StateRejected
}

// Reservation records one attempt to deduct a demand from the ledger.
type Reservation struct {
	ID        string
	State     State
	Demand    Demand
	Shortages []Shortage
}

func newReservation(id string, demand Demand) *Reservation {
	return &Reservation{ID: id, State: StateEvaluating, Demand: demand}
}

func (r *Reservation) commit() {
	if r.State.IsTerminal() {
		return
	}
	r.State = StateCommitted
	r.Shortages = nil
}

func (r *Reservation) reject(shortages []Shortage) {
	if r.State.IsTerminal() {
		return
	}
	r.State = StateRejected
	r.Shortages = shortages
}

// =============================================================================
// RESULT - What callers get back
// =============================================================================

// Result is returned by Evaluate and Commit. OK is true exactly when
// Shortages is empty. Results of Evaluate stay in StateEvaluating because
// nothing was committed.
type Result struct {
	OK            bool
	Shortages     []Shortage
	Demand        Demand
	ReservationID string
	State         State
}

func (r *Reservation) result() Result {
	return Result{
		OK:            r.State == StateCommitted,
		Shortages:     r.Shortages,
		Demand:        r.Demand,
		ReservationID: r.ID,
		State:         r.State,
	}
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine evaluates and commits orders against a ledger.
type Engine struct {
	ledger       Ledger
	requirements RequirementProvider
	logger       *zap.Logger
	newID        func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithIDGenerator replaces the reservation id source (uuid by default).
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEngine wires an engine to its ledger and requirement provider.
func NewEngine(ledger Ledger, requirements RequirementProvider, opts ...Option) *Engine {
	e := &Engine{
		ledger:       ledger,
		requirements: requirements,
		logger:       zap.NewNop(),
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate reports whether order could be fulfilled right now. It never
// mutates the ledger.
func (e *Engine) Evaluate(ctx context.Context, order Order) (Result, error) {
	demand, err := Aggregate(ctx, order, e.requirements)
	if err != nil {
		return Result{}, err
	}
	return e.EvaluateDemand(demand)
}

// EvaluateDemand checks demand under a single read snapshot of the ledger.
// A ledger that cannot be read yields an error, never a partial result.
func (e *Engine) EvaluateDemand(demand Demand) (Result, error) {
	var avail Availability
	err := e.ledger.View(func(r LedgerReader) error {
		avail = Check(demand, r)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("read ledger: %w", err)
	}
	return Result{
		OK:        avail.OK,
		Shortages: avail.Shortages,
		Demand:    demand,
		State:     StateEvaluating,
	}, nil
}

// Commit aggregates order and runs EvaluateAndCommit on the result.
func (e *Engine) Commit(ctx context.Context, order Order) (Result, error) {
	demand, err := Aggregate(ctx, order, e.requirements)
	if err != nil {
		return Result{}, err
	}
	return e.EvaluateAndCommit(demand)
}

// EvaluateAndCommit deducts demand from the ledger if, and only if, every
// ingredient is covered. A rejected result carries the shortages and leaves
// the ledger untouched. An error means an internal-consistency fault; the
// ledger has been restored and the result is Rejected.
func (e *Engine) EvaluateAndCommit(demand Demand) (Result, error) {
	res := newReservation(e.newID(), demand)
	var failed Key

	err := e.ledger.Transact(func(tx LedgerTx) error {
		avail := Check(demand, tx)
		if !avail.OK {
			res.reject(avail.Shortages)
			return nil
		}
		for _, key := range demand.keys {
			amount := demand.qty[key]
			if !amount.IsPositive() {
				continue
			}
			if err := tx.Decrement(string(key), amount); err != nil {
				failed = key
				return err
			}
		}
		res.commit()
		return nil
	})

	if err != nil {
		e.logger.Error("reservation commit failed after availability check",
			zap.String("reservation_id", res.ID),
			zap.String("ingredient", string(failed)),
			zap.Error(err),
		)
		res.reject(nil)
		return res.result(), &ConsistencyError{ReservationID: res.ID, Err: err}
	}

	switch res.State {
	case StateCommitted:
		e.logger.Info("reservation committed",
			zap.String("reservation_id", res.ID),
			zap.Int("ingredients", demand.Len()),
		)
	case StateRejected:
		e.logger.Debug("reservation rejected",
			zap.String("reservation_id", res.ID),
			zap.Int("shortages", len(res.Shortages)),
		)
	}
	return res.result(), nil
}
