/*
Package restaurant runs a kitchen on top of the stock engine.

PURPOSE:
  A Session owns one kitchen: its ingredient ledger, its menu catalog, the
  reservation engine, and the durable Store everything is mirrored to.
  Placing an order is the engine's all-or-nothing commit followed by one
  store transaction that records the order and the new ingredient levels.

ARCHITECTURE:
  ┌───────────┐    ┌──────────────┐    ┌─────────────┐
  │  api/     │───▶│   Session    │───▶│  TxStore    │ sqlite or memory
  └───────────┘    └──────┬───────┘    └─────────────┘
                          │
                 ┌────────┴────────┐
                 ▼                 ▼
           stock.Engine      menu.Catalog
           (ledger)          (requirements, prices)

  The in-memory ledger is authoritative while the process runs. The store
  is loaded once at Open and written after every successful mutation.

ORDER PLACEMENT:
  1. engine.Commit: check and deduct under the ledger's write lock
  2. price the order (menu.NewReceipt)
  3. store.WithTx: save touched ingredients + the order record
  4. on store failure, give the deducted stock back and return the error

SEE ALSO:
  - session.go: Session
  - store.go: Store interfaces
  - report.go: Sales and stock reports
*/
package restaurant

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/kitchen-engine/menu"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrCustomerHasOrders = errors.New("customer has orders")
	ErrInvalidCustomer   = errors.New("invalid customer")
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyOrder        = errors.New("order has no lines")
)

// =============================================================================
// CUSTOMERS
// =============================================================================

// Customer is someone orders can be placed for. Email is unique.
type Customer struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// =============================================================================
// ORDERS
// =============================================================================

// OrderRecord is a placed order as persisted. Lines and amounts are frozen at
// placement time; later price changes do not affect them.
type OrderRecord struct {
	ID            string
	CustomerID    string
	ReservationID string
	CreatedAt     time.Time
	Lines         []menu.Line
	Subtotal      decimal.Decimal
	VAT           decimal.Decimal
	Total         decimal.Decimal
}

func newOrderRecord(customerID, reservationID string, r menu.Receipt) OrderRecord {
	return OrderRecord{
		ID:            r.ID,
		CustomerID:    customerID,
		ReservationID: reservationID,
		CreatedAt:     r.IssuedAt,
		Lines:         append([]menu.Line(nil), r.Lines...),
		Subtotal:      r.Subtotal,
		VAT:           r.VAT,
		Total:         r.Total,
	}
}

// Receipt rebuilds the receipt issued for the order.
func (o OrderRecord) Receipt() menu.Receipt {
	return menu.Receipt{
		ID:       o.ID,
		IssuedAt: o.CreatedAt,
		Lines:    append([]menu.Line(nil), o.Lines...),
		Subtotal: o.Subtotal,
		VAT:      o.VAT,
		Total:    o.Total,
	}
}

// Clone returns a copy with its own Lines slice.
func (o OrderRecord) Clone() OrderRecord {
	o.Lines = append([]menu.Line(nil), o.Lines...)
	return o
}
