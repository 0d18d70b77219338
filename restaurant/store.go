package restaurant

import (
	"context"

	"github.com/warp/kitchen-engine/menu"
	"github.com/warp/kitchen-engine/stock"
)

// =============================================================================
// STORE - Durable mirror of a kitchen
// =============================================================================

// Store persists ingredients, menus, customers and orders.
//
// Ingredient quantities are stored as absolute values; the Session writes
// the ledger's current value after every change.
type Store interface {
	SaveIngredient(ctx context.Context, ing stock.Ingredient) error
	// DeleteIngredient removes the entry. Unknown names are not an error.
	DeleteIngredient(ctx context.Context, name stock.Key) error
	// ListIngredients returns entries in the order they were first saved.
	ListIngredients(ctx context.Context) ([]stock.Ingredient, error)

	SaveMenu(ctx context.Context, m menu.Menu) error
	DeleteMenu(ctx context.Context, name string) error
	ListMenus(ctx context.Context) ([]menu.Menu, error)

	// SaveCustomer inserts or updates by ID. Returns ErrDuplicateEmail if
	// another customer has the same email.
	SaveCustomer(ctx context.Context, c Customer) error
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	DeleteCustomer(ctx context.Context, id string) error

	SaveOrder(ctx context.Context, o OrderRecord) error
	GetOrder(ctx context.Context, id string) (*OrderRecord, error)
	// ListOrders returns orders oldest first.
	ListOrders(ctx context.Context) ([]OrderRecord, error)
	CountOrders(ctx context.Context, customerID string) (int, error)
	DeleteOrder(ctx context.Context, id string) error
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error

	// Reset deletes everything.
	Reset(ctx context.Context) error
}
