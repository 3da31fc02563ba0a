package port

import (
	"context"

	"github.com/rl1809/stock-orders/internal/core/domain"
)

// Transactor runs fn inside one database transaction. The transaction
// commits when fn returns nil and rolls back when fn returns an error or
// panics.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error
}

// UnitOfWork exposes the row-locking operations available inside a
// transaction. It must not be retained after WithinTx returns.
type UnitOfWork interface {
	InventoryLedger

	// LockOrder reads an order FOR UPDATE, returning nil when it does not exist
	LockOrder(ctx context.Context, orderID int64) (*domain.Order, error)

	// InsertOrder stores a new order and returns its generated id
	InsertOrder(ctx context.Context, order domain.Order) (int64, error)

	// UpdateOrder rewrites every mutable column of an order
	UpdateOrder(ctx context.Context, order domain.Order) error

	// DeleteOrder removes an order, reporting whether a row was deleted
	DeleteOrder(ctx context.Context, orderID int64) (bool, error)

	// MarkCustomerPriority sets the priority flag; an unknown customer is not an error
	MarkCustomerPriority(ctx context.Context, customerID int64) error
}

// InventoryLedger owns item stock. AdjustStock may only be called for an
// item locked by LockAndGetStock in the same transaction.
type InventoryLedger interface {
	// LockAndGetStock reads the item row FOR UPDATE, domain.ErrItemNotFound if absent
	LockAndGetStock(ctx context.Context, itemID int64) (domain.Stock, error)

	// AdjustStock applies quantity += delta
	AdjustStock(ctx context.Context, itemID int64, delta int) error
}

// OrderReader serves plain, unlocked order reads.
type OrderReader interface {
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, page domain.Page, discountedOnly bool) ([]domain.Order, error)
}

type ItemRepository interface {
	GetItem(ctx context.Context, itemID int64) (*domain.Item, error)
	ListItems(ctx context.Context, page domain.Page) ([]domain.Item, error)
	CreateItem(ctx context.Context, item domain.NewItem) (int64, error)
	PatchItem(ctx context.Context, itemID int64, patch domain.ItemPatch) (bool, error)
	DeleteItem(ctx context.Context, itemID int64) (bool, error)
}

type CustomerRepository interface {
	GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error)
	ListCustomers(ctx context.Context, page domain.Page) ([]domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.NewCustomer) (int64, error)
	PatchCustomer(ctx context.Context, customerID int64, patch domain.CustomerPatch) (bool, error)
	DeleteCustomer(ctx context.Context, customerID int64) (bool, error)
}
