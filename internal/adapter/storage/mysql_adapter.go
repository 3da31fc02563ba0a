package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rl1809/stock-orders/internal/core/domain"
	"github.com/rl1809/stock-orders/internal/port"
)

const (
	orderColumns = "OrderId, CustomerID, ItemID, Qty, DiscountPercentage, TotalPrice"

	getOrderQuery = "SELECT " + orderColumns + " FROM `092_Orders` WHERE OrderId = ? LIMIT 1"

	lockOrderQuery = "SELECT " + orderColumns + " FROM `092_Orders` WHERE OrderId = ? FOR UPDATE"

	listOrdersQuery = "SELECT " + orderColumns + " FROM `092_Orders` ORDER BY OrderId ASC LIMIT ? OFFSET ?"

	listDiscountedOrdersQuery = "SELECT " + orderColumns + " FROM `092_Orders` WHERE DiscountPercentage > 0 ORDER BY OrderId ASC LIMIT ? OFFSET ?"

	insertOrderQuery = "INSERT INTO `092_Orders` (CustomerID, ItemID, Qty, DiscountPercentage, TotalPrice) VALUES (?, ?, ?, ?, ?)"

	updateOrderQuery = "UPDATE `092_Orders` SET CustomerID = ?, ItemID = ?, Qty = ?, DiscountPercentage = ?, TotalPrice = ? WHERE OrderId = ?"

	deleteOrderQuery = "DELETE FROM `092_Orders` WHERE OrderId = ?"

	lockStockQuery = "SELECT Quantity, Price FROM `092_Items` WHERE ItemID = ? FOR UPDATE"

	adjustStockQuery = "UPDATE `092_Items` SET Quantity = Quantity + ? WHERE ItemID = ?"

	markPriorityQuery = "UPDATE `092_Customer` SET Priority = TRUE WHERE CustomerID = ?"
)

type MySQLAdapter struct {
	db *sqlx.DB
}

func NewMySQLAdapter(db *sqlx.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) WithinTx(ctx context.Context, fn func(uow port.UnitOfWork) error) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// no-op once committed; also covers a panicking fn
	defer tx.Rollback()

	if err := fn(&mysqlUnitOfWork{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	var order domain.Order
	err := m.db.GetContext(ctx, &order, getOrderQuery, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &order, nil
}

func (m *MySQLAdapter) ListOrders(ctx context.Context, page domain.Page, discountedOnly bool) ([]domain.Order, error) {
	query := listOrdersQuery
	if discountedOnly {
		query = listDiscountedOrdersQuery
	}

	orders := []domain.Order{}
	if err := m.db.SelectContext(ctx, &orders, query, page.Limit, page.Offset); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// mysqlUnitOfWork runs every statement on one transaction.
type mysqlUnitOfWork struct {
	tx *sqlx.Tx
}

func (u *mysqlUnitOfWork) LockAndGetStock(ctx context.Context, itemID int64) (domain.Stock, error) {
	var stock domain.Stock
	err := u.tx.GetContext(ctx, &stock, lockStockQuery, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Stock{}, domain.ErrItemNotFound
	}
	if err != nil {
		return domain.Stock{}, fmt.Errorf("lock item %d: %w", itemID, err)
	}
	return stock, nil
}

func (u *mysqlUnitOfWork) AdjustStock(ctx context.Context, itemID int64, delta int) error {
	result, err := u.tx.ExecContext(ctx, adjustStockQuery, delta, itemID)
	if err != nil {
		return fmt.Errorf("adjust stock of item %d: %w", itemID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust stock of item %d: %w", itemID, err)
	}
	if rows == 0 {
		return fmt.Errorf("adjust stock of item %d: %w", itemID, domain.ErrItemNotFound)
	}
	return nil
}

func (u *mysqlUnitOfWork) LockOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	var order domain.Order
	err := u.tx.GetContext(ctx, &order, lockOrderQuery, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock order %d: %w", orderID, err)
	}
	return &order, nil
}

func (u *mysqlUnitOfWork) InsertOrder(ctx context.Context, order domain.Order) (int64, error) {
	result, err := u.tx.ExecContext(ctx, insertOrderQuery,
		order.CustomerID, order.ItemID, order.Quantity, order.DiscountPercentage, order.TotalPrice,
	)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

func (u *mysqlUnitOfWork) UpdateOrder(ctx context.Context, order domain.Order) error {
	_, err := u.tx.ExecContext(ctx, updateOrderQuery,
		order.CustomerID, order.ItemID, order.Quantity, order.DiscountPercentage, order.TotalPrice,
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("update order %d: %w", order.ID, err)
	}
	return nil
}

func (u *mysqlUnitOfWork) DeleteOrder(ctx context.Context, orderID int64) (bool, error) {
	result, err := u.tx.ExecContext(ctx, deleteOrderQuery, orderID)
	if err != nil {
		return false, fmt.Errorf("delete order %d: %w", orderID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete order %d: %w", orderID, err)
	}
	return rows > 0, nil
}

func (u *mysqlUnitOfWork) MarkCustomerPriority(ctx context.Context, customerID int64) error {
	if _, err := u.tx.ExecContext(ctx, markPriorityQuery, customerID); err != nil {
		return fmt.Errorf("mark customer %d priority: %w", customerID, err)
	}
	return nil
}
