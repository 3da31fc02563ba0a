package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rl1809/stock-orders/internal/core/domain"
)

const (
	itemColumns     = "ItemID, ItemDescription, Quantity, Price"
	customerColumns = "CustomerID, CustomerDescription, Priority"

	getItemQuery    = "SELECT " + itemColumns + " FROM `092_Items` WHERE ItemID = ? LIMIT 1"
	listItemsQuery  = "SELECT " + itemColumns + " FROM `092_Items` ORDER BY ItemID ASC LIMIT ? OFFSET ?"
	insertItemQuery = "INSERT INTO `092_Items` (ItemDescription, Quantity, Price) VALUES (?, ?, ?)"
	deleteItemQuery = "DELETE FROM `092_Items` WHERE ItemID = ?"

	getCustomerQuery    = "SELECT " + customerColumns + " FROM `092_Customer` WHERE CustomerID = ? LIMIT 1"
	listCustomersQuery  = "SELECT " + customerColumns + " FROM `092_Customer` ORDER BY CustomerID ASC LIMIT ? OFFSET ?"
	insertCustomerQuery = "INSERT INTO `092_Customer` (CustomerDescription, Priority) VALUES (?, ?)"
	deleteCustomerQuery = "DELETE FROM `092_Customer` WHERE CustomerID = ?"
)

func (m *MySQLAdapter) GetItem(ctx context.Context, itemID int64) (*domain.Item, error) {
	var item domain.Item
	err := m.db.GetContext(ctx, &item, getItemQuery, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &item, nil
}

func (m *MySQLAdapter) ListItems(ctx context.Context, page domain.Page) ([]domain.Item, error) {
	items := []domain.Item{}
	if err := m.db.SelectContext(ctx, &items, listItemsQuery, page.Limit, page.Offset); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (m *MySQLAdapter) CreateItem(ctx context.Context, item domain.NewItem) (int64, error) {
	result, err := m.db.ExecContext(ctx, insertItemQuery, item.Description, item.Quantity, item.Price)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return result.LastInsertId()
}

func (m *MySQLAdapter) PatchItem(ctx context.Context, itemID int64, patch domain.ItemPatch) (bool, error) {
	var u update
	if patch.Description != nil {
		u.set("ItemDescription", *patch.Description)
	}
	if patch.Quantity != nil {
		u.set("Quantity", *patch.Quantity)
	}
	if patch.Price != nil {
		u.set("Price", *patch.Price)
	}
	return m.execUpdate(ctx, "`092_Items`", "ItemID", itemID, u)
}

func (m *MySQLAdapter) DeleteItem(ctx context.Context, itemID int64) (bool, error) {
	return m.execDelete(ctx, deleteItemQuery, itemID)
}

func (m *MySQLAdapter) GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error) {
	var customer domain.Customer
	err := m.db.GetContext(ctx, &customer, getCustomerQuery, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	return &customer, nil
}

func (m *MySQLAdapter) ListCustomers(ctx context.Context, page domain.Page) ([]domain.Customer, error) {
	customers := []domain.Customer{}
	if err := m.db.SelectContext(ctx, &customers, listCustomersQuery, page.Limit, page.Offset); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (m *MySQLAdapter) CreateCustomer(ctx context.Context, customer domain.NewCustomer) (int64, error) {
	result, err := m.db.ExecContext(ctx, insertCustomerQuery, customer.Description, customer.Priority)
	if err != nil {
		return 0, fmt.Errorf("insert customer: %w", err)
	}
	return result.LastInsertId()
}

func (m *MySQLAdapter) PatchCustomer(ctx context.Context, customerID int64, patch domain.CustomerPatch) (bool, error) {
	var u update
	if patch.Description != nil {
		u.set("CustomerDescription", *patch.Description)
	}
	if patch.Priority != nil {
		u.set("Priority", *patch.Priority)
	}
	return m.execUpdate(ctx, "`092_Customer`", "CustomerID", customerID, u)
}

func (m *MySQLAdapter) DeleteCustomer(ctx context.Context, customerID int64) (bool, error) {
	return m.execDelete(ctx, deleteCustomerQuery, customerID)
}

// update collects SET assignments. Column names come from code, never
// from request input.
type update struct {
	columns []string
	args    []any
}

func (u *update) set(column string, value any) {
	u.columns = append(u.columns, column+" = ?")
	u.args = append(u.args, value)
}

func (m *MySQLAdapter) execUpdate(ctx context.Context, table, keyColumn string, id int64, u update) (bool, error) {
	if len(u.columns) == 0 {
		return false, nil
	}

	query := "UPDATE " + table + " SET " + strings.Join(u.columns, ", ") + " WHERE " + keyColumn + " = ?"
	result, err := m.db.ExecContext(ctx, query, append(u.args, id)...)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", table, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update %s: %w", table, err)
	}
	return rows > 0, nil
}

func (m *MySQLAdapter) execDelete(ctx context.Context, query string, id int64) (bool, error) {
	result, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}
	return rows > 0, nil
}
