package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rl1809/stock-orders/internal/core/domain"
	"github.com/rl1809/stock-orders/internal/port"
)

// mockStore is an in-memory database with row locks. Transactions lock
// the rows they touch, so transactions on different rows run
// concurrently, and roll back by replaying an undo log.
type mockStore struct {
	// mu guards the maps and counters, never held while waiting on a row
	mu sync.Mutex

	items     map[int64]domain.Item
	orders    map[int64]domain.Order
	customers map[int64]domain.Customer
	nextOrder int64

	rows map[rowKey]*sync.Mutex

	commits   int
	rollbacks int

	// itemLockOrders records, per finished transaction, the item rows it
	// locked in acquisition order
	itemLockOrders [][]int64

	// failPriority makes MarkCustomerPriority fail
	failPriority error

	// afterItemLock, if set, runs each time a transaction locks an item row
	afterItemLock func(itemID int64)
}

type rowKey struct {
	table string
	id    int64
}

func newMockStore() *mockStore {
	return &mockStore{
		items:     make(map[int64]domain.Item),
		orders:    make(map[int64]domain.Order),
		customers: make(map[int64]domain.Customer),
		nextOrder: 1,
		rows:      make(map[rowKey]*sync.Mutex),
	}
}

func (m *mockStore) addItem(id int64, qty int, price string) {
	m.items[id] = domain.Item{ID: id, Quantity: qty, Price: decimal.RequireFromString(price)}
}

func (m *mockStore) addCustomer(id int64) {
	m.customers[id] = domain.Customer{ID: id}
}

func (m *mockStore) stock(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Quantity
}

func (m *mockStore) order(id int64) (domain.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	return o, ok
}

func (m *mockStore) priority(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.customers[id].Priority
}

func (m *mockStore) row(key rowKey) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[key]
	if !ok {
		l = new(sync.Mutex)
		m.rows[key] = l
	}
	return l
}

func (m *mockStore) WithinTx(ctx context.Context, fn func(uow port.UnitOfWork) error) (err error) {
	uow := &mockUnitOfWork{store: m, held: make(map[rowKey]*sync.Mutex)}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}

		m.mu.Lock()
		if err != nil {
			for i := len(uow.undo) - 1; i >= 0; i-- {
				uow.undo[i]()
			}
			m.rollbacks++
		} else {
			m.commits++
		}
		m.itemLockOrders = append(m.itemLockOrders, uow.itemLocks)
		m.mu.Unlock()

		for _, l := range uow.held {
			l.Unlock()
		}
	}()

	return fn(uow)
}

func (m *mockStore) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *mockStore) ListOrders(ctx context.Context, page domain.Page, discountedOnly bool) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Order
	for id := int64(1); id < m.nextOrder; id++ {
		o, ok := m.orders[id]
		if !ok || (discountedOnly && !o.DiscountPercentage.IsPositive()) {
			continue
		}
		out = append(out, o)
	}

	if page.Offset >= len(out) {
		return nil, nil
	}
	out = out[page.Offset:]
	if len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

// mockUnitOfWork holds its row locks until the transaction ends. Map
// access still goes through mockStore.mu.
type mockUnitOfWork struct {
	store     *mockStore
	held      map[rowKey]*sync.Mutex
	itemLocks []int64
	undo      []func()
}

func (u *mockUnitOfWork) lock(table string, id int64) {
	key := rowKey{table: table, id: id}
	if _, ok := u.held[key]; ok {
		return
	}
	l := u.store.row(key)
	l.Lock()
	u.held[key] = l
}

func (u *mockUnitOfWork) LockAndGetStock(ctx context.Context, itemID int64) (domain.Stock, error) {
	u.lock("items", itemID)
	u.itemLocks = append(u.itemLocks, itemID)
	if hook := u.store.afterItemLock; hook != nil {
		hook(itemID)
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	item, ok := u.store.items[itemID]
	if !ok {
		return domain.Stock{}, domain.ErrItemNotFound
	}
	return domain.Stock{Quantity: item.Quantity, UnitPrice: item.Price}, nil
}

func (u *mockUnitOfWork) AdjustStock(ctx context.Context, itemID int64, delta int) error {
	if _, ok := u.held[rowKey{table: "items", id: itemID}]; !ok {
		return fmt.Errorf("adjust stock of item %d without lock", itemID)
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	item := u.store.items[itemID]
	if item.Quantity+delta < 0 {
		return errors.New("stock went negative")
	}
	item.Quantity += delta
	u.store.items[itemID] = item
	u.undo = append(u.undo, func() {
		item := u.store.items[itemID]
		item.Quantity -= delta
		u.store.items[itemID] = item
	})
	return nil
}

func (u *mockUnitOfWork) LockOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	u.lock("orders", orderID)

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	o, ok := u.store.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (u *mockUnitOfWork) InsertOrder(ctx context.Context, order domain.Order) (int64, error) {
	u.store.mu.Lock()
	order.ID = u.store.nextOrder
	u.store.nextOrder++
	u.store.mu.Unlock()

	// the new row is invisible to other writers until commit
	u.lock("orders", order.ID)

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	u.store.orders[order.ID] = order
	u.undo = append(u.undo, func() { delete(u.store.orders, order.ID) })
	return order.ID, nil
}

func (u *mockUnitOfWork) UpdateOrder(ctx context.Context, order domain.Order) error {
	u.lock("orders", order.ID)

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	prev, existed := u.store.orders[order.ID]
	u.store.orders[order.ID] = order
	u.undo = append(u.undo, func() {
		if existed {
			u.store.orders[order.ID] = prev
		} else {
			delete(u.store.orders, order.ID)
		}
	})
	return nil
}

func (u *mockUnitOfWork) DeleteOrder(ctx context.Context, orderID int64) (bool, error) {
	u.lock("orders", orderID)

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	prev, ok := u.store.orders[orderID]
	if !ok {
		return false, nil
	}
	delete(u.store.orders, orderID)
	u.undo = append(u.undo, func() { u.store.orders[orderID] = prev })
	return true, nil
}

func (u *mockUnitOfWork) MarkCustomerPriority(ctx context.Context, customerID int64) error {
	if u.store.failPriority != nil {
		return u.store.failPriority
	}
	u.lock("customers", customerID)

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	c, ok := u.store.customers[customerID]
	if !ok {
		return nil
	}
	prev := c
	c.Priority = true
	u.store.customers[customerID] = c
	u.undo = append(u.undo, func() { u.store.customers[customerID] = prev })
	return nil
}

// mockCatalogRepo backs ItemService and CustomerService.
type mockCatalogRepo struct {
	mu        sync.Mutex
	items     map[int64]domain.Item
	customers map[int64]domain.Customer
	nextID    int64
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		items:     make(map[int64]domain.Item),
		customers: make(map[int64]domain.Customer),
		nextID:    1,
	}
}

func (m *mockCatalogRepo) GetItem(ctx context.Context, itemID int64) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *mockCatalogRepo) ListItems(ctx context.Context, page domain.Page) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Item
	for id := int64(1); id < m.nextID && len(out) < page.Limit; id++ {
		if item, ok := m.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockCatalogRepo) CreateItem(ctx context.Context, in domain.NewItem) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.items[id] = domain.Item{ID: id, Description: in.Description, Quantity: in.Quantity, Price: in.Price}
	return id, nil
}

func (m *mockCatalogRepo) PatchItem(ctx context.Context, itemID int64, patch domain.ItemPatch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok {
		return false, nil
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		item.Price = *patch.Price
	}
	m.items[itemID] = item
	return true, nil
}

func (m *mockCatalogRepo) DeleteItem(ctx context.Context, itemID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[itemID]
	delete(m.items, itemID)
	return ok, nil
}

func (m *mockCatalogRepo) GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[customerID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *mockCatalogRepo) ListCustomers(ctx context.Context, page domain.Page) ([]domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Customer
	for id := int64(1); id < m.nextID && len(out) < page.Limit; id++ {
		if c, ok := m.customers[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCatalogRepo) CreateCustomer(ctx context.Context, in domain.NewCustomer) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.customers[id] = domain.Customer{ID: id, Description: in.Description, Priority: in.Priority}
	return id, nil
}

func (m *mockCatalogRepo) PatchCustomer(ctx context.Context, customerID int64, patch domain.CustomerPatch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[customerID]
	if !ok {
		return false, nil
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Priority != nil {
		c.Priority = *patch.Priority
	}
	m.customers[customerID] = c
	return true, nil
}

func (m *mockCatalogRepo) DeleteCustomer(ctx context.Context, customerID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.customers[customerID]
	delete(m.customers, customerID)
	return ok, nil
}
