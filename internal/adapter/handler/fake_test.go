package handler

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rl1809/stock-orders/internal/core/domain"
)

type fakeOrderService struct {
	mu         sync.Mutex
	orders     map[int64]domain.Order
	nextID     int64
	err        error
	creates    int
	lastPage   domain.Page
	discounted bool
}

func newFakeOrderService() *fakeOrderService {
	return &fakeOrderService{orders: make(map[int64]domain.Order)}
}

func (f *fakeOrderService) Get(_ context.Context, orderID int64) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (f *fakeOrderService) List(_ context.Context, page domain.Page) ([]domain.Order, error) {
	return f.list(page, false)
}

func (f *fakeOrderService) ListDiscounted(_ context.Context, page domain.Page) ([]domain.Order, error) {
	return f.list(page, true)
}

func (f *fakeOrderService) list(page domain.Page, discounted bool) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPage = page
	f.discounted = discounted
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Order
	for id := int64(1); id <= f.nextID; id++ {
		o, ok := f.orders[id]
		if !ok || (discounted && o.DiscountPercentage.IsZero()) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrderService) Create(_ context.Context, in domain.NewOrder) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	o := domain.Order{
		ID:                 f.nextID,
		CustomerID:         in.CustomerID,
		ItemID:             in.ItemID,
		Quantity:           in.Quantity,
		DiscountPercentage: in.Discount(),
		TotalPrice:         decimal.NewFromInt(int64(in.Quantity) * 10),
	}
	f.orders[o.ID] = o
	return &o, nil
}

func (f *fakeOrderService) Patch(_ context.Context, orderID int64, patch domain.OrderPatch) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	o, ok := f.orders[orderID]
	if !ok || patch.IsEmpty() {
		return false, nil
	}
	f.orders[orderID] = patch.Apply(o)
	return true, nil
}

func (f *fakeOrderService) Delete(_ context.Context, orderID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.orders[orderID]; !ok {
		return false, nil
	}
	delete(f.orders, orderID)
	return true, nil
}

type fakeItemService struct {
	items map[int64]domain.Item
	err   error
}

func (f *fakeItemService) Get(_ context.Context, itemID int64) (*domain.Item, error) {
	if it, ok := f.items[itemID]; ok {
		return &it, nil
	}
	return nil, nil
}

func (f *fakeItemService) List(_ context.Context, _ domain.Page) ([]domain.Item, error) {
	var out []domain.Item
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeItemService) Create(_ context.Context, in domain.NewItem) (*domain.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	it := domain.Item{ID: int64(len(f.items) + 1), Description: in.Description, Quantity: in.Quantity, Price: in.Price}
	f.items[it.ID] = it
	return &it, nil
}

func (f *fakeItemService) Patch(_ context.Context, itemID int64, patch domain.ItemPatch) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.items[itemID]
	return ok && !patch.IsEmpty(), nil
}

func (f *fakeItemService) Delete(_ context.Context, itemID int64) (bool, error) {
	_, ok := f.items[itemID]
	delete(f.items, itemID)
	return ok, nil
}

type fakeCustomerService struct {
	customers map[int64]domain.Customer
}

func (f *fakeCustomerService) Get(_ context.Context, customerID int64) (*domain.Customer, error) {
	if c, ok := f.customers[customerID]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *fakeCustomerService) List(_ context.Context, _ domain.Page) ([]domain.Customer, error) {
	var out []domain.Customer
	for _, c := range f.customers {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCustomerService) Create(_ context.Context, in domain.NewCustomer) (*domain.Customer, error) {
	c := domain.Customer{ID: int64(len(f.customers) + 1), Description: in.Description, Priority: in.Priority}
	f.customers[c.ID] = c
	return &c, nil
}

func (f *fakeCustomerService) Patch(_ context.Context, customerID int64, patch domain.CustomerPatch) (bool, error) {
	_, ok := f.customers[customerID]
	return ok && !patch.IsEmpty(), nil
}

func (f *fakeCustomerService) Delete(_ context.Context, customerID int64) (bool, error) {
	_, ok := f.customers[customerID]
	delete(f.customers, customerID)
	return ok, nil
}

type fakeIdempotencyStore struct {
	mu       sync.Mutex
	keys     map[string]bool
	released []string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: make(map[string]bool)}
}

func (f *fakeIdempotencyStore) SetIdempotency(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) ReleaseIdempotency(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
	f.released = append(f.released, key)
	return nil
}
