package service

import (
	"context"

	"github.com/rl1809/stock-orders/internal/core/domain"
	"github.com/rl1809/stock-orders/internal/port"
)

type ItemService struct {
	repo port.ItemRepository
}

func NewItemService(repo port.ItemRepository) *ItemService {
	return &ItemService{repo: repo}
}

func (s *ItemService) Get(ctx context.Context, itemID int64) (*domain.Item, error) {
	return s.repo.GetItem(ctx, itemID)
}

func (s *ItemService) List(ctx context.Context, page domain.Page) ([]domain.Item, error) {
	return s.repo.ListItems(ctx, page)
}

func (s *ItemService) Create(ctx context.Context, in domain.NewItem) (*domain.Item, error) {
	if err := domain.ValidateStockLevel(in.Quantity, in.Price); err != nil {
		return nil, err
	}

	id, err := s.repo.CreateItem(ctx, in)
	if err != nil {
		return nil, err
	}

	return &domain.Item{
		ID:          id,
		Description: in.Description,
		Quantity:    in.Quantity,
		Price:       in.Price,
	}, nil
}

// Patch sets stock levels directly and bypasses the order ledger; it is
// meant for manual stock entry.
func (s *ItemService) Patch(ctx context.Context, itemID int64, patch domain.ItemPatch) (bool, error) {
	if patch.IsEmpty() {
		return false, nil
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return false, domain.ErrInvalidQuantity
	}
	if patch.Price != nil {
		if err := domain.ValidatePrice(*patch.Price); err != nil {
			return false, err
		}
	}

	return s.repo.PatchItem(ctx, itemID, patch)
}

func (s *ItemService) Delete(ctx context.Context, itemID int64) (bool, error) {
	return s.repo.DeleteItem(ctx, itemID)
}

type CustomerService struct {
	repo port.CustomerRepository
}

func NewCustomerService(repo port.CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

func (s *CustomerService) Get(ctx context.Context, customerID int64) (*domain.Customer, error) {
	return s.repo.GetCustomer(ctx, customerID)
}

func (s *CustomerService) List(ctx context.Context, page domain.Page) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx, page)
}

func (s *CustomerService) Create(ctx context.Context, in domain.NewCustomer) (*domain.Customer, error) {
	id, err := s.repo.CreateCustomer(ctx, in)
	if err != nil {
		return nil, err
	}

	return &domain.Customer{
		ID:          id,
		Description: in.Description,
		Priority:    in.Priority,
	}, nil
}

func (s *CustomerService) Patch(ctx context.Context, customerID int64, patch domain.CustomerPatch) (bool, error) {
	if patch.IsEmpty() {
		return false, nil
	}
	return s.repo.PatchCustomer(ctx, customerID, patch)
}

func (s *CustomerService) Delete(ctx context.Context, customerID int64) (bool, error) {
	return s.repo.DeleteCustomer(ctx, customerID)
}
