package service

import (
	"context"
	"errors"
	"slices"

	"github.com/rl1809/stock-orders/internal/core/domain"
	"github.com/rl1809/stock-orders/internal/core/pricing"
	"github.com/rl1809/stock-orders/internal/port"
)

type OrderService struct {
	tx              port.Transactor
	orders          port.OrderReader
	restockOnDelete bool
}

type OrderOption func(*OrderService)

// WithRestockOnDelete makes Delete release the deleted order's quantity
// back onto its item.
func WithRestockOnDelete(enabled bool) OrderOption {
	return func(s *OrderService) {
		s.restockOnDelete = enabled
	}
}

func NewOrderService(tx port.Transactor, orders port.OrderReader, opts ...OrderOption) *OrderService {
	s := &OrderService{tx: tx, orders: orders}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OrderService) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.orders.GetOrder(ctx, orderID)
}

func (s *OrderService) List(ctx context.Context, page domain.Page) ([]domain.Order, error) {
	return s.orders.ListOrders(ctx, page, false)
}

func (s *OrderService) ListDiscounted(ctx context.Context, page domain.Page) ([]domain.Order, error) {
	return s.orders.ListOrders(ctx, page, true)
}

// Create reserves stock for a new order, prices it and stores it in one
// transaction.
func (s *OrderService) Create(ctx context.Context, in domain.NewOrder) (*domain.Order, error) {
	// a started transaction runs to commit or rollback
	ctx = context.WithoutCancel(ctx)

	var created domain.Order
	err := s.tx.WithinTx(ctx, func(uow port.UnitOfWork) error {
		stock, err := uow.LockAndGetStock(ctx, in.ItemID)
		if err != nil {
			return err
		}

		discount := in.Discount()
		if err := pricing.Validate(stock.UnitPrice, in.Quantity, discount); err != nil {
			return err
		}
		if stock.Quantity < in.Quantity {
			return domain.ErrInsufficientStock
		}

		total, err := pricing.ComputeTotal(stock.UnitPrice, in.Quantity, discount)
		if err != nil {
			return err
		}

		order := domain.Order{
			CustomerID:         in.CustomerID,
			ItemID:             in.ItemID,
			Quantity:           in.Quantity,
			DiscountPercentage: discount,
			TotalPrice:         pricing.RoundTotal(total),
		}
		order.ID, err = uow.InsertOrder(ctx, order)
		if err != nil {
			return err
		}

		if err := uow.AdjustStock(ctx, in.ItemID, -in.Quantity); err != nil {
			return err
		}

		if domain.ShouldMarkPriority(in.Quantity) {
			if err := uow.MarkCustomerPriority(ctx, in.CustomerID); err != nil {
				return err
			}
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// Patch applies a partial update to an order, moving its stock
// reservation and recomputing its total. It returns false when the
// order does not exist or the patch carries no field.
func (s *OrderService) Patch(ctx context.Context, orderID int64, patch domain.OrderPatch) (bool, error) {
	if patch.IsEmpty() {
		return false, nil
	}

	ctx = context.WithoutCancel(ctx)

	updated := false
	err := s.tx.WithinTx(ctx, func(uow port.UnitOfWork) error {
		current, err := uow.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return nil
		}

		next := patch.Apply(*current)
		if next.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
		if err := pricing.ValidateDiscount(next.DiscountPercentage); err != nil {
			return err
		}

		stock, err := reconcileStock(ctx, uow, *current, next)
		if err != nil {
			return err
		}

		total, err := pricing.ComputeTotal(stock.UnitPrice, next.Quantity, next.DiscountPercentage)
		if err != nil {
			return err
		}
		next.TotalPrice = pricing.RoundTotal(total)

		if err := uow.UpdateOrder(ctx, next); err != nil {
			return err
		}

		if domain.ShouldMarkPriority(next.Quantity) {
			if err := uow.MarkCustomerPriority(ctx, next.CustomerID); err != nil {
				return err
			}
		}

		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return updated, nil
}

// reconcileStock moves the reservation held by old to next and returns
// the locked stock of next's item.
func reconcileStock(ctx context.Context, uow port.UnitOfWork, old, next domain.Order) (domain.Stock, error) {
	if next.ItemID != old.ItemID {
		locked, err := lockItems(ctx, uow, old.ItemID, next.ItemID)
		if err != nil {
			return domain.Stock{}, err
		}

		stock, ok := locked[next.ItemID]
		if !ok {
			return domain.Stock{}, domain.ErrItemNotFound
		}

		// nothing to release when the old item row is gone
		if _, ok := locked[old.ItemID]; ok {
			if err := uow.AdjustStock(ctx, old.ItemID, old.Quantity); err != nil {
				return domain.Stock{}, err
			}
		}

		if stock.Quantity < next.Quantity {
			return domain.Stock{}, domain.ErrInsufficientStock
		}
		if err := uow.AdjustStock(ctx, next.ItemID, -next.Quantity); err != nil {
			return domain.Stock{}, err
		}
		return stock, nil
	}

	stock, err := uow.LockAndGetStock(ctx, next.ItemID)
	if err != nil {
		return domain.Stock{}, err
	}

	diff := next.Quantity - old.Quantity
	switch {
	case diff > 0:
		if stock.Quantity < diff {
			return domain.Stock{}, domain.ErrInsufficientStock
		}
		if err := uow.AdjustStock(ctx, next.ItemID, -diff); err != nil {
			return domain.Stock{}, err
		}
	case diff < 0:
		if err := uow.AdjustStock(ctx, next.ItemID, -diff); err != nil {
			return domain.Stock{}, err
		}
	}

	return stock, nil
}

// lockItems locks the given item rows in ascending id order so that two
// transactions moving orders between the same items cannot deadlock.
// Missing items are left out of the result.
func lockItems(ctx context.Context, uow port.InventoryLedger, itemIDs ...int64) (map[int64]domain.Stock, error) {
	ids := slices.Clone(itemIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	locked := make(map[int64]domain.Stock, len(ids))
	for _, id := range ids {
		stock, err := uow.LockAndGetStock(ctx, id)
		if errors.Is(err, domain.ErrItemNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		locked[id] = stock
	}

	return locked, nil
}

// Delete removes an order. Unless the service was built
// WithRestockOnDelete, the quantity the order reserved stays deducted
// from its item.
func (s *OrderService) Delete(ctx context.Context, orderID int64) (bool, error) {
	ctx = context.WithoutCancel(ctx)

	deleted := false
	err := s.tx.WithinTx(ctx, func(uow port.UnitOfWork) error {
		if s.restockOnDelete {
			current, err := uow.LockOrder(ctx, orderID)
			if err != nil {
				return err
			}
			if current == nil {
				return nil
			}
			if err := releaseReservation(ctx, uow, *current); err != nil {
				return err
			}
		}

		ok, err := uow.DeleteOrder(ctx, orderID)
		if err != nil {
			return err
		}
		deleted = ok
		return nil
	})
	if err != nil {
		return false, err
	}

	return deleted, nil
}

func releaseReservation(ctx context.Context, uow port.UnitOfWork, order domain.Order) error {
	_, err := uow.LockAndGetStock(ctx, order.ItemID)
	if errors.Is(err, domain.ErrItemNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return uow.AdjustStock(ctx, order.ItemID, order.Quantity)
}
