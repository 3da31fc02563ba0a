package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/rl1809/stock-orders/internal/core/domain"
)

type ItemService interface {
	Get(ctx context.Context, itemID int64) (*domain.Item, error)
	List(ctx context.Context, page domain.Page) ([]domain.Item, error)
	Create(ctx context.Context, in domain.NewItem) (*domain.Item, error)
	Patch(ctx context.Context, itemID int64, patch domain.ItemPatch) (bool, error)
	Delete(ctx context.Context, itemID int64) (bool, error)
}

type CustomerService interface {
	Get(ctx context.Context, customerID int64) (*domain.Customer, error)
	List(ctx context.Context, page domain.Page) ([]domain.Customer, error)
	Create(ctx context.Context, in domain.NewCustomer) (*domain.Customer, error)
	Patch(ctx context.Context, customerID int64, patch domain.CustomerPatch) (bool, error)
	Delete(ctx context.Context, customerID int64) (bool, error)
}

func (h *HTTPHandler) ListItems(c *fiber.Ctx) error {
	items, err := h.items.List(c.UserContext(), pageFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(domain.NewList(items))
}

func (h *HTTPHandler) GetItem(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return writeMessage(c, fiber.StatusNotFound, "Item not found")
	}

	item, err := h.items.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	if item == nil {
		return writeMessage(c, fiber.StatusNotFound, "Item not found")
	}
	return c.JSON(item)
}

func (h *HTTPHandler) CreateItem(c *fiber.Ctx) error {
	var in domain.NewItem
	if err := c.BodyParser(&in); err != nil {
		return writeBodyError(c, err)
	}

	item, err := h.items.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *HTTPHandler) PatchItem(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return writeMessage(c, fiber.StatusNotFound, "Item not found or no valid fields sent")
	}

	var patch domain.ItemPatch
	if err := c.BodyParser(&patch); err != nil {
		return writeBodyError(c, err)
	}

	updated, err := h.items.Patch(c.UserContext(), id, patch)
	if err != nil {
		return writeError(c, err)
	}
	if !updated {
		return writeMessage(c, fiber.StatusNotFound, "Item not found or no valid fields sent")
	}
	return writeMessage(c, fiber.StatusOK, "Item updated partially with the field/s given")
}

func (h *HTTPHandler) DeleteItem(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return writeMessage(c, fiber.StatusNotFound, "Item not found")
	}

	deleted, err := h.items.Delete(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	if !deleted {
		return writeMessage(c, fiber.StatusNotFound, "Item not found")
	}
	return writeMessage(c, fiber.StatusOK, "Item deleted")
}

func (h *HTTPHandler) ListCustomers(c *fiber.Ctx) error {
	customers, err := h.customers.List(c.UserContext(), pageFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(domain.NewList(customers))
}

func (h *HTTPHandler) GetCustomer(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return writeMessage(c, fiber.StatusNotFound, "Customer not found")
	}

	customer, err := h.customers.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	if customer == nil {
		return writeMessage(c, fiber.StatusNotFound, "Customer not found")
	}
	return c.JSON(customer)
}

func (h *HTTPHandler) CreateCustomer(c *fiber.Ctx) error {
	var in domain.NewCustomer
	if err := c.BodyParser(&in); err != nil {
		return writeBodyError(c, err)
	}

	customer, err := h.customers.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

func (h *HTTPHandler) PatchCustomer(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return writeMessage(c, fiber.StatusNotFound, "Customer not found or no valid fields sent")
	}

	var patch domain.CustomerPatch
	if err := c.BodyParser(&patch); err != nil {
		return writeBodyError(c, err)
	}

	updated, err := h.customers.Patch(c.UserContext(), id, patch)
	if err != nil {
		return writeError(c, err)
	}
	if !updated {
		return writeMessage(c, fiber.StatusNotFound, "Customer not found or no valid fields sent")
	}
	return writeMessage(c, fiber.StatusOK, "Customer updated partially with the field/s given")
}

func (h *HTTPHandler) DeleteCustomer(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return writeMessage(c, fiber.StatusNotFound, "Customer not found")
	}

	deleted, err := h.customers.Delete(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	if !deleted {
		return writeMessage(c, fiber.StatusNotFound, "Customer not found")
	}
	return writeMessage(c, fiber.StatusOK, "Customer deleted")
}
