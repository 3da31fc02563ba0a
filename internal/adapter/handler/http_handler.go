package handler

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/rl1809/stock-orders/internal/core/domain"
	"github.com/rl1809/stock-orders/internal/port"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDLocal  = "requestid"

	idempotencyHeader = "Idempotency-Key"
)

type OrderService interface {
	Get(ctx context.Context, orderID int64) (*domain.Order, error)
	List(ctx context.Context, page domain.Page) ([]domain.Order, error)
	ListDiscounted(ctx context.Context, page domain.Page) ([]domain.Order, error)
	Create(ctx context.Context, in domain.NewOrder) (*domain.Order, error)
	Patch(ctx context.Context, orderID int64, patch domain.OrderPatch) (bool, error)
	Delete(ctx context.Context, orderID int64) (bool, error)
}

type HTTPHandler struct {
	orders      OrderService
	items       ItemService
	customers   CustomerService
	idempotency port.IdempotencyStore
}

type MessageResponse struct {
	Message string `json:"message"`
}

// NewHTTPHandler wires the services. idempotency may be nil, in which case
// the Idempotency-Key header is ignored.
func NewHTTPHandler(orders OrderService, items ItemService, customers CustomerService, idempotency port.IdempotencyStore) *HTTPHandler {
	return &HTTPHandler{
		orders:      orders,
		items:       items,
		customers:   customers,
		idempotency: idempotency,
	}
}

func (h *HTTPHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.HealthCheck)

	api := app.Group("/api")

	orders := api.Group("/order")
	orders.Get("/", h.ListOrders)
	orders.Get("/discounted", h.ListDiscountedOrders)
	orders.Get("/:id", h.GetOrder)
	orders.Post("/", h.CreateOrder)
	orders.Patch("/:id", h.PatchOrder)
	orders.Delete("/:id", h.DeleteOrder)

	items := api.Group("/item")
	items.Get("/", h.ListItems)
	items.Get("/:id", h.GetItem)
	items.Post("/", h.CreateItem)
	items.Patch("/:id", h.PatchItem)
	items.Delete("/:id", h.DeleteItem)

	customers := api.Group("/customer")
	customers.Get("/", h.ListCustomers)
	customers.Get("/:id", h.GetCustomer)
	customers.Post("/", h.CreateCustomer)
	customers.Patch("/:id", h.PatchCustomer)
	customers.Delete("/:id", h.DeleteCustomer)
}

func (h *HTTPHandler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *HTTPHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.orders.List(c.UserContext(), pageFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(domain.NewList(orders))
}

func (h *HTTPHandler) ListDiscountedOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListDiscounted(c.UserContext(), pageFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(domain.NewList(orders))
}

func (h *HTTPHandler) GetOrder(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return writeMessage(c, fiber.StatusNotFound, "Order not found")
	}

	order, err := h.orders.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	if order == nil {
		return writeMessage(c, fiber.StatusNotFound, "Order not found")
	}
	return c.JSON(order)
}

func (h *HTTPHandler) CreateOrder(c *fiber.Ctx) error {
	var in domain.NewOrder
	if err := c.BodyParser(&in); err != nil {
		return writeBodyError(c, err)
	}

	ctx := c.UserContext()

	key := c.Get(idempotencyHeader)
	if h.idempotency != nil && key != "" {
		key = "order:" + key
		claimed, err := h.idempotency.SetIdempotency(ctx, key)
		if err != nil {
			return writeError(c, err)
		}
		if !claimed {
			return writeMessage(c, fiber.StatusConflict, "Duplicate request")
		}
	}

	order, err := h.orders.Create(ctx, in)
	if err != nil {
		if h.idempotency != nil && key != "" {
			if releaseErr := h.idempotency.ReleaseIdempotency(context.WithoutCancel(ctx), key); releaseErr != nil {
				log.Printf("request %s: failed to release idempotency key %s: %v", requestID(c), key, releaseErr)
			}
		}
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *HTTPHandler) PatchOrder(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return writeMessage(c, fiber.StatusNotFound, "Order not found or no valid fields sent")
	}

	var patch domain.OrderPatch
	if err := c.BodyParser(&patch); err != nil {
		return writeBodyError(c, err)
	}

	updated, err := h.orders.Patch(c.UserContext(), id, patch)
	if err != nil {
		return writeError(c, err)
	}
	if !updated {
		return writeMessage(c, fiber.StatusNotFound, "Order not found or no valid fields sent")
	}
	return writeMessage(c, fiber.StatusOK, "Order updated partially with the field/s given")
}

func (h *HTTPHandler) DeleteOrder(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return writeMessage(c, fiber.StatusNotFound, "Order not found")
	}

	deleted, err := h.orders.Delete(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	if !deleted {
		return writeMessage(c, fiber.StatusNotFound, "Order not found")
	}
	return writeMessage(c, fiber.StatusOK, "Order deleted")
}

// RequestID tags every request with an id, reusing the caller's when given.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Locals(requestIDLocal, id)
		return c.Next()
	}
}

// ErrorHandler answers router-level errors (unknown route, bad method,
// recovered panics) with the same message envelope as the handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return writeMessage(c, fe.Code, fe.Message)
	}
	log.Printf("request %s: %s %s: %v", requestID(c), c.Method(), c.Path(), err)
	return writeMessage(c, fiber.StatusInternalServerError, "Internal server error")
}

func writeError(c *fiber.Ctx, err error) error {
	status := httpStatus(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("request %s: %s %s: %v", requestID(c), c.Method(), c.Path(), err)
		return writeMessage(c, status, "Internal server error")
	}
	return writeMessage(c, status, err.Error())
}

// writeBodyError keeps the validation kind of a bad Qty or
// DiscountPercentage; any other decoding failure is a malformed body.
func writeBodyError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrInvalidQuantity) || errors.Is(err, domain.ErrInvalidDiscount) {
		return writeError(c, err)
	}
	return writeMessage(c, fiber.StatusBadRequest, "Invalid request body")
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrInvalidDiscount):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidPrice):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func writeMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(MessageResponse{Message: message})
}

// pathID reports false for ids that are not positive integers.
func pathID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pageFrom(c *fiber.Ctx) domain.Page {
	return domain.NewPage(c.Query("limit"), c.Query("offset"))
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocal).(string)
	return id
}
