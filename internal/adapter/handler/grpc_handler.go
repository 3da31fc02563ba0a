package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/stock-orders/internal/core/domain"
)

const orderServiceName = "orders.v1.OrderService"

type GetOrderRequest struct {
	OrderID int64 `json:"OrderId"`
}

type ListOrdersRequest struct {
	Limit          int  `json:"limit"`
	Offset         int  `json:"offset"`
	DiscountedOnly bool `json:"discountedOnly"`
}

type PatchOrderRequest struct {
	OrderID int64             `json:"OrderId"`
	Patch   domain.OrderPatch `json:"Patch"`
}

type DeleteOrderRequest struct {
	OrderID int64 `json:"OrderId"`
}

type ListOrdersResponse = domain.List[domain.Order]

type PatchOrderResponse struct {
	Updated bool `json:"updated"`
}

type DeleteOrderResponse struct {
	Deleted bool `json:"deleted"`
}

type OrderServiceServer interface {
	CreateOrder(context.Context, *domain.NewOrder) (*domain.Order, error)
	GetOrder(context.Context, *GetOrderRequest) (*domain.Order, error)
	ListOrders(context.Context, *ListOrdersRequest) (*ListOrdersResponse, error)
	PatchOrder(context.Context, *PatchOrderRequest) (*PatchOrderResponse, error)
	DeleteOrder(context.Context, *DeleteOrderRequest) (*DeleteOrderResponse, error)
}

type GRPCHandler struct {
	orders OrderService
}

func NewGRPCHandler(orders OrderService) *GRPCHandler {
	return &GRPCHandler{orders: orders}
}

func (h *GRPCHandler) CreateOrder(ctx context.Context, req *domain.NewOrder) (*domain.Order, error) {
	order, err := h.orders.Create(ctx, *req)
	if err != nil {
		return nil, grpcError("CreateOrder", err)
	}
	return order, nil
}

func (h *GRPCHandler) GetOrder(ctx context.Context, req *GetOrderRequest) (*domain.Order, error) {
	order, err := h.orders.Get(ctx, req.OrderID)
	if err != nil {
		return nil, grpcError("GetOrder", err)
	}
	if order == nil {
		return nil, status.Error(codes.NotFound, "order not found")
	}
	return order, nil
}

func (h *GRPCHandler) ListOrders(ctx context.Context, req *ListOrdersRequest) (*ListOrdersResponse, error) {
	page := domain.NewPage(strconv.Itoa(req.Limit), strconv.Itoa(req.Offset))

	list := h.orders.List
	if req.DiscountedOnly {
		list = h.orders.ListDiscounted
	}

	orders, err := list(ctx, page)
	if err != nil {
		return nil, grpcError("ListOrders", err)
	}
	resp := domain.NewList(orders)
	return &resp, nil
}

func (h *GRPCHandler) PatchOrder(ctx context.Context, req *PatchOrderRequest) (*PatchOrderResponse, error) {
	updated, err := h.orders.Patch(ctx, req.OrderID, req.Patch)
	if err != nil {
		return nil, grpcError("PatchOrder", err)
	}
	if !updated {
		return nil, status.Error(codes.NotFound, "order not found or no valid fields sent")
	}
	return &PatchOrderResponse{Updated: true}, nil
}

func (h *GRPCHandler) DeleteOrder(ctx context.Context, req *DeleteOrderRequest) (*DeleteOrderResponse, error) {
	deleted, err := h.orders.Delete(ctx, req.OrderID)
	if err != nil {
		return nil, grpcError("DeleteOrder", err)
	}
	if !deleted {
		return nil, status.Error(codes.NotFound, "order not found")
	}
	return &DeleteOrderResponse{Deleted: true}, nil
}

func grpcError(method string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidDiscount),
		errors.Is(err, domain.ErrInvalidPrice):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		log.Printf("grpc %s: %v", method, err)
		return status.Error(codes.Internal, "internal server error")
	}
}

func decodeError(err error) error {
	if errors.Is(err, domain.ErrInvalidQuantity) || errors.Is(err, domain.ErrInvalidDiscount) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.InvalidArgument, "invalid request body")
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&orderServiceDesc, srv)
}

var orderServiceDesc = grpc.ServiceDesc{
	ServiceName: orderServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateOrder", Handler: unaryHandler("CreateOrder", OrderServiceServer.CreateOrder)},
		{MethodName: "GetOrder", Handler: unaryHandler("GetOrder", OrderServiceServer.GetOrder)},
		{MethodName: "ListOrders", Handler: unaryHandler("ListOrders", OrderServiceServer.ListOrders)},
		{MethodName: "PatchOrder", Handler: unaryHandler("PatchOrder", OrderServiceServer.PatchOrder)},
		{MethodName: "DeleteOrder", Handler: unaryHandler("DeleteOrder", OrderServiceServer.DeleteOrder)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orders/v1/orders.proto",
}

// unaryHandler adapts a typed server method to grpc.MethodHandler,
// running it through the server's interceptor chain. Requests arrive
// through the JSON codec and are decoded here so that bad order fields
// keep their validation kind.
func unaryHandler[Req, Resp any](method string, call func(OrderServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	fullMethod := "/" + orderServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		var raw json.RawMessage
		if err := dec(&raw); err != nil {
			return nil, err
		}
		in := new(Req)
		if err := json.Unmarshal(raw, in); err != nil {
			return nil, decodeError(err)
		}
		if interceptor == nil {
			return call(srv.(OrderServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OrderServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// OrderServiceClient calls the order service over a connection, selecting
// the JSON codec on every call.
type OrderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderServiceClient(cc grpc.ClientConnInterface) *OrderServiceClient {
	return &OrderServiceClient{cc: cc}
}

func (c *OrderServiceClient) CreateOrder(ctx context.Context, in *domain.NewOrder, opts ...grpc.CallOption) (*domain.Order, error) {
	out := new(domain.Order)
	if err := c.invoke(ctx, "CreateOrder", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*domain.Order, error) {
	out := new(domain.Order)
	if err := c.invoke(ctx, "GetOrder", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) ListOrders(ctx context.Context, in *ListOrdersRequest, opts ...grpc.CallOption) (*ListOrdersResponse, error) {
	out := new(ListOrdersResponse)
	if err := c.invoke(ctx, "ListOrders", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) PatchOrder(ctx context.Context, in *PatchOrderRequest, opts ...grpc.CallOption) (*PatchOrderResponse, error) {
	out := new(PatchOrderResponse)
	if err := c.invoke(ctx, "PatchOrder", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) DeleteOrder(ctx context.Context, in *DeleteOrderRequest, opts ...grpc.CallOption) (*DeleteOrderResponse, error) {
	out := new(DeleteOrderResponse)
	if err := c.invoke(ctx, "DeleteOrder", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+orderServiceName+"/"+method, in, out, opts...)
}
