package transport

import (
	"context"

	"google.golang.org/grpc"

	"github.com/anirudhraja/orderwire"
	"github.com/anirudhraja/orderwire/schema"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = schema.OrderBookPackage + "." + "OrderBookService"

// Full method names, as they appear on the wire.
const (
	AddOrderMethod     = "/" + ServiceName + "/AddOrder"
	CancelOrderMethod  = "/" + ServiceName + "/CancelOrder"
	GetOrderBookMethod = "/" + ServiceName + "/GetOrderBook"
)

// OrderBookServer is the server API for the order book service.
type OrderBookServer interface {
	AddOrder(context.Context, *orderwire.AddOrderRequest) (*orderwire.OrderResponse, error)
	CancelOrder(context.Context, *orderwire.CancelOrderRequest) (*orderwire.OrderResponse, error)
	GetOrderBook(context.Context, *orderwire.GetOrderBookRequest) (*orderwire.OrderBookResponse, error)
}

// ServiceDesc describes the order book service to grpc.Server. Method
// handlers decode with whatever codec the server was configured with, so
// register it on servers built with ServerOptions.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderBookServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddOrder", Handler: addOrderHandler},
		{MethodName: "CancelOrder", Handler: cancelOrderHandler},
		{MethodName: "GetOrderBook", Handler: getOrderBookHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: schema.OrderBookProtoFile,
}

// RegisterService registers srv with s.
func RegisterService(s grpc.ServiceRegistrar, srv OrderBookServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func addOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := orderwire.NewAddOrderRequest()
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderBookServer).AddOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AddOrderMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderBookServer).AddOrder(ctx, req.(*orderwire.AddOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func cancelOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := orderwire.NewCancelOrderRequest()
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderBookServer).CancelOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CancelOrderMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderBookServer).CancelOrder(ctx, req.(*orderwire.CancelOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getOrderBookHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := orderwire.NewGetOrderBookRequest()
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderBookServer).GetOrderBook(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetOrderBookMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderBookServer).GetOrderBook(ctx, req.(*orderwire.GetOrderBookRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// methodTypes maps each full method name to its request and response types
var methodTypes = map[string][2]orderwire.MessageType{
	AddOrderMethod:     {orderwire.TypeAddOrderRequest, orderwire.TypeOrderResponse},
	CancelOrderMethod:  {orderwire.TypeCancelOrderRequest, orderwire.TypeOrderResponse},
	GetOrderBookMethod: {orderwire.TypeGetOrderBookRequest, orderwire.TypeOrderBookResponse},
}

// MethodTypes returns the request and response types of a full method name,
// or of its short form ("AddOrder").
func MethodTypes(method string) (in, out orderwire.MessageType, ok bool) {
	if types, found := methodTypes[method]; found {
		return types[0], types[1], true
	}
	if types, found := methodTypes["/"+ServiceName+"/"+method]; found {
		return types[0], types[1], true
	}
	return 0, 0, false
}
