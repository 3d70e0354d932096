package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/anirudhraja/orderwire"
)

// Client calls the order book service. Every call forces the orderwire codec,
// so the connection needs no codec configuration.
type Client struct {
	cc    grpc.ClientConnInterface
	codec Codec
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) AddOrder(ctx context.Context, in *orderwire.AddOrderRequest, opts ...grpc.CallOption) (*orderwire.OrderResponse, error) {
	out := orderwire.NewOrderResponse()
	if err := c.invoke(ctx, AddOrderMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CancelOrder(ctx context.Context, in *orderwire.CancelOrderRequest, opts ...grpc.CallOption) (*orderwire.OrderResponse, error) {
	out := orderwire.NewOrderResponse()
	if err := c.invoke(ctx, CancelOrderMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrderBook(ctx context.Context, in *orderwire.GetOrderBookRequest, opts ...grpc.CallOption) (*orderwire.OrderBookResponse, error) {
	out := orderwire.NewOrderBookResponse()
	if err := c.invoke(ctx, GetOrderBookMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// Call invokes method, given in full or short form, with a request of the
// matching type and returns the typed response.
func (c *Client) Call(ctx context.Context, method string, in orderwire.Message, opts ...grpc.CallOption) (orderwire.Message, error) {
	inType, outType, ok := MethodTypes(method)
	if !ok {
		return nil, fmt.Errorf("unknown method: %s", method)
	}
	if in.Type() != inType {
		return nil, fmt.Errorf("method %s takes %s, got %s", method, inType, in.Type())
	}
	out, err := orderwire.NewMessage(outType)
	if err != nil {
		return nil, err
	}
	full := method
	if _, found := methodTypes[method]; !found {
		full = "/" + ServiceName + "/" + method
	}
	if err := c.invoke(ctx, full, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out orderwire.Message, opts []grpc.CallOption) error {
	callOpts := append([]grpc.CallOption{grpc.ForceCodec(c.codec)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, callOpts...)
}
