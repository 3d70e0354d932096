package schema

import (
	_ "embed"
)

// OrderBookProto is the .proto source of the order book schema. The static
// descriptors below must stay wire-identical to it.
//
//go:embed orderbook.proto
var OrderBookProto string

// OrderBookProtoFile is the file name OrderBookProto is registered under.
const OrderBookProtoFile = "orderbook.proto"

// OrderBookPackage is the proto package of the order book schema.
const OrderBookPackage = "orderbook"

// Field numbers are part of the wire contract and must never be reused.
var (
	AddOrderRequest = MustMessageDescriptor("AddOrderRequest",
		Scalar("order_id", 1, KindInt32),
		Scalar("side", 2, KindString),
		Scalar("price", 3, KindDouble),
		Scalar("quantity", 4, KindInt32),
		Scalar("order_type", 5, KindString),
	)

	CancelOrderRequest = MustMessageDescriptor("CancelOrderRequest",
		Scalar("order_id", 1, KindInt32),
	)

	GetOrderBookRequest = MustMessageDescriptor("GetOrderBookRequest")

	OrderResponse = MustMessageDescriptor("OrderResponse",
		Scalar("message", 1, KindString),
		Scalar("success", 2, KindBool),
	)

	PriceLevel = MustMessageDescriptor("PriceLevel",
		Scalar("price", 1, KindDouble),
		Scalar("quantity", 2, KindInt32),
	)

	OrderBookResponse = MustMessageDescriptor("OrderBookResponse",
		RepeatedMessage("bids", 1, PriceLevel),
		RepeatedMessage("asks", 2, PriceLevel),
	)
)

// OrderBookMessages lists every order book descriptor.
func OrderBookMessages() []*MessageDescriptor {
	return []*MessageDescriptor{
		AddOrderRequest,
		CancelOrderRequest,
		GetOrderBookRequest,
		OrderResponse,
		PriceLevel,
		OrderBookResponse,
	}
}

// OrderBookService describes the request/response pairs carried over the transport.
var OrderBookService = &Service{
	Name: "OrderBookService",
	Methods: []*Method{
		{Name: "AddOrder", InputType: "AddOrderRequest", OutputType: "OrderResponse"},
		{Name: "CancelOrder", InputType: "CancelOrderRequest", OutputType: "OrderResponse"},
		{Name: "GetOrderBook", InputType: "GetOrderBookRequest", OutputType: "OrderBookResponse"},
	},
}
