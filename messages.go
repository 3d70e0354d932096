package orderwire

import (
	"github.com/anirudhraja/orderwire/schema"
	"github.com/anirudhraja/orderwire/wire"
)

// Field numbers of the order book messages.
const (
	addOrderOrderID   wire.FieldNumber = 1
	addOrderSide      wire.FieldNumber = 2
	addOrderPrice     wire.FieldNumber = 3
	addOrderQuantity  wire.FieldNumber = 4
	addOrderOrderType wire.FieldNumber = 5

	cancelOrderOrderID wire.FieldNumber = 1

	orderResponseMessage wire.FieldNumber = 1
	orderResponseSuccess wire.FieldNumber = 2

	priceLevelPrice    wire.FieldNumber = 1
	priceLevelQuantity wire.FieldNumber = 2

	orderBookBids wire.FieldNumber = 1
	orderBookAsks wire.FieldNumber = 2
)

// ===== REQUESTS =====

// AddOrderRequest submits a new order. The zero value is an empty request.
type AddOrderRequest struct {
	msg *wire.Message
}

func NewAddOrderRequest() *AddOrderRequest { return &AddOrderRequest{} }

func (m *AddOrderRequest) Type() MessageType         { return TypeAddOrderRequest }
func (m *AddOrderRequest) Wire() *wire.Message       { return lazyWire(&m.msg, schema.AddOrderRequest) }
func (m *AddOrderRequest) setWire(msg *wire.Message) { m.msg = msg }

func (m *AddOrderRequest) OrderID() int32    { return m.Wire().GetInt32(addOrderOrderID) }
func (m *AddOrderRequest) Side() string      { return m.Wire().GetString(addOrderSide) }
func (m *AddOrderRequest) Price() float64    { return m.Wire().GetDouble(addOrderPrice) }
func (m *AddOrderRequest) Quantity() int32   { return m.Wire().GetInt32(addOrderQuantity) }
func (m *AddOrderRequest) OrderType() string { return m.Wire().GetString(addOrderOrderType) }

func (m *AddOrderRequest) SetOrderID(v int32)    { mustSet(m.Wire().SetInt32(addOrderOrderID, v)) }
func (m *AddOrderRequest) SetSide(v string)      { mustSet(m.Wire().SetString(addOrderSide, v)) }
func (m *AddOrderRequest) SetPrice(v float64)    { mustSet(m.Wire().SetDouble(addOrderPrice, v)) }
func (m *AddOrderRequest) SetQuantity(v int32)   { mustSet(m.Wire().SetInt32(addOrderQuantity, v)) }
func (m *AddOrderRequest) SetOrderType(v string) { mustSet(m.Wire().SetString(addOrderOrderType, v)) }

// CancelOrderRequest cancels a resting order by id.
type CancelOrderRequest struct {
	msg *wire.Message
}

func NewCancelOrderRequest() *CancelOrderRequest { return &CancelOrderRequest{} }

func (m *CancelOrderRequest) Type() MessageType         { return TypeCancelOrderRequest }
func (m *CancelOrderRequest) Wire() *wire.Message       { return lazyWire(&m.msg, schema.CancelOrderRequest) }
func (m *CancelOrderRequest) setWire(msg *wire.Message) { m.msg = msg }

func (m *CancelOrderRequest) OrderID() int32     { return m.Wire().GetInt32(cancelOrderOrderID) }
func (m *CancelOrderRequest) SetOrderID(v int32) { mustSet(m.Wire().SetInt32(cancelOrderOrderID, v)) }

// GetOrderBookRequest asks for a snapshot of the book. It has no fields.
type GetOrderBookRequest struct {
	msg *wire.Message
}

func NewGetOrderBookRequest() *GetOrderBookRequest { return &GetOrderBookRequest{} }

func (m *GetOrderBookRequest) Type() MessageType         { return TypeGetOrderBookRequest }
func (m *GetOrderBookRequest) Wire() *wire.Message       { return lazyWire(&m.msg, schema.GetOrderBookRequest) }
func (m *GetOrderBookRequest) setWire(msg *wire.Message) { m.msg = msg }

// ===== RESPONSES =====

// OrderResponse reports the outcome of an add or cancel.
type OrderResponse struct {
	msg *wire.Message
}

func NewOrderResponse() *OrderResponse { return &OrderResponse{} }

func (m *OrderResponse) Type() MessageType         { return TypeOrderResponse }
func (m *OrderResponse) Wire() *wire.Message       { return lazyWire(&m.msg, schema.OrderResponse) }
func (m *OrderResponse) setWire(msg *wire.Message) { m.msg = msg }

func (m *OrderResponse) Message() string { return m.Wire().GetString(orderResponseMessage) }
func (m *OrderResponse) Success() bool   { return m.Wire().GetBool(orderResponseSuccess) }

func (m *OrderResponse) SetMessage(v string) { mustSet(m.Wire().SetString(orderResponseMessage, v)) }
func (m *OrderResponse) SetSuccess(v bool)   { mustSet(m.Wire().SetBool(orderResponseSuccess, v)) }

// PriceLevel is the aggregate quantity resting at one price.
type PriceLevel struct {
	msg *wire.Message
}

func NewPriceLevel() *PriceLevel { return &PriceLevel{} }

func (m *PriceLevel) Type() MessageType         { return TypePriceLevel }
func (m *PriceLevel) Wire() *wire.Message       { return lazyWire(&m.msg, schema.PriceLevel) }
func (m *PriceLevel) setWire(msg *wire.Message) { m.msg = msg }

func (m *PriceLevel) Price() float64  { return m.Wire().GetDouble(priceLevelPrice) }
func (m *PriceLevel) Quantity() int32 { return m.Wire().GetInt32(priceLevelQuantity) }

func (m *PriceLevel) SetPrice(v float64)  { mustSet(m.Wire().SetDouble(priceLevelPrice, v)) }
func (m *PriceLevel) SetQuantity(v int32) { mustSet(m.Wire().SetInt32(priceLevelQuantity, v)) }

// OrderBookResponse is a book snapshot. Bids and asks keep the order they
// were added in; the sender decides the sort.
type OrderBookResponse struct {
	msg *wire.Message
}

func NewOrderBookResponse() *OrderBookResponse { return &OrderBookResponse{} }

func (m *OrderBookResponse) Type() MessageType         { return TypeOrderBookResponse }
func (m *OrderBookResponse) Wire() *wire.Message       { return lazyWire(&m.msg, schema.OrderBookResponse) }
func (m *OrderBookResponse) setWire(msg *wire.Message) { m.msg = msg }

func (m *OrderBookResponse) Bids() []*PriceLevel { return priceLevels(m.Wire().GetRepeated(orderBookBids)) }
func (m *OrderBookResponse) Asks() []*PriceLevel { return priceLevels(m.Wire().GetRepeated(orderBookAsks)) }

// AddBid appends a bid level.
func (m *OrderBookResponse) AddBid(price float64, quantity int32) {
	mustSet(m.Wire().Append(orderBookBids, newLevel(price, quantity)))
}

// AddAsk appends an ask level.
func (m *OrderBookResponse) AddAsk(price float64, quantity int32) {
	mustSet(m.Wire().Append(orderBookAsks, newLevel(price, quantity)))
}

func newLevel(price float64, quantity int32) *wire.Message {
	level := NewPriceLevel()
	level.SetPrice(price)
	level.SetQuantity(quantity)
	return level.Wire()
}

func priceLevels(msgs []*wire.Message) []*PriceLevel {
	if len(msgs) == 0 {
		return nil
	}
	levels := make([]*PriceLevel, len(msgs))
	for i, msg := range msgs {
		levels[i] = &PriceLevel{msg: msg}
	}
	return levels
}
