package transport

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/anirudhraja/orderwire"
)

// Response messages sent by order book servers.
const (
	MsgOrderAdded     = "Order added successfully"
	MsgOrderMatched   = "Order matched and executed"
	MsgOrderCancelled = "Order cancelled successfully"
)

// AddOrderFailed returns the failure response for a rejected order. The call
// itself still succeeds.
func AddOrderFailed(err error) *orderwire.OrderResponse {
	resp := orderwire.NewOrderResponse()
	resp.SetMessage("Error adding order: " + err.Error())
	return resp
}

// CancelOrderFailed returns the failure response for a rejected cancel.
func CancelOrderFailed(err error) *orderwire.OrderResponse {
	resp := orderwire.NewOrderResponse()
	resp.SetMessage("Error cancelling order: " + err.Error())
	return resp
}

func succeeded(message string) *orderwire.OrderResponse {
	resp := orderwire.NewOrderResponse()
	resp.SetMessage(message)
	resp.SetSuccess(true)
	return resp
}

// MemoryBook is an OrderBookServer that keeps its book in memory and matches
// orders by price then time priority. GoodTillCancel and GoodForDay orders
// rest until filled or cancelled. FillAndKill, FillOrKill and Market orders
// never rest: what does not trade at once is cancelled. Prices are kept in
// whole cents.
type MemoryBook struct {
	mu   sync.Mutex
	book *orderBook
}

func NewMemoryBook() *MemoryBook {
	return &MemoryBook{book: newOrderBook()}
}

func (b *MemoryBook) AddOrder(_ context.Context, req *orderwire.AddOrderRequest) (*orderwire.OrderResponse, error) {
	if err := ValidateAddOrder(req); err != nil {
		return AddOrderFailed(err), nil
	}
	side, _ := ParseSide(req.Side())
	order := &bookOrder{
		id:        req.OrderID(),
		side:      side,
		orderType: req.OrderType(),
		cents:     priceToCents(req.Price()),
		remaining: req.Quantity(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.book.orders[order.id]; exists {
		return AddOrderFailed(fmt.Errorf("order %d already exists", order.id)), nil
	}
	if b.book.add(order) > 0 {
		return succeeded(MsgOrderMatched), nil
	}
	return succeeded(MsgOrderAdded), nil
}

// CancelOrder removes the order if it is resting. Unknown ids are not an
// error.
func (b *MemoryBook) CancelOrder(_ context.Context, req *orderwire.CancelOrderRequest) (*orderwire.OrderResponse, error) {
	b.mu.Lock()
	b.book.cancel(req.OrderID())
	b.mu.Unlock()
	return succeeded(MsgOrderCancelled), nil
}

// GetOrderBook returns one level per price, bids best (highest) first and
// asks best (lowest) first.
func (b *MemoryBook) GetOrderBook(_ context.Context, _ *orderwire.GetOrderBookRequest) (*orderwire.OrderBookResponse, error) {
	b.mu.Lock()
	bidPrices, bidQuantities := b.book.bids.quantities()
	askPrices, askQuantities := b.book.asks.quantities()
	b.mu.Unlock()

	resp := orderwire.NewOrderBookResponse()
	for i, cents := range bidPrices {
		resp.AddBid(centsToPrice(cents), bidQuantities[i])
	}
	for i, cents := range askPrices {
		resp.AddAsk(centsToPrice(cents), askQuantities[i])
	}
	return resp, nil
}

// Len reports the number of resting orders.
func (b *MemoryBook) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.book.orders)
}

// priceToCents rounds a validated price to whole cents
func priceToCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

func centsToPrice(cents int64) float64 {
	return float64(cents) / 100
}
