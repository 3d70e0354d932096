package transport

import (
	"math"
	"sort"
)

// bookOrder is an order resting in a book, or being matched against it
type bookOrder struct {
	id        int32
	side      Side
	orderType string
	cents     int64
	remaining int32
}

// bookSide holds one side's price levels, best price first. Orders within a
// level keep arrival order.
type bookSide struct {
	better func(a, b int64) bool
	prices []int64
	levels map[int64][]*bookOrder
}

func newBookSide(better func(a, b int64) bool) *bookSide {
	return &bookSide{better: better, levels: make(map[int64][]*bookOrder)}
}

func (s *bookSide) empty() bool { return len(s.prices) == 0 }

// best returns the best price; the side must not be empty
func (s *bookSide) best() int64 { return s.prices[0] }

// worst returns the worst price; the side must not be empty
func (s *bookSide) worst() int64 { return s.prices[len(s.prices)-1] }

func (s *bookSide) push(o *bookOrder) {
	if _, ok := s.levels[o.cents]; !ok {
		i := sort.Search(len(s.prices), func(i int) bool { return !s.better(s.prices[i], o.cents) })
		s.prices = append(s.prices, 0)
		copy(s.prices[i+1:], s.prices[i:])
		s.prices[i] = o.cents
	}
	s.levels[o.cents] = append(s.levels[o.cents], o)
}

func (s *bookSide) remove(o *bookOrder) {
	level := s.levels[o.cents]
	for i, resting := range level {
		if resting == o {
			level = append(level[:i], level[i+1:]...)
			break
		}
	}
	if len(level) > 0 {
		s.levels[o.cents] = level
		return
	}
	delete(s.levels, o.cents)
	i := sort.Search(len(s.prices), func(i int) bool { return !s.better(s.prices[i], o.cents) })
	if i < len(s.prices) && s.prices[i] == o.cents {
		s.prices = append(s.prices[:i], s.prices[i+1:]...)
	}
}

// crosses reports whether an order at cents on the other side would trade
// with this side's best level
func (s *bookSide) crosses(cents int64) bool {
	return !s.empty() && !s.better(cents, s.best())
}

// available sums the quantity an order at cents could trade against
func (s *bookSide) available(cents int64) int64 {
	var total int64
	for _, price := range s.prices {
		if s.better(cents, price) {
			break
		}
		for _, o := range s.levels[price] {
			total += int64(o.remaining)
		}
	}
	return total
}

// quantities lists each level's total remaining quantity, best first. A total
// beyond the int32 wire range is reported as math.MaxInt32.
func (s *bookSide) quantities() (prices []int64, quantities []int32) {
	for _, price := range s.prices {
		var total int64
		for _, o := range s.levels[price] {
			total += int64(o.remaining)
		}
		if total > math.MaxInt32 {
			total = math.MaxInt32
		}
		prices = append(prices, price)
		quantities = append(quantities, int32(total))
	}
	return prices, quantities
}

// orderBook matches orders by price then time priority. It is not safe for
// concurrent use.
type orderBook struct {
	orders map[int32]*bookOrder
	bids   *bookSide
	asks   *bookSide
}

func newOrderBook() *orderBook {
	return &orderBook{
		orders: make(map[int32]*bookOrder),
		bids:   newBookSide(func(a, b int64) bool { return a > b }),
		asks:   newBookSide(func(a, b int64) bool { return a < b }),
	}
}

func (b *orderBook) side(s Side) *bookSide {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

func (b *orderBook) opposite(s Side) *bookSide {
	if s == Buy {
		return b.asks
	}
	return b.bids
}

// add places o and matches the book. It returns the number of trades. Orders
// that cannot trade at all are dropped when their type does not allow resting:
// FillAndKill without a crossing level, FillOrKill without enough quantity,
// and Market with an empty opposite side. After matching, whatever is left of
// an order that may not rest is cancelled.
func (b *orderBook) add(o *bookOrder) int {
	opposite := b.opposite(o.side)
	switch o.orderType {
	case Market:
		if opposite.empty() {
			return 0
		}
		// trade through every level the opposite side has
		o.cents = opposite.worst()
	case FillAndKill:
		if !opposite.crosses(o.cents) {
			return 0
		}
	case FillOrKill:
		if opposite.available(o.cents) < int64(o.remaining) {
			return 0
		}
	}

	b.orders[o.id] = o
	b.side(o.side).push(o)
	trades := b.match()

	switch o.orderType {
	case Market, FillAndKill, FillOrKill:
		if o.remaining > 0 {
			b.cancel(o.id)
		}
	}
	return trades
}

func (b *orderBook) match() int {
	trades := 0
	for !b.bids.empty() && !b.asks.empty() {
		bidPrice, askPrice := b.bids.best(), b.asks.best()
		if bidPrice < askPrice {
			break
		}
		bid := b.bids.levels[bidPrice][0]
		ask := b.asks.levels[askPrice][0]

		quantity := min(bid.remaining, ask.remaining)
		bid.remaining -= quantity
		ask.remaining -= quantity
		trades++

		if bid.remaining == 0 {
			b.cancel(bid.id)
		}
		if ask.remaining == 0 {
			b.cancel(ask.id)
		}
	}
	return trades
}

// cancel removes the order if it is in the book
func (b *orderBook) cancel(id int32) {
	o, ok := b.orders[id]
	if !ok {
		return
	}
	delete(b.orders, id)
	b.side(o.side).remove(o)
}
