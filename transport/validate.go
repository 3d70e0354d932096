package transport

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/anirudhraja/orderwire"
)

// Validation errors returned by ValidateAddOrder.
var (
	ErrInvalidOrderType = errors.New("invalid order type")
	ErrInvalidSide      = errors.New("invalid side")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidPrice     = errors.New("price must be positive")
	ErrPriceOutOfRange  = errors.New("price out of range")
)

// MaxPrice is the highest accepted price. Prices are held as int64 cents.
const MaxPrice = 1e15

// Order types accepted by AddOrder.
const (
	GoodTillCancel = "GoodTillCancel"
	FillAndKill    = "FillAndKill"
	FillOrKill     = "FillOrKill"
	GoodForDay     = "GoodForDay"
	Market         = "Market"
)

// Side of an order after normalization.
type Side int

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// ParseSide accepts "buy" and "sell" in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(s) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

// ValidateAddOrder checks an order before it reaches the book. Order types
// are case sensitive, sides are not. Market orders may omit the price; any
// other order needs a price of at least one cent.
func ValidateAddOrder(req *orderwire.AddOrderRequest) error {
	switch req.OrderType() {
	case GoodTillCancel, FillAndKill, FillOrKill, GoodForDay, Market:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrderType, req.OrderType())
	}
	if _, err := ParseSide(req.Side()); err != nil {
		return err
	}
	if req.Quantity() <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, req.Quantity())
	}
	price := req.Price()
	if math.IsNaN(price) || math.IsInf(price, 0) || math.Abs(price) > MaxPrice {
		return fmt.Errorf("%w: %v", ErrPriceOutOfRange, price)
	}
	if req.OrderType() != Market && priceToCents(price) < 1 {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	return nil
}
