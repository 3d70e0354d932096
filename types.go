package orderwire

import (
	"fmt"
	"strings"

	"github.com/anirudhraja/orderwire/schema"
	"github.com/anirudhraja/orderwire/wire"
)

// MessageType identifies one of the order book message schemas.
type MessageType int

const (
	TypeAddOrderRequest MessageType = iota + 1
	TypeCancelOrderRequest
	TypeGetOrderBookRequest
	TypeOrderResponse
	TypePriceLevel
	TypeOrderBookResponse
)

var messageTypes = map[MessageType]*schema.MessageDescriptor{
	TypeAddOrderRequest:     schema.AddOrderRequest,
	TypeCancelOrderRequest:  schema.CancelOrderRequest,
	TypeGetOrderBookRequest: schema.GetOrderBookRequest,
	TypeOrderResponse:       schema.OrderResponse,
	TypePriceLevel:          schema.PriceLevel,
	TypeOrderBookResponse:   schema.OrderBookResponse,
}

// Descriptor returns the schema for t, or nil for an unknown type.
func (t MessageType) Descriptor() *schema.MessageDescriptor {
	return messageTypes[t]
}

func (t MessageType) String() string {
	if desc, ok := messageTypes[t]; ok {
		return desc.Name
	}
	return fmt.Sprintf("MessageType(%d)", int(t))
}

// ParseMessageType maps a message name, with or without the package prefix,
// to its MessageType.
func ParseMessageType(name string) (MessageType, error) {
	name = strings.TrimPrefix(name, schema.OrderBookPackage+".")
	for t, desc := range messageTypes {
		if desc.Name == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown message type: %s", name)
}

// Message is implemented by the typed order book messages.
type Message interface {
	// Type reports which schema the message follows.
	Type() MessageType
	// Wire returns the underlying descriptor-backed instance.
	Wire() *wire.Message

	setWire(*wire.Message)
}

// NewMessage returns an empty typed message of type t.
func NewMessage(t MessageType) (Message, error) {
	switch t {
	case TypeAddOrderRequest:
		return NewAddOrderRequest(), nil
	case TypeCancelOrderRequest:
		return NewCancelOrderRequest(), nil
	case TypeGetOrderBookRequest:
		return NewGetOrderBookRequest(), nil
	case TypeOrderResponse:
		return NewOrderResponse(), nil
	case TypePriceLevel:
		return NewPriceLevel(), nil
	case TypeOrderBookResponse:
		return NewOrderBookResponse(), nil
	default:
		return nil, fmt.Errorf("unknown message type: %s", t)
	}
}

// Encode serializes m. The message is frozen afterwards.
func Encode(m Message) ([]byte, error) {
	return wire.EncodeMessage(m.Wire())
}

// Decode parses data as a message of type t.
func Decode(data []byte, t MessageType) (Message, error) {
	desc := t.Descriptor()
	if desc == nil {
		return nil, fmt.Errorf("unknown message type: %s", t)
	}
	decoded, err := wire.DecodeMessage(data, desc)
	if err != nil {
		return nil, err
	}
	m, _ := NewMessage(t)
	m.setWire(decoded)
	return m, nil
}

// DecodeInto parses data into m, replacing its contents. On error m is left
// unchanged.
func DecodeInto(data []byte, m Message) error {
	decoded, err := wire.DecodeMessage(data, m.Type().Descriptor())
	if err != nil {
		return err
	}
	m.setWire(decoded)
	return nil
}

// mustSet panics on a setter error. Typed setters only fail when the
// message has been frozen by Encode.
func mustSet(err error) {
	if err != nil {
		panic(err)
	}
}

// lazyWire returns *msg, creating an empty instance of desc first if needed
func lazyWire(msg **wire.Message, desc *schema.MessageDescriptor) *wire.Message {
	if *msg == nil {
		*msg = wire.NewMessage(desc)
	}
	return *msg
}
