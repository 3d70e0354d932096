package schema

import (
	"fmt"
)

// WireType represents protobuf wire format types
type WireType int32

const (
	WireVarint  WireType = 0 // int32, bool
	WireFixed64 WireType = 1 // double
	WireBytes   WireType = 2 // string, embedded messages
)

func (w WireType) String() string {
	switch w {
	case WireVarint:
		return "varint"
	case WireFixed64:
		return "fixed64"
	case WireBytes:
		return "bytes"
	default:
		return fmt.Sprintf("wiretype(%d)", int32(w))
	}
}

// FieldNumber represents a protobuf field number
type FieldNumber int32

// MaxFieldNumber is the largest field number the tag encoding can carry.
const MaxFieldNumber FieldNumber = 1<<29 - 1

// Kind represents the value kind stored in a field
type Kind string

const (
	KindInt32   Kind = "int32"
	KindDouble  Kind = "double"
	KindString  Kind = "string"
	KindBool    Kind = "bool"
	KindMessage Kind = "message"
)

// WireType returns the wire type a value of this kind is encoded with.
func (k Kind) WireType() WireType {
	switch k {
	case KindDouble:
		return WireFixed64
	case KindString, KindMessage:
		return WireBytes
	default:
		return WireVarint
	}
}

// FieldDescriptor represents a message field
type FieldDescriptor struct {
	Name        string             `json:"name"`                   // "order_id"
	Number      FieldNumber        `json:"number"`                 // 1
	WireType    WireType           `json:"wire_type"`              // varint, fixed64, bytes
	Kind        Kind               `json:"kind"`                   // int32, double, string, bool, message
	Repeated    bool               `json:"repeated"`               // repeated label
	MessageType *MessageDescriptor `json:"message_type,omitempty"` // for message kinds: "PriceLevel"
}

// MessageDescriptor represents a message definition. Fields keep their
// declaration order, which is the order the encoder writes them in.
type MessageDescriptor struct {
	Name   string             `json:"name"`   // "AddOrderRequest"
	Fields []*FieldDescriptor `json:"fields"` // message fields

	byNumber map[FieldNumber]*FieldDescriptor
	byName   map[string]*FieldDescriptor
}

// NewMessageDescriptor validates the field table and builds the lookup index.
func NewMessageDescriptor(name string, fields ...*FieldDescriptor) (*MessageDescriptor, error) {
	if name == "" {
		return nil, fmt.Errorf("message descriptor requires a name")
	}
	md := &MessageDescriptor{
		Name:     name,
		Fields:   fields,
		byNumber: make(map[FieldNumber]*FieldDescriptor, len(fields)),
		byName:   make(map[string]*FieldDescriptor, len(fields)),
	}
	for _, f := range fields {
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("message %s: %w", name, err)
		}
		if _, dup := md.byNumber[f.Number]; dup {
			return nil, fmt.Errorf("message %s: duplicate field number %d", name, f.Number)
		}
		if _, dup := md.byName[f.Name]; dup {
			return nil, fmt.Errorf("message %s: duplicate field name %q", name, f.Name)
		}
		md.byNumber[f.Number] = f
		md.byName[f.Name] = f
	}
	return md, nil
}

// MustMessageDescriptor is like NewMessageDescriptor but panics on an invalid table.
func MustMessageDescriptor(name string, fields ...*FieldDescriptor) *MessageDescriptor {
	md, err := NewMessageDescriptor(name, fields...)
	if err != nil {
		panic(err)
	}
	return md
}

// Field looks up a field by number.
func (m *MessageDescriptor) Field(n FieldNumber) (*FieldDescriptor, bool) {
	f, ok := m.byNumber[n]
	return f, ok
}

// FieldByName looks up a field by its declared name.
func (m *MessageDescriptor) FieldByName(name string) (*FieldDescriptor, bool) {
	f, ok := m.byName[name]
	return f, ok
}

func (f *FieldDescriptor) validate() error {
	if f == nil {
		return fmt.Errorf("nil field")
	}
	if f.Name == "" {
		return fmt.Errorf("field %d has no name", f.Number)
	}
	if f.Number <= 0 || f.Number > MaxFieldNumber {
		return fmt.Errorf("field %s: number %d out of range", f.Name, f.Number)
	}
	switch f.Kind {
	case KindInt32, KindDouble, KindString, KindBool:
		if f.Repeated {
			return fmt.Errorf("field %s: repeated %s fields are not supported", f.Name, f.Kind)
		}
		if f.MessageType != nil {
			return fmt.Errorf("field %s: scalar kind %s cannot reference a message", f.Name, f.Kind)
		}
	case KindMessage:
		if f.MessageType == nil {
			return fmt.Errorf("field %s: message kind without message type", f.Name)
		}
	default:
		return fmt.Errorf("field %s: unknown kind %q", f.Name, f.Kind)
	}
	if f.WireType != f.Kind.WireType() {
		return fmt.Errorf("field %s: wire type %s does not match kind %s", f.Name, f.WireType, f.Kind)
	}
	return nil
}

// Scalar builds a non-repeated scalar field, deriving the wire type from the kind.
func Scalar(name string, number FieldNumber, kind Kind) *FieldDescriptor {
	return &FieldDescriptor{
		Name:     name,
		Number:   number,
		WireType: kind.WireType(),
		Kind:     kind,
	}
}

// RepeatedMessage builds a repeated embedded-message field.
func RepeatedMessage(name string, number FieldNumber, msg *MessageDescriptor) *FieldDescriptor {
	return &FieldDescriptor{
		Name:        name,
		Number:      number,
		WireType:    WireBytes,
		Kind:        KindMessage,
		Repeated:    true,
		MessageType: msg,
	}
}

// Service represents a service definition
type Service struct {
	Name    string    `json:"name"`    // "OrderBookService"
	Methods []*Method `json:"methods"` // service methods
}

// Method represents a unary service method
type Method struct {
	Name       string `json:"name"`        // "AddOrder"
	InputType  string `json:"input_type"`  // "AddOrderRequest"
	OutputType string `json:"output_type"` // "OrderResponse"
}
