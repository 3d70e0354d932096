package wire

import (
	"fmt"

	"github.com/anirudhraja/orderwire/schema"
)

// Encoder handles low-level protobuf wire format encoding
type Encoder struct {
	buf []byte
	cfg Config
}

// NewEncoder creates a new wire format encoder using the global config
func NewEncoder() *Encoder {
	return NewEncoderWithConfig(CurrentConfig())
}

// NewEncoderWithConfig creates an encoder with an explicit config
func NewEncoderWithConfig(cfg Config) *Encoder {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &Encoder{
		buf: make([]byte, 0),
		cfg: cfg,
	}
}

// Bytes returns the encoded bytes
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Reset clears the encoder buffer
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// EncodeMessage encodes a message using its descriptor - main entry point
func EncodeMessage(msg *Message) ([]byte, error) {
	encoder := NewEncoder()
	encoder.buf = make([]byte, 0, Size(msg))
	if err := encoder.EncodeMessage(msg); err != nil {
		return nil, err
	}
	return encoder.Bytes(), nil
}

// EncodeMessage freezes msg and appends its encoding. Fields are written in
// descriptor order; default values are never written.
func (e *Encoder) EncodeMessage(msg *Message) error {
	msg.Freeze()
	if err := e.encodeMessage(msg, 0); err != nil {
		return fmt.Errorf("failed to encode message %s: %w", msg.desc.Name, err)
	}
	return nil
}

func (e *Encoder) encodeMessage(msg *Message, depth int) error {
	if depth > e.cfg.MaxDepth {
		return ErrMaxDepth
	}

	for _, field := range msg.desc.Fields {
		value, ok := msg.values[field.Number]
		if !ok || isDefault(value) {
			continue
		}

		switch {
		case field.Repeated:
			for _, elem := range value.([]*Message) {
				if err := e.encodeEmbedded(field, elem, depth); err != nil {
					return WrapFieldError(err, field.Name)
				}
			}
		case field.Kind == schema.KindMessage:
			if err := e.encodeEmbedded(field, value.(*Message), depth); err != nil {
				return WrapFieldError(err, field.Name)
			}
		default:
			e.EncodeTag(field.Number, field.WireType)
			e.encodeScalar(field.Kind, value)
		}
	}
	return nil
}

// encodeEmbedded writes tag, length and the element's own encoding
func (e *Encoder) encodeEmbedded(field *schema.FieldDescriptor, elem *Message, depth int) error {
	nested := &Encoder{cfg: e.cfg}
	if err := nested.encodeMessage(elem, depth+1); err != nil {
		return err
	}
	e.EncodeTag(field.Number, WireBytes)
	e.EncodeBytes(nested.buf)
	return nil
}

// encodeScalar writes a value whose type was checked when it was set
func (e *Encoder) encodeScalar(kind schema.Kind, value interface{}) {
	switch kind {
	case schema.KindInt32:
		e.EncodeInt32(value.(int32))
	case schema.KindDouble:
		e.EncodeDouble(value.(float64))
	case schema.KindString:
		e.EncodeString(value.(string))
	case schema.KindBool:
		e.EncodeBool(value.(bool))
	}
}

// Size returns the encoded length of msg without encoding it
func Size(msg *Message) int {
	n := 0
	for _, field := range msg.desc.Fields {
		value, ok := msg.values[field.Number]
		if !ok || isDefault(value) {
			continue
		}
		tagSize := VarintSize(uint64(MakeTag(field.Number, field.WireType)))
		switch {
		case field.Repeated:
			for _, elem := range value.([]*Message) {
				n += tagSize + BytesSize(Size(elem))
			}
		case field.Kind == schema.KindMessage:
			n += tagSize + BytesSize(Size(value.(*Message)))
		case field.Kind == schema.KindInt32:
			n += tagSize + VarintSize(uint64(int64(value.(int32))))
		case field.Kind == schema.KindDouble:
			n += tagSize + Fixed64Size
		case field.Kind == schema.KindString:
			n += tagSize + BytesSize(len(value.(string)))
		case field.Kind == schema.KindBool:
			n += tagSize + 1
		}
	}
	return n
}
