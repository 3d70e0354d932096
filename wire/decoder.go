package wire

import (
	"fmt"

	"github.com/anirudhraja/orderwire/schema"
)

// Decoder handles low-level protobuf wire format decoding
type Decoder struct {
	buf []byte
	pos int
	cfg Config
}

// NewDecoder creates a new wire format decoder using the global config
func NewDecoder(data []byte) *Decoder {
	return NewDecoderWithConfig(data, CurrentConfig())
}

// NewDecoderWithConfig creates a decoder with an explicit config
func NewDecoderWithConfig(data []byte, cfg Config) *Decoder {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &Decoder{
		buf: data,
		pos: 0,
		cfg: cfg,
	}
}

// Remaining returns the number of unread bytes
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// DecodeMessage decodes protobuf bytes using schema - main entry point
func DecodeMessage(data []byte, desc *schema.MessageDescriptor) (*Message, error) {
	decoder := NewDecoder(data)
	return decoder.DecodeWithSchema(desc)
}

// DecodeWithSchema decodes the rest of the input as one message. The result is
// all or nothing: on error no message is returned. The returned message holds
// no reference into the input.
func (d *Decoder) DecodeWithSchema(desc *schema.MessageDescriptor) (*Message, error) {
	msg, err := d.decodeMessage(desc, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to decode message %s: %w", desc.Name, err)
	}
	return msg, nil
}

func (d *Decoder) decodeMessage(desc *schema.MessageDescriptor, depth int) (*Message, error) {
	if depth > d.cfg.MaxDepth {
		return nil, ErrMaxDepth
	}

	msg := NewMessage(desc)
	for d.pos < len(d.buf) {
		fieldNumber, wireType, err := d.DecodeTag()
		if err != nil {
			return nil, err
		}

		field, ok := desc.Field(fieldNumber)
		if !ok || field.WireType != wireType {
			// Unknown field, or a known number carrying another wire type: skip it
			if err := d.skipField(wireType); err != nil {
				return nil, fmt.Errorf("failed to skip field %d: %w", fieldNumber, err)
			}
			continue
		}

		if err := d.decodeField(msg, field, depth); err != nil {
			return nil, WrapFieldError(err, field.Name)
		}
	}
	return msg, nil
}

// DecodeTag reads a field tag and rejects numbers and wire types that cannot be stepped over
func (d *Decoder) DecodeTag() (FieldNumber, WireType, error) {
	tag, err := d.DecodeVarint()
	if err != nil {
		return 0, 0, err
	}
	if n := tag >> 3; n == 0 || n > uint64(schema.MaxFieldNumber) {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidFieldNumber, n)
	}
	fieldNumber, wireType := ParseTag(Tag(tag))
	if !validWireType(wireType) {
		return 0, 0, fmt.Errorf("%w %d for field %d", ErrInvalidWireType, wireType, fieldNumber)
	}
	return fieldNumber, wireType, nil
}

// decodeField decodes one occurrence of a recognized field into msg
func (d *Decoder) decodeField(msg *Message, field *schema.FieldDescriptor, depth int) error {
	switch field.Kind {
	case schema.KindInt32:
		v, err := d.DecodeInt32()
		if err != nil {
			return err
		}
		msg.store(field, v)
	case schema.KindBool:
		v, err := d.DecodeBool()
		if err != nil {
			return err
		}
		msg.store(field, v)
	case schema.KindDouble:
		v, err := d.DecodeDouble()
		if err != nil {
			return err
		}
		msg.store(field, v)
	case schema.KindString:
		v, err := d.DecodeString()
		if err != nil {
			return err
		}
		msg.store(field, v)
	case schema.KindMessage:
		raw, err := d.DecodeRawBytes()
		if err != nil {
			return err
		}
		nested := &Decoder{buf: raw, cfg: d.cfg}
		elem, err := nested.decodeMessage(field.MessageType, depth+1)
		if err != nil {
			return err
		}
		if field.Repeated {
			msg.appendValue(field, elem)
		} else {
			msg.store(field, elem)
		}
	default:
		return fmt.Errorf("unsupported field kind: %s", field.Kind)
	}
	return nil
}

// skipField skips a field based on wire type
func (d *Decoder) skipField(wireType WireType) error {
	switch wireType {
	case WireVarint:
		return d.SkipVarint()
	case WireFixed64:
		return d.skipFixed(Fixed64Size)
	case WireBytes:
		return d.SkipBytes()
	case WireFixed32:
		return d.skipFixed(Fixed32Size)
	default:
		return fmt.Errorf("%w %d", ErrInvalidWireType, wireType)
	}
}

// RawField is one undecoded tag/value pair
type RawField struct {
	FieldNumber FieldNumber
	WireType    WireType
	Data        []byte // value bytes after the tag, including any length prefix; copied
}

// DecodeRawFields splits data into its tag/value pairs without a schema.
func DecodeRawFields(data []byte) ([]RawField, error) {
	d := NewDecoder(data)
	var fields []RawField
	for d.pos < len(d.buf) {
		fieldNumber, wireType, err := d.DecodeTag()
		if err != nil {
			return nil, err
		}
		start := d.pos
		if err := d.skipField(wireType); err != nil {
			return nil, fmt.Errorf("failed to skip field %d: %w", fieldNumber, err)
		}
		fields = append(fields, RawField{
			FieldNumber: fieldNumber,
			WireType:    wireType,
			Data:        append([]byte(nil), d.buf[start:d.pos]...),
		})
	}
	return fields, nil
}
