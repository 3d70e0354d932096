package wire

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/anirudhraja/orderwire/schema"
)

// Message is a descriptor-backed message instance. Only fields holding a
// non-default value are stored, so an absent field and a field explicitly set
// to its zero value are indistinguishable.
//
// Values are int32, float64, string, bool, *Message (singular embedded) or
// []*Message (repeated embedded), according to the field's kind.
type Message struct {
	desc   *schema.MessageDescriptor
	values map[FieldNumber]interface{}
	frozen atomic.Bool
}

// NewMessage creates an empty message with every field at its default
func NewMessage(desc *schema.MessageDescriptor) *Message {
	return &Message{
		desc:   desc,
		values: make(map[FieldNumber]interface{}),
	}
}

// Descriptor returns the message's schema
func (m *Message) Descriptor() *schema.MessageDescriptor { return m.desc }

// Freeze makes the message and every embedded message read-only. It is safe
// to call from several goroutines; only the first walks the embedded messages.
func (m *Message) Freeze() {
	if !m.frozen.CompareAndSwap(false, true) {
		return
	}
	for _, v := range m.values {
		switch t := v.(type) {
		case *Message:
			t.Freeze()
		case []*Message:
			for _, elem := range t {
				elem.Freeze()
			}
		}
	}
}

// Frozen reports whether the message has been frozen
func (m *Message) Frozen() bool { return m.frozen.Load() }

// Clone returns an unfrozen deep copy
func (m *Message) Clone() *Message {
	c := NewMessage(m.desc)
	for num, v := range m.values {
		switch t := v.(type) {
		case *Message:
			c.values[num] = t.Clone()
		case []*Message:
			elems := make([]*Message, len(t))
			for i, elem := range t {
				elems[i] = elem.Clone()
			}
			c.values[num] = elems
		default:
			c.values[num] = v
		}
	}
	return c
}

// Has reports whether the field holds a non-default value
func (m *Message) Has(num FieldNumber) bool {
	_, ok := m.values[num]
	return ok
}

// ===== SETTERS =====

// Set replaces a field's value after checking it against the descriptor.
// Setting a default value clears the field.
func (m *Message) Set(num FieldNumber, value interface{}) error {
	if m.frozen.Load() {
		return ErrFrozen
	}
	f, ok := m.desc.Field(num)
	if !ok {
		return fmt.Errorf("%w %d in %s", ErrUnknownField, num, m.desc.Name)
	}
	if err := checkValue(f, value); err != nil {
		return WrapFieldError(err, f.Name)
	}
	if f.Repeated {
		// Copy so later changes to the caller's slice cannot reach a frozen message.
		elems := value.([]*Message)
		value = append([]*Message(nil), elems...)
	}
	m.store(f, value)
	return nil
}

// SetInt32 sets an int32 field
func (m *Message) SetInt32(num FieldNumber, v int32) error { return m.Set(num, v) }

// SetDouble sets a double field
func (m *Message) SetDouble(num FieldNumber, v float64) error { return m.Set(num, v) }

// SetString sets a string field
func (m *Message) SetString(num FieldNumber, v string) error { return m.Set(num, v) }

// SetBool sets a bool field
func (m *Message) SetBool(num FieldNumber, v bool) error { return m.Set(num, v) }

// Append adds an element to the end of a repeated message field
func (m *Message) Append(num FieldNumber, elem *Message) error {
	if m.frozen.Load() {
		return ErrFrozen
	}
	f, ok := m.desc.Field(num)
	if !ok {
		return fmt.Errorf("%w %d in %s", ErrUnknownField, num, m.desc.Name)
	}
	if !f.Repeated {
		return WrapFieldError(fmt.Errorf("%w: field is not repeated", ErrTypeMismatch), f.Name)
	}
	if err := checkElement(f, elem); err != nil {
		return WrapFieldError(err, f.Name)
	}
	m.appendValue(f, elem)
	return nil
}

// store writes a checked value, dropping defaults
func (m *Message) store(f *schema.FieldDescriptor, value interface{}) {
	if isDefault(value) {
		delete(m.values, f.Number)
		return
	}
	m.values[f.Number] = value
}

func (m *Message) appendValue(f *schema.FieldDescriptor, elem *Message) {
	elems, _ := m.values[f.Number].([]*Message)
	m.values[f.Number] = append(elems, elem)
}

// ===== GETTERS =====

// GetInt32 returns the stored value or 0
func (m *Message) GetInt32(num FieldNumber) int32 {
	v, _ := m.values[num].(int32)
	return v
}

// GetDouble returns the stored value or 0.0
func (m *Message) GetDouble(num FieldNumber) float64 {
	v, _ := m.values[num].(float64)
	return v
}

// GetString returns the stored value or ""
func (m *Message) GetString(num FieldNumber) string {
	v, _ := m.values[num].(string)
	return v
}

// GetBool returns the stored value or false
func (m *Message) GetBool(num FieldNumber) bool {
	v, _ := m.values[num].(bool)
	return v
}

// GetMessage returns a singular embedded message, or nil when unset
func (m *Message) GetMessage(num FieldNumber) *Message {
	v, _ := m.values[num].(*Message)
	return v
}

// GetRepeated returns the elements of a repeated message field in order.
// The returned slice is a copy; the elements are shared.
func (m *Message) GetRepeated(num FieldNumber) []*Message {
	v, _ := m.values[num].([]*Message)
	if len(v) == 0 {
		return nil
	}
	return append([]*Message(nil), v...)
}

// Get returns the field's value, or the kind's default when unset
func (m *Message) Get(num FieldNumber) (interface{}, error) {
	f, ok := m.desc.Field(num)
	if !ok {
		return nil, fmt.Errorf("%w %d in %s", ErrUnknownField, num, m.desc.Name)
	}
	if v, ok := m.values[num]; ok {
		return v, nil
	}
	return defaultValue(f), nil
}

// Range calls fn for every non-default field in descriptor order until fn returns false.
func (m *Message) Range(fn func(f *schema.FieldDescriptor, value interface{}) bool) {
	for _, f := range m.desc.Fields {
		v, ok := m.values[f.Number]
		if !ok {
			continue
		}
		if !fn(f, v) {
			return
		}
	}
}

// Equal reports whether both messages share a descriptor and hold the same
// field values. Doubles compare by bit pattern.
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.desc != other.desc || len(m.values) != len(other.values) {
		return false
	}
	for num, v := range m.values {
		ov, ok := other.values[num]
		if !ok || !valuesEqual(v, ov) {
			return false
		}
	}
	return true
}

// ===== HELPERS =====

func checkValue(f *schema.FieldDescriptor, value interface{}) error {
	if f.Repeated {
		elems, ok := value.([]*Message)
		if !ok {
			return fmt.Errorf("%w: repeated field value must be []*wire.Message, got %T", ErrTypeMismatch, value)
		}
		for _, elem := range elems {
			if err := checkElement(f, elem); err != nil {
				return err
			}
		}
		return nil
	}

	ok := false
	switch f.Kind {
	case schema.KindInt32:
		_, ok = value.(int32)
	case schema.KindDouble:
		_, ok = value.(float64)
	case schema.KindString:
		_, ok = value.(string)
	case schema.KindBool:
		_, ok = value.(bool)
	case schema.KindMessage:
		var elem *Message
		if elem, ok = value.(*Message); ok && elem != nil {
			return checkElement(f, elem)
		}
	}
	if !ok {
		return fmt.Errorf("%w: expected %s, got %T", ErrTypeMismatch, f.Kind, value)
	}
	return nil
}

func checkElement(f *schema.FieldDescriptor, elem *Message) error {
	if elem == nil {
		return fmt.Errorf("%w: nil %s element", ErrTypeMismatch, f.MessageType.Name)
	}
	if elem.desc != f.MessageType {
		return fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, f.MessageType.Name, elem.desc.Name)
	}
	return nil
}

// isDefault reports whether the value would be elided on the wire. Negative
// zero is kept, matching protobuf's bit-pattern check for doubles.
func isDefault(value interface{}) bool {
	switch v := value.(type) {
	case int32:
		return v == 0
	case float64:
		return math.Float64bits(v) == 0
	case string:
		return v == ""
	case bool:
		return !v
	case *Message:
		return v == nil
	case []*Message:
		return len(v) == 0
	default:
		return value == nil
	}
}

func defaultValue(f *schema.FieldDescriptor) interface{} {
	if f.Repeated {
		return []*Message(nil)
	}
	switch f.Kind {
	case schema.KindInt32:
		return int32(0)
	case schema.KindDouble:
		return float64(0)
	case schema.KindString:
		return ""
	case schema.KindBool:
		return false
	default:
		return (*Message)(nil)
	}
}

func valuesEqual(a, b interface{}) bool {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && math.Float64bits(x) == math.Float64bits(y)
	case *Message:
		y, ok := b.(*Message)
		return ok && x.Equal(y)
	case []*Message:
		y, ok := b.([]*Message)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !x[i].Equal(y[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
