package orderwire

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/anirudhraja/orderwire/schema"
	"github.com/anirudhraja/orderwire/wire"
)

// ToMap converts msg into a map keyed by field name. Only fields holding a
// non-default value are included; repeated messages become []interface{}.
func ToMap(msg *wire.Message) map[string]interface{} {
	out := make(map[string]interface{})
	msg.Range(func(f *schema.FieldDescriptor, value interface{}) bool {
		switch v := value.(type) {
		case []*wire.Message:
			elems := make([]interface{}, len(v))
			for i, elem := range v {
				elems[i] = ToMap(elem)
			}
			out[f.Name] = elems
		case *wire.Message:
			out[f.Name] = ToMap(v)
		default:
			out[f.Name] = v
		}
		return true
	})
	return out
}

// FromMap builds a message of type desc from a map keyed by field name.
// Values may be Go native types or what encoding/json produces.
func FromMap(data map[string]interface{}, desc *schema.MessageDescriptor) (*wire.Message, error) {
	msg := wire.NewMessage(desc)
	for name, value := range data {
		field, ok := desc.FieldByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", wire.ErrUnknownField, desc.Name, name)
		}
		converted, err := convertValue(field, value)
		if err != nil {
			return nil, wire.WrapFieldError(err, name)
		}
		if err := msg.Set(field.Number, converted); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func convertValue(field *schema.FieldDescriptor, value interface{}) (interface{}, error) {
	if field.Repeated {
		list, ok := value.([]interface{})
		if !ok {
			if maps, ok := value.([]map[string]interface{}); ok {
				list = make([]interface{}, len(maps))
				for i, m := range maps {
					list[i] = m
				}
			} else {
				return nil, fmt.Errorf("%w: expected list, got %T", wire.ErrTypeMismatch, value)
			}
		}
		elems := make([]*wire.Message, len(list))
		for i, item := range list {
			elem, err := convertMessage(field.MessageType, item)
			if err != nil {
				return nil, err
			}
			elems[i] = elem
		}
		return elems, nil
	}

	switch field.Kind {
	case schema.KindInt32:
		return toInt32(value)
	case schema.KindDouble:
		return toFloat64(value)
	case schema.KindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case schema.KindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case schema.KindMessage:
		return convertMessage(field.MessageType, value)
	}
	return nil, fmt.Errorf("%w: %s field got %T", wire.ErrTypeMismatch, field.Kind, value)
}

func convertMessage(desc *schema.MessageDescriptor, value interface{}) (*wire.Message, error) {
	switch v := value.(type) {
	case *wire.Message:
		return v, nil
	case map[string]interface{}:
		return FromMap(v, desc)
	default:
		return nil, fmt.Errorf("%w: expected %s object, got %T", wire.ErrTypeMismatch, desc.Name, value)
	}
}

func toInt32(value interface{}) (int32, error) {
	var n int64
	switch v := value.(type) {
	case int32:
		return v, nil
	case int:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %v is not an integer", wire.ErrTypeMismatch, v)
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %v overflows int32", wire.ErrTypeMismatch, v)
		}
		return int32(v), nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", wire.ErrTypeMismatch, err)
		}
		n = i
	default:
		return 0, fmt.Errorf("%w: int32 field got %T", wire.ErrTypeMismatch, value)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d overflows int32", wire.ErrTypeMismatch, n)
	}
	return int32(n), nil
}

func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", wire.ErrTypeMismatch, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: double field got %T", wire.ErrTypeMismatch, value)
	}
}
