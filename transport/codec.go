// Package transport carries order book messages over gRPC unary calls
// without generated code.
package transport

import (
	"fmt"

	"google.golang.org/protobuf/proto"

	"github.com/anirudhraja/orderwire"
)

// CodecName is the content subtype the codec is registered under. It is the
// same as the stock protobuf codec, so peers using generated code interoperate.
const CodecName = "proto"

// Codec implements encoding.Codec for orderwire messages. Generated protobuf
// messages, such as the health service's, are passed to the protobuf runtime.
type Codec struct {
	metrics *Metrics
}

// NewCodec returns a codec that records payload sizes in m. m may be nil.
func NewCodec(m *Metrics) Codec {
	return Codec{metrics: m}
}

func (c Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case orderwire.Message:
		data, err := orderwire.Encode(m)
		if err != nil {
			return nil, err
		}
		c.metrics.observePayload("marshal", m.Type(), len(data))
		return data, nil
	case proto.Message:
		return proto.Marshal(m)
	default:
		return nil, fmt.Errorf("transport: cannot marshal %T", v)
	}
}

func (c Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case orderwire.Message:
		if err := orderwire.DecodeInto(data, m); err != nil {
			return err
		}
		c.metrics.observePayload("unmarshal", m.Type(), len(data))
		return nil
	case proto.Message:
		return proto.Unmarshal(data, m)
	default:
		return fmt.Errorf("transport: cannot unmarshal into %T", v)
	}
}

func (Codec) Name() string { return CodecName }
