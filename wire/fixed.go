package wire

import (
	"encoding/binary"
	"math"
)

// Fixed64Size is the encoded size of a fixed64 value
const Fixed64Size = 8

// Fixed32Size is the encoded size of a fixed32 value
const Fixed32Size = 4

// DECODER METHODS

// DecodeFixed64 decodes a 64-bit little-endian value
func (d *Decoder) DecodeFixed64() (uint64, error) {
	if len(d.buf)-d.pos < Fixed64Size {
		return 0, ErrTruncatedInput
	}

	value := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += Fixed64Size
	return value, nil
}

// DecodeDouble decodes an IEEE-754 double from fixed64 data
func (d *Decoder) DecodeDouble() (float64, error) {
	v, err := d.DecodeFixed64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// skipFixed advances past n bytes of fixed-width data
func (d *Decoder) skipFixed(n int) error {
	if len(d.buf)-d.pos < n {
		return ErrTruncatedInput
	}
	d.pos += n
	return nil
}

// ENCODER METHODS

// EncodeFixed64 encodes a 64-bit little-endian value
func (e *Encoder) EncodeFixed64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// EncodeDouble encodes a double as fixed64
func (e *Encoder) EncodeDouble(v float64) {
	e.EncodeFixed64(math.Float64bits(v))
}
