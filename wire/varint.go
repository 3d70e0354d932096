package wire

// MaxVarintLen is the longest encoding of a 64-bit varint.
const MaxVarintLen = 10

// AppendVarint appends v to b as a base-128 varint, low-order group first.
func AppendVarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

// ConsumeVarint parses a varint from the front of b and reports how many
// bytes it occupied.
func ConsumeVarint(b []byte) (uint64, int, error) {
	var v uint64
	for i := 0; i < MaxVarintLen; i++ {
		if i >= len(b) {
			return 0, 0, ErrTruncatedInput
		}
		c := b[i]
		// The tenth byte may only contribute the single remaining bit.
		if i == MaxVarintLen-1 && c > 1 {
			return 0, 0, ErrMalformedVarint
		}
		v |= uint64(c&0x7F) << (7 * uint(i))
		if c < 0x80 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrMalformedVarint
}

// VarintSize returns the number of bytes needed to encode the given varint
func VarintSize(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// DECODER METHODS

// DecodeVarint decodes a varint from the current position
func (d *Decoder) DecodeVarint() (uint64, error) {
	v, n, err := ConsumeVarint(d.buf[d.pos:])
	if err != nil {
		return 0, err
	}
	d.pos += n
	return v, nil
}

// DecodeInt32 decodes a varint as int32, keeping the low 32 bits.
func (d *Decoder) DecodeInt32() (int32, error) {
	v, err := d.DecodeVarint()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// DecodeBool decodes a varint as bool
func (d *Decoder) DecodeBool() (bool, error) {
	v, err := d.DecodeVarint()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// SkipVarint skips over a varint without decoding it
func (d *Decoder) SkipVarint() error {
	_, err := d.DecodeVarint()
	return err
}

// ENCODER METHODS

// EncodeVarint encodes a uint64 as varint
func (e *Encoder) EncodeVarint(v uint64) {
	e.buf = AppendVarint(e.buf, v)
}

// EncodeInt32 sign-extends v to 64 bits and encodes it as a plain varint.
// Negative values therefore always take ten bytes; there is no zigzag step.
func (e *Encoder) EncodeInt32(v int32) {
	e.EncodeVarint(uint64(int64(v)))
}

// EncodeBool encodes a bool as varint
func (e *Encoder) EncodeBool(v bool) {
	if v {
		e.EncodeVarint(1)
	} else {
		e.EncodeVarint(0)
	}
}

// EncodeTag encodes a field tag
func (e *Encoder) EncodeTag(fieldNumber FieldNumber, wireType WireType) {
	e.EncodeVarint(uint64(MakeTag(fieldNumber, wireType)))
}
