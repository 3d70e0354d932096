package wire

import (
	"unicode/utf8"
)

// DECODER METHODS

// decodeLength reads a length prefix and checks it against the remaining input
func (d *Decoder) decodeLength() (int, error) {
	length, err := d.DecodeVarint()
	if err != nil {
		return 0, err
	}
	if length > uint64(len(d.buf)-d.pos) {
		return 0, ErrLengthMismatch
	}
	return int(length), nil
}

// DecodeRawBytes decodes a length-delimited value without copying (shares buffer)
func (d *Decoder) DecodeRawBytes() ([]byte, error) {
	length, err := d.decodeLength()
	if err != nil {
		return nil, err
	}

	data := d.buf[d.pos : d.pos+length]
	d.pos += length
	return data, nil
}

// DecodeString decodes a length-delimited UTF-8 string. The result never
// aliases the input buffer.
func (d *Decoder) DecodeString() (string, error) {
	data, err := d.DecodeRawBytes()
	if err != nil {
		return "", err
	}
	if !d.cfg.SkipUTF8Validation && !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}
	return string(data), nil
}

// SkipBytes skips over a length-delimited value
func (d *Decoder) SkipBytes() error {
	length, err := d.decodeLength()
	if err != nil {
		return err
	}
	d.pos += length
	return nil
}

// ENCODER METHODS

// EncodeBytes encodes a byte array as length-delimited
func (e *Encoder) EncodeBytes(data []byte) {
	e.EncodeVarint(uint64(len(data)))
	e.buf = append(e.buf, data...)
}

// EncodeString encodes a string as length-delimited bytes
func (e *Encoder) EncodeString(s string) {
	e.EncodeVarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// BytesSize returns the size needed to encode the given bytes
func BytesSize(n int) int {
	return VarintSize(uint64(n)) + n
}
