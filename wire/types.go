package wire

import (
	"github.com/anirudhraja/orderwire/schema"
)

// ===== PROTOBUF WIRE FORMAT TYPES =====

// WireType represents protobuf wire format types
type WireType = schema.WireType

const (
	WireVarint  = schema.WireVarint  // int32, bool
	WireFixed64 = schema.WireFixed64 // double
	WireBytes   = schema.WireBytes   // string, embedded messages
	// WireFixed32 carries no field of this schema; it is only recognized so
	// that such fields can be skipped.
	WireFixed32 WireType = 5
)

// FieldNumber represents a protobuf field number
type FieldNumber = schema.FieldNumber

// Tag represents a protobuf field tag (field number + wire type)
type Tag uint64

// MakeTag creates a tag from field number and wire type
func MakeTag(fieldNumber FieldNumber, wireType WireType) Tag {
	return Tag(uint64(fieldNumber)<<3 | uint64(wireType))
}

// ParseTag parses a tag into field number and wire type
func ParseTag(tag Tag) (FieldNumber, WireType) {
	return FieldNumber(tag >> 3), WireType(tag & 0x7)
}

// validWireType reports whether the decoder knows how to step over a value of this wire type.
func validWireType(wt WireType) bool {
	switch wt {
	case WireVarint, WireFixed64, WireBytes, WireFixed32:
		return true
	default:
		return false
	}
}
