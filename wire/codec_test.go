package wire

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/anirudhraja/orderwire/schema"
)

func mustEncode(t *testing.T, msg *Message) []byte {
	t.Helper()
	data, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("Failed to encode %s: %v", msg.Descriptor().Name, err)
	}
	return data
}

func sampleAddOrder(t *testing.T) *Message {
	t.Helper()
	msg := NewMessage(schema.AddOrderRequest)
	for _, err := range []error{
		msg.SetInt32(1, 7),
		msg.SetString(2, "Buy"),
		msg.SetDouble(3, 100.25),
		msg.SetInt32(4, 50),
		msg.SetString(5, "GoodTillCancel"),
	} {
		if err != nil {
			t.Fatalf("populate AddOrderRequest: %v", err)
		}
	}
	return msg
}

func sampleOrderBook(t *testing.T) *Message {
	t.Helper()
	book := NewMessage(schema.OrderBookResponse)
	for _, lvl := range []struct {
		field    FieldNumber
		price    float64
		quantity int32
	}{
		{1, 100.0, 10},
		{1, 99.5, 20},
		{2, 101.0, 5},
	} {
		if err := book.Append(lvl.field, newPriceLevel(t, lvl.price, lvl.quantity)); err != nil {
			t.Fatalf("append level: %v", err)
		}
	}
	return book
}

func TestEncoder_AddOrderScenario(t *testing.T) {
	data := mustEncode(t, sampleAddOrder(t))

	var expected []byte
	expected = protowire.AppendTag(expected, 1, protowire.VarintType)
	expected = protowire.AppendVarint(expected, 7)
	expected = protowire.AppendTag(expected, 2, protowire.BytesType)
	expected = protowire.AppendString(expected, "Buy")
	expected = protowire.AppendTag(expected, 3, protowire.Fixed64Type)
	expected = protowire.AppendFixed64(expected, math.Float64bits(100.25))
	expected = protowire.AppendTag(expected, 4, protowire.VarintType)
	expected = protowire.AppendVarint(expected, 50)
	expected = protowire.AppendTag(expected, 5, protowire.BytesType)
	expected = protowire.AppendString(expected, "GoodTillCancel")

	if !bytes.Equal(data, expected) {
		t.Fatalf("encoded %x, expected %x", data, expected)
	}

	fields, err := DecodeRawFields(data)
	if err != nil {
		t.Fatalf("DecodeRawFields failed: %v", err)
	}
	if len(fields) != 5 {
		t.Fatalf("expected 5 tag/value pairs, got %d", len(fields))
	}
	for i, f := range fields {
		if f.FieldNumber != FieldNumber(i+1) {
			t.Errorf("pair %d has field number %d", i, f.FieldNumber)
		}
	}

	decoded, err := DecodeMessage(data, schema.AddOrderRequest)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if decoded.GetInt32(1) != 7 || decoded.GetString(2) != "Buy" || decoded.GetDouble(3) != 100.25 ||
		decoded.GetInt32(4) != 50 || decoded.GetString(5) != "GoodTillCancel" {
		t.Errorf("decoded values differ: %+v", decoded.values)
	}
}

func TestEncoder_DefaultElision(t *testing.T) {
	for _, desc := range schema.OrderBookMessages() {
		t.Run(desc.Name, func(t *testing.T) {
			data := mustEncode(t, NewMessage(desc))
			if len(data) != 0 {
				t.Errorf("empty %s encoded to %x", desc.Name, data)
			}
		})
	}

	t.Run("explicit_zero_values", func(t *testing.T) {
		msg := NewMessage(schema.AddOrderRequest)
		_ = msg.SetInt32(1, 0)
		_ = msg.SetString(2, "")
		_ = msg.SetDouble(3, 0)
		resp := NewMessage(schema.OrderResponse)
		_ = resp.SetBool(2, false)
		book := NewMessage(schema.OrderBookResponse)
		_ = book.Set(1, []*Message{})

		for _, m := range []*Message{msg, resp, book} {
			if data := mustEncode(t, m); len(data) != 0 {
				t.Errorf("%s with explicit defaults encoded to %x", m.Descriptor().Name, data)
			}
		}
	})

	t.Run("negative_zero_is_written", func(t *testing.T) {
		level := NewMessage(schema.PriceLevel)
		_ = level.SetDouble(1, math.Copysign(0, -1))
		data := mustEncode(t, level)
		if len(data) != 9 {
			t.Fatalf("expected 9 bytes for -0.0, got %x", data)
		}
		decoded, err := DecodeMessage(data, schema.PriceLevel)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if !math.Signbit(decoded.GetDouble(1)) {
			t.Error("sign of zero lost in round trip")
		}
	})
}

func TestEncoder_FreezesMessage(t *testing.T) {
	book := sampleOrderBook(t)
	mustEncode(t, book)
	if !book.Frozen() || !book.GetRepeated(1)[0].Frozen() {
		t.Error("encoding should freeze the message tree")
	}
}

// One snapshot may be sent to many peers at once; run with -race.
func TestEncoder_ConcurrentEncodeOfSharedMessage(t *testing.T) {
	book := sampleOrderBook(t)
	want := mustEncode(t, sampleOrderBook(t))

	const workers = 8
	results := make([][]byte, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = EncodeMessage(book)
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if !bytes.Equal(results[i], want) {
			t.Errorf("worker %d: got %x, expected %x", i, results[i], want)
		}
	}
	if !book.Frozen() || !book.GetRepeated(2)[0].Frozen() {
		t.Error("encoding should freeze the message tree")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	cancel := NewMessage(schema.CancelOrderRequest)
	_ = cancel.SetInt32(1, -42)

	resp := NewMessage(schema.OrderResponse)
	_ = resp.SetString(1, "Order added successfully")
	_ = resp.SetBool(2, true)

	level := newPriceLevel(t, 99.99, math.MaxInt32)

	tests := []struct {
		name string
		msg  *Message
	}{
		{"AddOrderRequest", sampleAddOrder(t)},
		{"CancelOrderRequest", cancel},
		{"GetOrderBookRequest", NewMessage(schema.GetOrderBookRequest)},
		{"OrderResponse", resp},
		{"PriceLevel", level},
		{"OrderBookResponse", sampleOrderBook(t)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := mustEncode(t, test.msg)
			if len(data) != Size(test.msg) {
				t.Errorf("Size() = %d, encoded %d bytes", Size(test.msg), len(data))
			}
			decoded, err := DecodeMessage(data, test.msg.Descriptor())
			if err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if !decoded.Equal(test.msg) {
				t.Errorf("round trip mismatch: got %+v, expected %+v", decoded.values, test.msg.values)
			}
			if decoded.Frozen() {
				t.Error("decoded messages should be fresh and unfrozen")
			}
		})
	}
}

func TestCodec_RepeatedOrderAndCount(t *testing.T) {
	data := mustEncode(t, sampleOrderBook(t))
	decoded, err := DecodeMessage(data, schema.OrderBookResponse)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	check := func(name string, got []*Message, want [][2]float64) {
		if len(got) != len(want) {
			t.Fatalf("%s: expected %d levels, got %d", name, len(want), len(got))
		}
		for i, w := range want {
			if got[i].GetDouble(1) != w[0] || got[i].GetInt32(2) != int32(w[1]) {
				t.Errorf("%s[%d] = (%v, %d), expected (%v, %v)", name, i, got[i].GetDouble(1), got[i].GetInt32(2), w[0], w[1])
			}
		}
	}
	check("bids", decoded.GetRepeated(1), [][2]float64{{100.0, 10}, {99.5, 20}})
	check("asks", decoded.GetRepeated(2), [][2]float64{{101.0, 5}})
}

func TestCodec_RepeatedFieldsInterleaved(t *testing.T) {
	level := func(price float64) []byte {
		var b []byte
		b = protowire.AppendTag(b, 1, protowire.Fixed64Type)
		return protowire.AppendFixed64(b, math.Float64bits(price))
	}
	var data []byte
	for i, price := range []float64{1, 2, 3, 4} {
		field := protowire.Number(1 + i%2)
		data = protowire.AppendTag(data, field, protowire.BytesType)
		data = protowire.AppendBytes(data, level(price))
	}

	decoded, err := DecodeMessage(data, schema.OrderBookResponse)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	bids, asks := decoded.GetRepeated(1), decoded.GetRepeated(2)
	if len(bids) != 2 || bids[0].GetDouble(1) != 1 || bids[1].GetDouble(1) != 3 {
		t.Errorf("unexpected bids %v", bids)
	}
	if len(asks) != 2 || asks[0].GetDouble(1) != 2 || asks[1].GetDouble(1) != 4 {
		t.Errorf("unexpected asks %v", asks)
	}
}

func TestCodec_Strings(t *testing.T) {
	tests := []struct {
		name  string
		value string
		empty bool
	}{
		{"empty_elided", "", true},
		{"ascii", "Order cancelled successfully", false},
		{"non_ascii", "注文が約定しました ✓ ok", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp := NewMessage(schema.OrderResponse)
			_ = resp.SetString(1, test.value)
			data := mustEncode(t, resp)
			if (len(data) == 0) != test.empty {
				t.Fatalf("unexpected encoding %x", data)
			}
			decoded, err := DecodeMessage(data, schema.OrderResponse)
			if err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if decoded.GetString(1) != test.value {
				t.Errorf("got %q, expected %q", decoded.GetString(1), test.value)
			}
		})
	}
}

func TestDecoder_StringsDoNotAliasInput(t *testing.T) {
	resp := NewMessage(schema.OrderResponse)
	_ = resp.SetString(1, "filled")
	data := mustEncode(t, resp)

	decoded, err := DecodeMessage(data, schema.OrderResponse)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	for i := range data {
		data[i] = 0
	}
	if decoded.GetString(1) != "filled" {
		t.Errorf("decoded string changed with input buffer: %q", decoded.GetString(1))
	}
}

func TestDecoder_ForwardCompatibility(t *testing.T) {
	known := mustEncode(t, sampleAddOrder(t))

	var unknown []byte
	unknown = protowire.AppendTag(unknown, 9, protowire.VarintType)
	unknown = protowire.AppendVarint(unknown, math.MaxUint64)
	unknown = protowire.AppendTag(unknown, 10, protowire.Fixed64Type)
	unknown = protowire.AppendFixed64(unknown, 0xDEADBEEF)
	unknown = protowire.AppendTag(unknown, 11, protowire.BytesType)
	unknown = protowire.AppendString(unknown, "future field")
	unknown = protowire.AppendTag(unknown, 12, protowire.Fixed32Type)
	unknown = protowire.AppendFixed32(unknown, 42)
	unknown = protowire.AppendTag(unknown, 1000, protowire.BytesType)
	unknown = protowire.AppendBytes(unknown, nil)

	layouts := map[string][]byte{
		"unknown_first": append(append([]byte{}, unknown...), known...),
		"unknown_last":  append(append([]byte{}, known...), unknown...),
		"unknown_mixed": append(append(append([]byte{}, known[:2]...), unknown...), known[2:]...),
	}

	for name, data := range layouts {
		t.Run(name, func(t *testing.T) {
			decoded, err := DecodeMessage(data, schema.AddOrderRequest)
			if err != nil {
				t.Fatalf("unknown fields must not fail decode: %v", err)
			}
			if !decoded.Equal(sampleAddOrder(t)) {
				t.Errorf("known fields not preserved: %+v", decoded.values)
			}
		})
	}

	t.Run("empty_message_type", func(t *testing.T) {
		decoded, err := DecodeMessage(known, schema.GetOrderBookRequest)
		if err != nil {
			t.Fatalf("decode against empty descriptor failed: %v", err)
		}
		if len(decoded.values) != 0 {
			t.Errorf("expected no fields, got %+v", decoded.values)
		}
	})
}

func TestDecoder_WireTypeMismatchIsSkipped(t *testing.T) {
	var data []byte
	// order_id sent as a string, price sent as a varint
	data = protowire.AppendTag(data, 1, protowire.BytesType)
	data = protowire.AppendString(data, "seven")
	data = protowire.AppendTag(data, 3, protowire.VarintType)
	data = protowire.AppendVarint(data, 100)
	data = protowire.AppendTag(data, 2, protowire.BytesType)
	data = protowire.AppendString(data, "Sell")

	decoded, err := DecodeMessage(data, schema.AddOrderRequest)
	if err != nil {
		t.Fatalf("mismatched wire types must not fail decode: %v", err)
	}
	if decoded.Has(1) || decoded.Has(3) {
		t.Errorf("mismatched fields should be skipped, got %+v", decoded.values)
	}
	if decoded.GetString(2) != "Sell" {
		t.Errorf("side = %q, expected Sell", decoded.GetString(2))
	}
}

func TestDecoder_LastScalarWins(t *testing.T) {
	var data []byte
	data = protowire.AppendTag(data, 1, protowire.VarintType)
	data = protowire.AppendVarint(data, 1)
	data = protowire.AppendTag(data, 1, protowire.VarintType)
	data = protowire.AppendVarint(data, 2)

	decoded, err := DecodeMessage(data, schema.CancelOrderRequest)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if decoded.GetInt32(1) != 2 {
		t.Errorf("order_id = %d, expected 2", decoded.GetInt32(1))
	}
}

func TestDecoder_ExplicitZeroNotReencoded(t *testing.T) {
	var data []byte
	data = protowire.AppendTag(data, 1, protowire.VarintType)
	data = protowire.AppendVarint(data, 0)
	data = protowire.AppendTag(data, 2, protowire.VarintType)
	data = protowire.AppendVarint(data, 1)

	decoded, err := DecodeMessage(data, schema.OrderResponse)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	// field 1 is a string; the varint occurrence is skipped
	if decoded.Has(1) || !decoded.GetBool(2) {
		t.Errorf("unexpected decode %+v", decoded.values)
	}

	var zeros []byte
	zeros = protowire.AppendTag(zeros, 1, protowire.VarintType)
	zeros = protowire.AppendVarint(zeros, 0)
	cancel, err := DecodeMessage(zeros, schema.CancelOrderRequest)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if reencoded := mustEncode(t, cancel); len(reencoded) != 0 {
		t.Errorf("explicit zero should be elided on re-encode, got %x", reencoded)
	}
}

func TestDecoder_Errors(t *testing.T) {
	level := mustEncode(t, newPriceLevel(t, 100.5, 300))

	var badUTF8 []byte
	badUTF8 = protowire.AppendTag(badUTF8, 1, protowire.BytesType)
	badUTF8 = protowire.AppendBytes(badUTF8, []byte{0xFF, 0xFE})

	var longString []byte
	longString = protowire.AppendTag(longString, 1, protowire.BytesType)
	longString = protowire.AppendVarint(longString, 50)
	longString = append(longString, "short"...)

	var longUnknown []byte
	longUnknown = protowire.AppendTag(longUnknown, 7, protowire.BytesType)
	longUnknown = protowire.AppendVarint(longUnknown, 3)

	var shortFixedUnknown []byte
	shortFixedUnknown = protowire.AppendTag(shortFixedUnknown, 7, protowire.Fixed64Type)
	shortFixedUnknown = append(shortFixedUnknown, 1, 2, 3)

	var runaway []byte
	runaway = protowire.AppendTag(runaway, 1, protowire.VarintType)
	runaway = append(runaway, bytes.Repeat([]byte{0xFF}, 10)...)

	tests := []struct {
		name string
		desc *schema.MessageDescriptor
		data []byte
		want error
	}{
		{"truncated_price_level", schema.PriceLevel, level[:len(level)-1], ErrTruncatedInput},
		{"truncated_double", schema.PriceLevel, level[:5], ErrTruncatedInput},
		{"tag_without_value", schema.PriceLevel, level[:10], ErrTruncatedInput},
		{"truncated_tag", schema.PriceLevel, []byte{0x80}, ErrTruncatedInput},
		{"runaway_varint", schema.CancelOrderRequest, runaway, ErrMalformedVarint},
		{"invalid_utf8", schema.OrderResponse, badUTF8, ErrInvalidEncoding},
		{"string_length_mismatch", schema.OrderResponse, longString, ErrLengthMismatch},
		{"unknown_length_mismatch", schema.OrderResponse, longUnknown, ErrLengthMismatch},
		{"unknown_fixed64_truncated", schema.OrderResponse, shortFixedUnknown, ErrTruncatedInput},
		{"wire_type_7", schema.OrderResponse, []byte{0x0F, 0x00}, ErrInvalidWireType},
		{"group_wire_type", schema.OrderResponse, []byte{0x0B}, ErrInvalidWireType},
		{"field_number_zero", schema.OrderResponse, []byte{0x00, 0x01}, ErrInvalidFieldNumber},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			msg, err := DecodeMessage(test.data, test.desc)
			if !errors.Is(err, test.want) {
				t.Fatalf("expected %v, got %v", test.want, err)
			}
			if msg != nil {
				t.Errorf("failed decode must not return a partial message, got %+v", msg.values)
			}
		})
	}
}

func TestDecoder_NestedErrorPath(t *testing.T) {
	var elem []byte
	elem = protowire.AppendTag(elem, 1, protowire.Fixed64Type)
	elem = append(elem, 0, 0, 0)

	var data []byte
	data = protowire.AppendTag(data, 1, protowire.BytesType)
	data = protowire.AppendBytes(data, elem)

	_, err := DecodeMessage(data, schema.OrderBookResponse)
	if !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("expected ErrTruncatedInput, got %v", err)
	}
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %T", err)
	}
	if path := strings.Join(fieldErr.FieldPath, "."); path != "bids.price" {
		t.Errorf("expected path bids.price, got %s", path)
	}
	if !strings.Contains(err.Error(), "OrderBookResponse") {
		t.Errorf("error should name the message type: %v", err)
	}
}

func TestCodec_MaxDepth(t *testing.T) {
	inner := schema.MustMessageDescriptor("Inner", schema.Scalar("value", 1, schema.KindInt32))
	middle := schema.MustMessageDescriptor("Middle", schema.RepeatedMessage("inner", 1, inner))
	outer := schema.MustMessageDescriptor("Outer", schema.RepeatedMessage("middle", 1, middle))

	leaf := NewMessage(inner)
	_ = leaf.SetInt32(1, 1)
	mid := NewMessage(middle)
	_ = mid.Append(1, leaf)
	top := NewMessage(outer)
	_ = top.Append(1, mid)

	data := mustEncode(t, top)

	shallow := DefaultConfig()
	shallow.MaxDepth = 1

	if _, err := NewDecoderWithConfig(data, shallow).DecodeWithSchema(outer); !errors.Is(err, ErrMaxDepth) {
		t.Errorf("decode: expected ErrMaxDepth, got %v", err)
	}
	if err := NewEncoderWithConfig(shallow).EncodeMessage(top); !errors.Is(err, ErrMaxDepth) {
		t.Errorf("encode: expected ErrMaxDepth, got %v", err)
	}

	decoded, err := NewDecoderWithConfig(data, DefaultConfig()).DecodeWithSchema(outer)
	if err != nil {
		t.Fatalf("decode with default depth failed: %v", err)
	}
	if !decoded.Equal(top) {
		t.Error("three-level round trip mismatch")
	}
}

func TestSetConfig(t *testing.T) {
	prev := CurrentConfig()
	defer SetConfig(prev)

	SetConfig(Config{SkipUTF8Validation: true})
	got := CurrentConfig()
	if got.MaxDepth != DefaultMaxDepth || !got.SkipUTF8Validation {
		t.Errorf("unexpected config %+v", got)
	}
}
