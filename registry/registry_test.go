package registry

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/anirudhraja/orderwire/schema"
)

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	if registry == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if len(registry.ListMessages()) != 0 {
		t.Error("Expected no messages initially")
	}
	if len(registry.ListServices()) != 0 {
		t.Error("Expected no services initially")
	}
}

func TestBuiltin(t *testing.T) {
	registry := Builtin()

	expected := []string{
		"orderbook.AddOrderRequest",
		"orderbook.CancelOrderRequest",
		"orderbook.GetOrderBookRequest",
		"orderbook.OrderBookResponse",
		"orderbook.OrderResponse",
		"orderbook.PriceLevel",
	}
	if got := registry.ListMessages(); !reflect.DeepEqual(got, expected) {
		t.Errorf("ListMessages() = %v, expected %v", got, expected)
	}
	if got := registry.ListServices(); !reflect.DeepEqual(got, []string{"orderbook.OrderBookService"}) {
		t.Errorf("ListServices() = %v", got)
	}

	for _, name := range []string{"PriceLevel", "orderbook.PriceLevel"} {
		msg, err := registry.GetMessage(name)
		if err != nil {
			t.Fatalf("GetMessage(%q) failed: %v", name, err)
		}
		if msg != schema.PriceLevel {
			t.Errorf("GetMessage(%q) returned a different descriptor", name)
		}
	}

	svc, err := registry.GetService("OrderBookService")
	if err != nil {
		t.Fatalf("GetService failed: %v", err)
	}
	if svc != schema.OrderBookService {
		t.Error("GetService returned a different service")
	}
}

func TestBuiltin_MatchesEmbeddedProto(t *testing.T) {
	loaded := NewRegistry()
	if err := loaded.LoadProto(strings.NewReader(schema.OrderBookProto), schema.OrderBookProtoFile); err != nil {
		t.Fatalf("LoadProto failed: %v", err)
	}

	for _, static := range schema.OrderBookMessages() {
		t.Run(static.Name, func(t *testing.T) {
			parsed, err := loaded.GetMessage("orderbook." + static.Name)
			if err != nil {
				t.Fatalf("GetMessage failed: %v", err)
			}
			if len(parsed.Fields) != len(static.Fields) {
				t.Fatalf("expected %d fields, got %d", len(static.Fields), len(parsed.Fields))
			}
			for i, want := range static.Fields {
				got := parsed.Fields[i]
				if got.Name != want.Name || got.Number != want.Number || got.Kind != want.Kind ||
					got.WireType != want.WireType || got.Repeated != want.Repeated {
					t.Errorf("field %d: got %+v, expected %+v", i, got, want)
				}
				if want.MessageType != nil && got.MessageType.Name != want.MessageType.Name {
					t.Errorf("field %s references %s, expected %s", want.Name, got.MessageType.Name, want.MessageType.Name)
				}
			}
		})
	}

	svc, err := loaded.GetService("orderbook.OrderBookService")
	if err != nil {
		t.Fatalf("GetService failed: %v", err)
	}
	if !sameMethods(svc, schema.OrderBookService) {
		t.Errorf("parsed service %+v differs from static service", svc.Methods)
	}

	// Loading the same source on top of the static descriptors is a no-op
	builtin := Builtin()
	if err := builtin.LoadProto(strings.NewReader(schema.OrderBookProto), schema.OrderBookProtoFile); err != nil {
		t.Fatalf("LoadProto into builtin registry failed: %v", err)
	}
	if msg, _ := builtin.GetMessage("orderbook.PriceLevel"); msg != schema.PriceLevel {
		t.Error("reloading must keep the registered descriptor")
	}
}

func TestLoadSchema_NonExistentPath(t *testing.T) {
	registry := NewRegistry()

	err := registry.LoadSchema("/nonexistent/path")
	if err == nil || !strings.Contains(err.Error(), "path does not exist") {
		t.Errorf("Expected 'path does not exist' error, got: %v", err)
	}
}

func TestLoadSchema_NonProtoFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "test*.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	registry := NewRegistry()
	err = registry.LoadSchema(tmpFile.Name())
	if err == nil || !strings.Contains(err.Error(), "is not a .proto file") {
		t.Errorf("Expected 'is not a .proto file' error, got: %v", err)
	}
}

func TestLoadSchema_SingleProtoFile(t *testing.T) {
	tmpDir := t.TempDir()

	protoContent := `syntax = "proto3";
package test.trading;

message Fill {
  int32 order_id = 1;
  double price = 2;

  message Venue {
    string code = 1;
  }
  repeated Venue venues = 3;
}

service FillService {
  rpc Report(Fill) returns (Fill.Venue);
}
`
	protoFile := filepath.Join(tmpDir, "test.proto")
	if err := os.WriteFile(protoFile, []byte(protoContent), 0644); err != nil {
		t.Fatal(err)
	}

	registry := NewRegistry()
	if err := registry.LoadSchema(protoFile); err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}

	expected := []string{"test.trading.Fill", "test.trading.Fill.Venue"}
	if got := registry.ListMessages(); !reflect.DeepEqual(got, expected) {
		t.Errorf("ListMessages() = %v, expected %v", got, expected)
	}

	fill, err := registry.GetMessage("test.trading.Fill")
	if err != nil {
		t.Fatalf("GetMessage failed: %v", err)
	}
	venues, ok := fill.FieldByName("venues")
	if !ok {
		t.Fatal("field venues not found")
	}
	if !venues.Repeated || venues.MessageType == nil || venues.MessageType.Name != "Fill.Venue" {
		t.Errorf("unexpected venues field %+v", venues)
	}

	svc, err := registry.GetService("FillService")
	if err != nil {
		t.Fatalf("GetService failed: %v", err)
	}
	if len(svc.Methods) != 1 || svc.Methods[0].InputType != "Fill" || svc.Methods[0].OutputType != "Fill.Venue" {
		t.Errorf("unexpected methods %+v", svc.Methods[0])
	}
}

func TestLoadSchema_Directory(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	if err := os.Mkdir(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	// book.proto sorts before the file declaring Level; references still resolve
	protoFiles := map[string]string{
		filepath.Join(tmpDir, "book.proto"): `syntax = "proto3";
package market;
message Book {
  repeated market.Level levels = 1;
}`,
		filepath.Join(subDir, "level.proto"): `syntax = "proto3";
package market;
message Level {
  double price = 1;
}`,
		filepath.Join(tmpDir, "notproto.txt"): "not a proto file",
	}
	for path, content := range protoFiles {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	registry := NewRegistry()
	if err := registry.LoadSchema(tmpDir); err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}
	if got := registry.ListMessages(); !reflect.DeepEqual(got, []string{"market.Book", "market.Level"}) {
		t.Errorf("ListMessages() = %v", got)
	}
}

func TestLoadProto_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "proto2",
			content: `syntax = "proto2"; message A { optional int32 a = 1; }`,
			errText: "only proto3",
		},
		{
			name:    "unsupported scalar",
			content: `syntax = "proto3"; message A { int64 a = 1; }`,
			errText: "unable to resolve type name: int64",
		},
		{
			name:    "repeated scalar",
			content: `syntax = "proto3"; message A { repeated int32 a = 1; }`,
			errText: "repeated int32",
		},
		{
			name:    "map field",
			content: `syntax = "proto3"; message A { map<string, int32> m = 1; }`,
			errText: "map field m",
		},
		{
			name:    "top level enum",
			content: `syntax = "proto3"; enum Side { BUY = 0; }`,
			errText: "enums are not supported",
		},
		{
			name:    "recursive message",
			content: `syntax = "proto3"; message Node { repeated Node children = 1; }`,
			errText: "recursive",
		},
		{
			name:    "duplicate field number",
			content: `syntax = "proto3"; message A { int32 a = 1; string b = 1; }`,
			errText: "duplicate field number",
		},
		{
			name:    "streaming rpc",
			content: `syntax = "proto3"; message A {} service S { rpc Watch(A) returns (stream A); }`,
			errText: "streaming",
		},
		{
			name:    "unknown rpc type",
			content: `syntax = "proto3"; message A {} service S { rpc Get(A) returns (B); }`,
			errText: "unable to resolve type name: B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()
			err := registry.LoadProto(strings.NewReader(tt.content), tt.name+".proto")
			if err == nil || !strings.Contains(err.Error(), tt.errText) {
				t.Fatalf("expected error containing %q, got %v", tt.errText, err)
			}
			if len(registry.ListMessages()) != 0 {
				t.Errorf("failed load must not register anything, got %v", registry.ListMessages())
			}
		})
	}
}

func TestLoadProto_IncompatibleRedefinition(t *testing.T) {
	registry := Builtin()

	redefined := `syntax = "proto3";
package orderbook;
message PriceLevel {
  string price = 1;
  int32 quantity = 2;
}`
	err := registry.LoadProto(strings.NewReader(redefined), "redefined.proto")
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected redefinition error, got %v", err)
	}

	// Renaming a field keeps the wire format, so it is accepted
	renamed := `syntax = "proto3";
package orderbook;
message PriceLevel {
  double px = 1;
  int32 qty = 2;
}`
	if err := registry.LoadProto(strings.NewReader(renamed), "renamed.proto"); err != nil {
		t.Fatalf("wire-compatible redefinition failed: %v", err)
	}
}

func TestRegister(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register("book", schema.PriceLevel); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := registry.Register("book", schema.PriceLevel); err != nil {
		t.Errorf("registering the same descriptor twice failed: %v", err)
	}

	other := schema.MustMessageDescriptor("PriceLevel", schema.Scalar("price", 1, schema.KindDouble))
	if err := registry.Register("book", other); err == nil {
		t.Error("expected error registering an incompatible descriptor")
	}
	if err := registry.Register("other", other); err != nil {
		t.Errorf("registering under another package failed: %v", err)
	}

	if _, err := registry.GetMessage("PriceLevel"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("expected ambiguous short name, got %v", err)
	}
}

func TestGetMessage_NotFound(t *testing.T) {
	registry := Builtin()

	_, err := registry.GetMessage("NonExistent")
	if err == nil || !strings.Contains(err.Error(), "message not found") {
		t.Errorf("Expected 'message not found' error, got: %v", err)
	}
	_, err = registry.GetService("NonExistent")
	if err == nil || !strings.Contains(err.Error(), "service not found") {
		t.Errorf("Expected 'service not found' error, got: %v", err)
	}
}

func TestGetFullName(t *testing.T) {
	tests := []struct {
		pkg      string
		name     string
		expected string
	}{
		{"", "Message", "Message"},
		{"orderbook", "PriceLevel", "orderbook.PriceLevel"},
		{"a.b", "C.D", "a.b.C.D"},
	}

	for _, tt := range tests {
		if got := getFullName(tt.pkg, tt.name); got != tt.expected {
			t.Errorf("getFullName(%q, %q) = %q, expected %q", tt.pkg, tt.name, got, tt.expected)
		}
	}
}

func TestGetReferencedType(t *testing.T) {
	entities := map[string]struct{}{
		"market.Book":       {},
		"market.Book.Level": {},
		"market.Level":      {},
		"other.Level":       {},
	}

	tests := []struct {
		typeName string
		prefix   string
		expected string
	}{
		{"Level", "market.Book", "market.Book.Level"},
		{"Level", "market.Other", "market.Level"},
		{".market.Level", "market.Book", "market.Level"},
		{"other.Level", "market.Book", "other.Level"},
	}

	for _, tt := range tests {
		got, err := getReferencedType(tt.typeName, tt.prefix, entities)
		if err != nil {
			t.Fatalf("getReferencedType(%q, %q) failed: %v", tt.typeName, tt.prefix, err)
		}
		if got != tt.expected {
			t.Errorf("getReferencedType(%q, %q) = %q, expected %q", tt.typeName, tt.prefix, got, tt.expected)
		}
	}

	if _, err := getReferencedType("Missing", "market.Book", entities); err == nil {
		t.Error("expected error for unresolvable type")
	}
}
