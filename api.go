package orderwire

import (
	"fmt"

	"github.com/anirudhraja/orderwire/registry"
	"github.com/anirudhraja/orderwire/wire"
)

// ===== SCHEMA-AWARE API =====

// Codec provides schema-aware protobuf operations by message name, without generated code
type Codec struct {
	registry *registry.Registry
}

// New creates a Codec over the builtin order book registry
func New() *Codec {
	return &Codec{
		registry: registry.Builtin(),
	}
}

// NewWithRegistry creates a Codec over a caller-supplied registry
func NewWithRegistry(r *registry.Registry) *Codec {
	return &Codec{registry: r}
}

// Parse decodes protobuf bytes using the named message schema
func (c *Codec) Parse(data []byte, messageType string) (*wire.Message, error) {
	desc, err := c.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type %s: %w", messageType, err)
	}

	return wire.DecodeMessage(data, desc)
}

// ParseMap decodes protobuf bytes into a map keyed by field name
func (c *Codec) ParseMap(data []byte, messageType string) (map[string]interface{}, error) {
	msg, err := c.Parse(data, messageType)
	if err != nil {
		return nil, err
	}
	return ToMap(msg), nil
}

// Marshal encodes a message instance. The instance is frozen afterwards.
func (c *Codec) Marshal(msg *wire.Message) ([]byte, error) {
	return wire.EncodeMessage(msg)
}

// MarshalMap encodes a map keyed by field name using the named message schema
func (c *Codec) MarshalMap(data map[string]interface{}, messageType string) ([]byte, error) {
	desc, err := c.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type %s: %w", messageType, err)
	}

	msg, err := FromMap(data, desc)
	if err != nil {
		return nil, fmt.Errorf("failed to build message %s: %w", desc.Name, err)
	}
	return wire.EncodeMessage(msg)
}

// Unmarshal decodes protobuf bytes into a typed message. m is left unchanged on error.
func (c *Codec) Unmarshal(data []byte, m Message) error {
	return DecodeInto(data, m)
}

// ===== REGISTRY ACCESS =====

func (c *Codec) GetRegistry() *registry.Registry { return c.registry }
func (c *Codec) ListMessages() []string          { return c.registry.ListMessages() }
func (c *Codec) ListServices() []string          { return c.registry.ListServices() }
