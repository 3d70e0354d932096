package registry

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	protoparser "github.com/yoheimuta/go-protoparser/v4"
	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/orderwire/schema"
)

// scalarKinds maps the proto scalar types this codec carries to their kinds
var scalarKinds = map[string]schema.Kind{
	"int32":  schema.KindInt32,
	"double": schema.KindDouble,
	"string": schema.KindString,
	"bool":   schema.KindBool,
}

// protoFile is the subset of a parsed .proto the registry needs
type protoFile struct {
	name     string
	pkg      string
	messages []*messageEntity
	services []*protoparserparser.Service
}

// messageEntity is a message declaration with its fully qualified name
type messageEntity struct {
	fullName  string // "orderbook.PriceLevel"
	localName string // name inside the package, "Outer.Inner" for nested types
	pkg       string
	file      string
	decl      *protoparserparser.Message
}

// parseProtoFile parses proto3 source using go-protoparser
func parseProtoFile(reader io.Reader, filename string) (*protoFile, error) {
	parsed, err := protoparser.Parse(reader, protoparser.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	if parsed.Syntax == nil || strings.Trim(parsed.Syntax.ProtobufVersion, `"'`) != "proto3" {
		return nil, fmt.Errorf("only proto3 syntax is supported")
	}

	pf := &protoFile{name: filename}
	for _, body := range parsed.ProtoBody {
		if p, ok := body.(*protoparserparser.Package); ok {
			pf.pkg = p.Name
		}
	}
	for _, body := range parsed.ProtoBody {
		switch b := body.(type) {
		case *protoparserparser.Message:
			pf.collectMessage(b, "")
		case *protoparserparser.Service:
			pf.services = append(pf.services, b)
		case *protoparserparser.Enum:
			return nil, fmt.Errorf("enum %s: enums are not supported", b.EnumName)
		}
	}
	return pf, nil
}

// collectMessage records msg and its nested messages, depth first
func (pf *protoFile) collectMessage(msg *protoparserparser.Message, parent string) {
	local := msg.MessageName
	if parent != "" {
		local = parent + "." + msg.MessageName
	}
	pf.messages = append(pf.messages, &messageEntity{
		fullName:  getFullName(pf.pkg, local),
		localName: local,
		pkg:       pf.pkg,
		file:      pf.name,
		decl:      msg,
	})
	for _, body := range msg.MessageBody {
		if nested, ok := body.(*protoparserparser.Message); ok {
			pf.collectMessage(nested, local)
		}
	}
}

// symbolBuilder turns parsed declarations into descriptors. A referenced
// message must be built before the field that points at it, so messages are
// built on demand and cycles are rejected.
type symbolBuilder struct {
	entities map[string]*messageEntity
	known    map[string]*schema.MessageDescriptor // already registered
	built    map[string]*schema.MessageDescriptor
	visiting map[string]bool
	resolved map[string]struct{}
}

// buildSymbolTable builds the symbol table from the parsed files
func (r *Registry) buildSymbolTable(files []*protoFile) (map[string]*schema.MessageDescriptor, map[string]*schema.Service, error) {
	b := &symbolBuilder{
		entities: make(map[string]*messageEntity),
		known:    r.messages,
		built:    make(map[string]*schema.MessageDescriptor),
		visiting: make(map[string]bool),
		resolved: make(map[string]struct{}),
	}
	for name := range r.messages {
		b.resolved[name] = struct{}{}
	}

	// Pass 1: Register all message names
	for _, pf := range files {
		for _, ent := range pf.messages {
			if other, dup := b.entities[ent.fullName]; dup {
				return nil, nil, fmt.Errorf("message %s declared in both %s and %s", ent.fullName, other.file, ent.file)
			}
			b.entities[ent.fullName] = ent
			b.resolved[ent.fullName] = struct{}{}
		}
	}

	// Pass 2: Build all message definitions
	for _, pf := range files {
		for _, ent := range pf.messages {
			if _, err := b.build(ent.fullName); err != nil {
				return nil, nil, err
			}
		}
	}

	// Pass 3: Build services
	services := make(map[string]*schema.Service)
	for _, pf := range files {
		for _, decl := range pf.services {
			svc, err := b.buildService(pf.pkg, decl)
			if err != nil {
				return nil, nil, err
			}
			services[getFullName(pf.pkg, svc.Name)] = svc
		}
	}
	return b.built, services, nil
}

func (b *symbolBuilder) build(fullName string) (*schema.MessageDescriptor, error) {
	if desc, ok := b.built[fullName]; ok {
		return desc, nil
	}
	ent, ok := b.entities[fullName]
	if !ok {
		return b.known[fullName], nil
	}
	if b.visiting[fullName] {
		return nil, fmt.Errorf("message %s: recursive message types are not supported", fullName)
	}
	b.visiting[fullName] = true
	defer delete(b.visiting, fullName)

	var fields []*schema.FieldDescriptor
	for _, body := range ent.decl.MessageBody {
		switch f := body.(type) {
		case *protoparserparser.Field:
			field, err := b.buildField(ent, f)
			if err != nil {
				return nil, fmt.Errorf("message %s: %w", fullName, err)
			}
			fields = append(fields, field)
		case *protoparserparser.MapField:
			return nil, fmt.Errorf("message %s: map field %s is not supported", fullName, f.MapName)
		case *protoparserparser.Oneof:
			return nil, fmt.Errorf("message %s: oneof %s is not supported", fullName, f.OneofName)
		case *protoparserparser.Enum:
			return nil, fmt.Errorf("message %s: enum %s is not supported", fullName, f.EnumName)
		}
	}

	desc, err := schema.NewMessageDescriptor(ent.localName, fields...)
	if err != nil {
		return nil, err
	}
	b.built[fullName] = desc
	return desc, nil
}

func (b *symbolBuilder) buildField(ent *messageEntity, f *protoparserparser.Field) (*schema.FieldDescriptor, error) {
	number, err := strconv.ParseInt(f.FieldNumber, 0, 32)
	if err != nil {
		return nil, fmt.Errorf("field %s: invalid number %q", f.FieldName, f.FieldNumber)
	}
	if f.IsRequired {
		return nil, fmt.Errorf("field %s: required fields are not supported", f.FieldName)
	}

	if kind, ok := scalarKinds[f.Type]; ok {
		if f.IsRepeated {
			return nil, fmt.Errorf("field %s: repeated %s fields are not supported", f.FieldName, f.Type)
		}
		return schema.Scalar(f.FieldName, schema.FieldNumber(number), kind), nil
	}

	// Nested types are looked up from the innermost scope outwards
	refName, err := getReferencedType(f.Type, ent.fullName, b.resolved)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.FieldName, err)
	}
	ref, err := b.build(refName)
	if err != nil {
		return nil, err
	}
	return &schema.FieldDescriptor{
		Name:        f.FieldName,
		Number:      schema.FieldNumber(number),
		WireType:    schema.WireBytes,
		Kind:        schema.KindMessage,
		Repeated:    f.IsRepeated,
		MessageType: ref,
	}, nil
}

func (b *symbolBuilder) buildService(pkg string, decl *protoparserparser.Service) (*schema.Service, error) {
	svc := &schema.Service{Name: decl.ServiceName}
	scope := getFullName(pkg, decl.ServiceName)
	for _, body := range decl.ServiceBody {
		rpc, ok := body.(*protoparserparser.RPC)
		if !ok {
			continue
		}
		if rpc.RPCRequest.IsStream || rpc.RPCResponse.IsStream {
			return nil, fmt.Errorf("service %s: streaming rpc %s is not supported", decl.ServiceName, rpc.RPCName)
		}
		in, err := b.methodType(rpc.RPCRequest.MessageType, scope)
		if err != nil {
			return nil, fmt.Errorf("service %s: rpc %s: %w", decl.ServiceName, rpc.RPCName, err)
		}
		out, err := b.methodType(rpc.RPCResponse.MessageType, scope)
		if err != nil {
			return nil, fmt.Errorf("service %s: rpc %s: %w", decl.ServiceName, rpc.RPCName, err)
		}
		svc.Methods = append(svc.Methods, &schema.Method{
			Name:       rpc.RPCName,
			InputType:  in,
			OutputType: out,
		})
	}
	return svc, nil
}

// methodType resolves an rpc message type and returns the descriptor name
func (b *symbolBuilder) methodType(typeName, scope string) (string, error) {
	refName, err := getReferencedType(typeName, scope, b.resolved)
	if err != nil {
		return "", err
	}
	desc, err := b.build(refName)
	if err != nil {
		return "", err
	}
	return desc.Name, nil
}

/*
This helper function will return the entity for any referenced type ,
Be it top/file,nested or imported entities.If not found will return an error
Ref - https://github.com/protocolbuffers/protobuf/blob/b7a5772caf08d62a20fd1bca258f501fa4db022c/src/google/protobuf/descriptor.proto#L186-L191
*/
func getReferencedType(typeName, prefix string, allResolvedEntities map[string]struct{}) (string, error) {
	// check if fully qualifed prefixed by dot
	if strings.HasPrefix(typeName, ".") {
		return getFullyQualifiedType(typeName, allResolvedEntities)
	}
	// try resolving from inner entities up till the parent package
	if result, ok := splitNameAndCheck(typeName, prefix, allResolvedEntities); ok {
		return result, nil
	}
	//  check if the entity is referenced to other packages via packageName
	if _, ok := allResolvedEntities[typeName]; ok {
		return typeName, nil
	}
	return "", fmt.Errorf("unable to resolve type name: %s", typeName)
}

// splitNameAndCheck splits the prefixName and tries to append the typeName and find the entity for resolution
// it also tries the find the entities defined using relative path
func splitNameAndCheck(typeName, prefix string, allResolvedEntities map[string]struct{}) (string, bool) {
	prefixSplit := strings.Split(prefix, ".")

	for len(prefixSplit) > 0 && prefixSplit[0] != "" {
		entityName := strings.Join(prefixSplit, ".") + "." + typeName
		if _, ok := allResolvedEntities[entityName]; ok {
			return entityName, true
		}
		// Omit the last element in each iteration as we go level above to outer entity
		prefixSplit = prefixSplit[:len(prefixSplit)-1]
	}
	return "", false
}

func getFullyQualifiedType(typeName string, allResolvedEntities map[string]struct{}) (string, error) {
	typeName = strings.TrimPrefix(typeName, ".")
	if _, ok := allResolvedEntities[typeName]; ok {
		return typeName, nil
	}
	return "", fmt.Errorf("unable to resolve fully qualified type name: %s", typeName)
}
