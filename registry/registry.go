package registry

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/anirudhraja/orderwire/schema"
)

// Registry allows us to store the schema of the protobuf messages. We look this up when we need to parse or marshal a message.
type Registry struct {
	mu       sync.RWMutex
	messages map[string]*schema.MessageDescriptor // fully qualified name -> message
	services map[string]*schema.Service           // fully qualified name -> service
}

func NewRegistry() *Registry {
	return &Registry{
		messages: make(map[string]*schema.MessageDescriptor),
		services: make(map[string]*schema.Service),
	}
}

// Builtin returns a new registry holding the order book messages and service.
func Builtin() *Registry {
	r := NewRegistry()
	for _, desc := range schema.OrderBookMessages() {
		if err := r.Register(schema.OrderBookPackage, desc); err != nil {
			panic(err)
		}
	}
	if err := r.RegisterService(schema.OrderBookPackage, schema.OrderBookService); err != nil {
		panic(err)
	}
	return r
}

// Register adds a message descriptor under pkg. Registering a name again is
// allowed only when the new field table is wire-identical to the old one.
func (r *Registry) Register(pkg string, desc *schema.MessageDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(getFullName(pkg, desc.Name), desc)
}

func (r *Registry) registerLocked(fullName string, desc *schema.MessageDescriptor) error {
	if existing, ok := r.messages[fullName]; ok {
		if err := compatible(existing, desc); err != nil {
			return fmt.Errorf("message %s already registered: %w", fullName, err)
		}
		return nil
	}
	r.messages[fullName] = desc
	return nil
}

// RegisterService adds a service definition under pkg.
func (r *Registry) RegisterService(pkg string, svc *schema.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerServiceLocked(getFullName(pkg, svc.Name), svc)
}

func (r *Registry) registerServiceLocked(fullName string, svc *schema.Service) error {
	if existing, ok := r.services[fullName]; ok {
		if !sameMethods(existing, svc) {
			return fmt.Errorf("service %s already registered with different methods", fullName)
		}
		return nil
	}
	r.services[fullName] = svc
	return nil
}

// LoadSchema Given a path it will recursively scan all *proto files inside it and register their messages and services.
// Message references may cross files; all files are resolved together.
func (r *Registry) LoadSchema(protoPath string) error {
	info, err := os.Stat(protoPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	var paths []string
	if !info.IsDir() {
		if !strings.HasSuffix(protoPath, ".proto") {
			return fmt.Errorf("file %s is not a .proto file", protoPath)
		}
		paths = append(paths, protoPath)
	} else {
		err = filepath.WalkDir(protoPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			// Skip directories and non-proto files
			if d.IsDir() || !strings.HasSuffix(path, ".proto") {
				return nil
			}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to walk directory: %w", err)
		}
	}

	files := make([]*protoFile, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		pf, err := parseProtoFile(f, path)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to load proto file %s: %w", path, err)
		}
		files = append(files, pf)
	}
	return r.load(files)
}

// LoadProto parses one .proto source and registers its messages and services.
// References to messages already in the registry are resolved.
func (r *Registry) LoadProto(reader io.Reader, filename string) error {
	pf, err := parseProtoFile(reader, filename)
	if err != nil {
		return fmt.Errorf("failed to load proto file %s: %w", filename, err)
	}
	return r.load([]*protoFile{pf})
}

// load builds descriptors for files and registers them all or nothing
func (r *Registry) load(files []*protoFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages, services, err := r.buildSymbolTable(files)
	if err != nil {
		return fmt.Errorf("failed to build symbol table: %w", err)
	}

	for name, desc := range messages {
		if existing, ok := r.messages[name]; ok {
			if err := compatible(existing, desc); err != nil {
				return fmt.Errorf("message %s already registered: %w", name, err)
			}
		}
	}
	for name, svc := range services {
		if existing, ok := r.services[name]; ok && !sameMethods(existing, svc) {
			return fmt.Errorf("service %s already registered with different methods", name)
		}
	}

	for name, desc := range messages {
		if _, ok := r.messages[name]; !ok {
			r.messages[name] = desc
		}
	}
	for name, svc := range services {
		if _, ok := r.services[name]; !ok {
			r.services[name] = svc
		}
	}
	return nil
}

func getFullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// GetMessage retrieves a message definition by name
func (r *Registry) GetMessage(name string) (*schema.MessageDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if msg, exists := r.messages[name]; exists {
		return msg, nil
	}

	// Try without package prefix
	var found *schema.MessageDescriptor
	for fullName, msg := range r.messages {
		if strings.HasSuffix(fullName, "."+name) {
			if found != nil && found != msg {
				return nil, fmt.Errorf("message name %s is ambiguous", name)
			}
			found = msg
		}
	}
	if found != nil {
		return found, nil
	}

	return nil, fmt.Errorf("message not found: %s", name)
}

// GetService retrieves a service definition by name
func (r *Registry) GetService(name string) (*schema.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if service, exists := r.services[name]; exists {
		return service, nil
	}

	// Try without package prefix
	for fullName, service := range r.services {
		if strings.HasSuffix(fullName, "."+name) {
			return service, nil
		}
	}

	return nil, fmt.Errorf("service not found: %s", name)
}

// ListMessages returns all registered message names
func (r *Registry) ListMessages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.messages))
	for name := range r.messages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListServices returns all registered service names
func (r *Registry) ListServices() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// compatible reports why b cannot stand in for a on the wire, or nil if it can.
// Field names may differ; numbers, kinds and labels may not.
func compatible(a, b *schema.MessageDescriptor) error {
	if a == b {
		return nil
	}
	if len(a.Fields) != len(b.Fields) {
		return fmt.Errorf("field count %d != %d", len(a.Fields), len(b.Fields))
	}
	for _, fa := range a.Fields {
		fb, ok := b.Field(fa.Number)
		if !ok {
			return fmt.Errorf("field %d missing", fa.Number)
		}
		if fa.Kind != fb.Kind || fa.Repeated != fb.Repeated {
			return fmt.Errorf("field %d: %s (repeated=%t) != %s (repeated=%t)", fa.Number, fa.Kind, fa.Repeated, fb.Kind, fb.Repeated)
		}
		if fa.Kind == schema.KindMessage {
			if err := compatible(fa.MessageType, fb.MessageType); err != nil {
				return fmt.Errorf("field %d: %w", fa.Number, err)
			}
		}
	}
	return nil
}

func sameMethods(a, b *schema.Service) bool {
	if len(a.Methods) != len(b.Methods) {
		return false
	}
	for i := range a.Methods {
		if *a.Methods[i] != *b.Methods[i] {
			return false
		}
	}
	return true
}
