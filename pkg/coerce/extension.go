package coerce

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/filereader/pkg/table"
)

// ErrUnavailable is returned by ExtensionType.Construct when the type cannot be
// built at runtime. The column then falls back to string.
var ErrUnavailable = errors.New("extension type unavailable")

// ExtensionType is the capability hook for types beyond int, double and string.
type ExtensionType interface {
	Name() table.DataType
	Available() bool
	Construct(text string) (any, error)
}

// Registry maps type names to extension types. Lookups are safe for
// concurrent use; registration normally happens before any run starts.
type Registry struct {
	mu    sync.RWMutex
	types map[table.DataType]ExtensionType
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[table.DataType]ExtensionType)}
}

// DefaultRegistry returns a registry holding the built-in decimal and uuid types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(DecimalType{})
	r.Register(UUIDType{})
	return r
}

// Register adds or replaces ext.
func (r *Registry) Register(ext ExtensionType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[ext.Name()] = ext
}

// Lookup returns the extension registered under name.
func (r *Registry) Lookup(name table.DataType) (ExtensionType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.types[name]
	return ext, ok
}

// DecimalType parses arbitrary precision decimals.
type DecimalType struct{}

func (DecimalType) Name() table.DataType { return "decimal" }
func (DecimalType) Available() bool      { return true }

func (DecimalType) Construct(text string) (any, error) {
	return decimal.NewFromString(text)
}

// UUIDType parses RFC 4122 identifiers.
type UUIDType struct{}

func (UUIDType) Name() table.DataType { return "uuid" }
func (UUIDType) Available() bool      { return true }

func (UUIDType) Construct(text string) (any, error) {
	return uuid.Parse(text)
}

// FuncType adapts plain functions to ExtensionType.
type FuncType struct {
	TypeName    table.DataType
	IsAvailable func() bool
	Build       func(text string) (any, error)
}

func (f FuncType) Name() table.DataType { return f.TypeName }

func (f FuncType) Available() bool {
	return f.IsAvailable == nil || f.IsAvailable()
}

func (f FuncType) Construct(text string) (any, error) {
	if f.Build == nil {
		return nil, ErrUnavailable
	}
	return f.Build(text)
}
