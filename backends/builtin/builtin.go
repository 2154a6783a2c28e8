// Package builtin implements the control backend: it owns the user-facing IO tensors and
// the Permute kernels that hand tensors off between backends (and convert layouts).
//
// Its kernels are the only ones that may read one backend's tensor and write another's,
// which is why the compiler generates its kernels after every other backend has generated
// its tensors.
package builtin

import (
	"github.com/ljh9248/onert/backends"
)

// Config of the builtin backend.
type Config struct{}

// ID returns the reserved builtin backend id.
func (Config) ID() string { return backends.BuiltinID }

// Sync is a no-op: builtin kernels are synchronous host copies.
func (Config) Sync() {}

// Backend is the builtin control backend.
type Backend struct{}

// Compile-time check.
var _ backends.Backend = (*Backend)(nil)

// New returns the builtin backend.
func New() *Backend { return &Backend{} }

// Config implements backends.Backend.
func (b *Backend) Config() backends.Config { return Config{} }

// NewContext implements backends.Backend.
func (b *Backend) NewContext(data backends.ContextData) (backends.Context, error) {
	return &Context{backend: b, data: data, registry: backends.NewTensorRegistry()}, nil
}
