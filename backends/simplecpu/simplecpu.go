// Package simplecpu implements a small, portable pure-Go compute backend.
//
// It covers the handful of operation types the runtime's tests exercise. Kernels work on a
// float32 view of the data, so every dtype the ir package can decode is accepted; speed is
// not a goal here.
package simplecpu

import (
	"github.com/ljh9248/onert/backends"
)

// BackendID to register the backend under.
const BackendID = "cpu"

// Config of the simplecpu backend.
type Config struct{}

// ID implements backends.Config.
func (Config) ID() string { return BackendID }

// Sync implements backends.Config. Kernels run inline, so there is nothing to wait for.
func (Config) Sync() {}

// Backend is the simplecpu backend.
type Backend struct{}

// Compile-time check.
var _ backends.Backend = (*Backend)(nil)

// New returns a simplecpu backend.
func New() *Backend { return &Backend{} }

// Config implements backends.Backend.
func (b *Backend) Config() backends.Config { return Config{} }

// NewContext implements backends.Backend.
func (b *Backend) NewContext(data backends.ContextData) (backends.Context, error) {
	return &Context{backend: b, data: data, registry: backends.NewTensorRegistry()}, nil
}
