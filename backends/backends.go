// Package backends defines the interface a compute backend needs to implement to execute
// part of a lowered graph: context creation over a partial graph, tensor generation,
// kernel generation, and the tensor/function abstractions shared with the executors.
//
// Backends are looked up through an explicit Registry constructed by the caller and passed
// into the compiler entry point -- there is no process-global registration.
package backends

import (
	"os"

	"github.com/pkg/errors"
)

// BuiltinID is the reserved Config.ID of the builtin control backend, which implements
// cross-backend tensor hand-off. The compiler processes it after every other backend.
const BuiltinID = "builtin"

// ConfigEnvVar is the environment variable naming the default backend to lower to, when
// the caller doesn't pick one explicitly.
const ConfigEnvVar = "ONERT_BACKEND"

// Config describes a backend to the compiler.
type Config interface {
	// ID returns the unique identifier of the backend, e.g. "cpu".
	ID() string

	// Sync blocks until all kernels dispatched by the backend have completed. For
	// synchronous backends it is a no-op. The compiler appends a Sync step to every
	// function sequence when profiling mode is on, so measured times cover true completion.
	Sync()
}

// Backend is a compute backend known to the compiler.
type Backend interface {
	// Config returns the backend's static description.
	Config() Config

	// NewContext creates the backend's runtime state for one compiled graph, from
	// the partition data produced by the compiler. Called once per compilation.
	NewContext(data ContextData) (Context, error)
}

// Registry is an explicit, caller-constructed set of backends, keyed by Config.ID.
// Iteration order over All is registration order, so compilation is deterministic.
type Registry struct {
	ordered []Backend
	byID    map[string]Backend
}

// NewRegistry builds a Registry over the given backends. Backend IDs must be unique.
func NewRegistry(backends ...Backend) (*Registry, error) {
	r := &Registry{byID: make(map[string]Backend, len(backends))}
	for _, backend := range backends {
		id := backend.Config().ID()
		if _, found := r.byID[id]; found {
			return nil, errors.Errorf("NewRegistry: duplicate backend id %q", id)
		}
		r.byID[id] = backend
		r.ordered = append(r.ordered, backend)
	}
	return r, nil
}

// Get returns the backend registered under id, or nil.
func (r *Registry) Get(id string) Backend { return r.byID[id] }

// All returns the registered backends in registration order.
func (r *Registry) All() []Backend { return r.ordered }

// Builtin returns the builtin control backend, or nil if none was registered.
func (r *Registry) Builtin() Backend { return r.byID[BuiltinID] }

// Default returns the backend operations should be lowered to by default: the one named by
// the ONERT_BACKEND environment variable if set, otherwise the first registered backend
// that is not the builtin one.
func (r *Registry) Default() (Backend, error) {
	if id, found := os.LookupEnv(ConfigEnvVar); found {
		backend := r.Get(id)
		if backend == nil {
			return nil, errors.Errorf("$%s=%q names a backend that is not registered", ConfigEnvVar, id)
		}
		return backend, nil
	}
	for _, backend := range r.ordered {
		if backend.Config().ID() != BuiltinID {
			return backend, nil
		}
	}
	return nil, errors.Errorf("no default backend: registry only holds the builtin backend")
}
