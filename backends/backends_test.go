package backends_test

import (
	"os"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/backends/builtin"
	"github.com/ljh9248/onert/backends/simplecpu"
)

func TestRegistry(t *testing.T) {
	registry, err := backends.NewRegistry(builtin.New(), simplecpu.New())
	require.NoError(t, err)

	assert.NotNil(t, registry.Builtin())
	assert.Equal(t, simplecpu.BackendID, registry.Get(simplecpu.BackendID).Config().ID())
	assert.Nil(t, registry.Get("npu"))

	// Registration order is preserved.
	ids := make([]string, 0, len(registry.All()))
	for _, backend := range registry.All() {
		ids = append(ids, backend.Config().ID())
	}
	assert.Equal(t, []string{backends.BuiltinID, simplecpu.BackendID}, ids)

	_, err = backends.NewRegistry(simplecpu.New(), simplecpu.New())
	require.ErrorContains(t, err, "duplicate")
}

func TestRegistryDefault(t *testing.T) {
	registry := must.M1(backends.NewRegistry(builtin.New(), simplecpu.New()))

	// Unset: the first non-builtin backend wins. Setenv first, so the test framework
	// restores the caller's value afterwards.
	t.Setenv(backends.ConfigEnvVar, "")
	must.M(os.Unsetenv(backends.ConfigEnvVar))
	backend, err := registry.Default()
	require.NoError(t, err)
	assert.Equal(t, simplecpu.BackendID, backend.Config().ID())

	t.Setenv(backends.ConfigEnvVar, simplecpu.BackendID)
	backend, err = registry.Default()
	require.NoError(t, err)
	assert.Equal(t, simplecpu.BackendID, backend.Config().ID())

	t.Setenv(backends.ConfigEnvVar, "npu")
	_, err = registry.Default()
	require.ErrorContains(t, err, "not registered")

	builtinOnly := must.M1(backends.NewRegistry(builtin.New()))
	must.M(os.Unsetenv(backends.ConfigEnvVar))
	_, err = builtinOnly.Default()
	require.Error(t, err)
}

func TestFunctionSequenceOrder(t *testing.T) {
	var trace []string
	step := func(name string) backends.Function {
		return backends.FunctionOf(func() error {
			trace = append(trace, name)
			return nil
		})
	}
	seq := backends.NewFunctionSequence(step("kernel"))
	seq.Append(step("dealloc"))
	seq.Prepend(step("sync"))
	require.NoError(t, seq.Prepare())
	require.NoError(t, seq.Run())
	assert.Equal(t, []string{"sync", "kernel", "dealloc"}, trace)
}
