package compiler

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/ljh9248/onert/backends"
)

// resolveMigrants visits every operation and makes sure the consuming backend's registry
// can resolve every operand the operation touches. An operand the backend doesn't own must
// be found in the aggregate registry -- it has exactly one owner system-wide -- and be
// portable; it is then registered as a migrant (borrowed) entry.
//
// A missing owner is a consistency fault: the operand was never produced by any backend,
// which cannot happen in a correctly lowered graph. A non-portable owner consumed across
// backends is a backend-contract violation reported to the caller.
func resolveMigrants(lg *LoweredGraph, contexts map[backends.Backend]backends.Context,
	registries backends.TensorRegistries) error {
	whole := lg.Graph()
	for _, opIdx := range whole.OperationIndexes() {
		op := whole.Operation(opIdx)
		context := contexts[lg.OperationLowerInfo(opIdx).Backend]
		for _, idx := range op.IOOperands() {
			if context.Registry().Tensor(idx) != nil {
				continue
			}
			tensor := registries.Tensor(idx)
			if tensor == nil {
				exceptions.Panicf("operand %s consumed by operation %s was never produced by any backend",
					idx, opIdx)
			}
			portable, ok := tensor.(backends.PortableTensor)
			if !ok {
				return errors.Errorf(
					"operand %s is owned by another backend in a non-portable format; "+
						"operation %s on backend %q cannot consume it",
					idx, opIdx, context.Backend().Config().ID())
			}
			context.Registry().SetMigrantTensor(idx, portable)
		}
	}
	return nil
}
