package exec

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ljh9248/onert/backends"
	"github.com/ljh9248/onert/backends/builtin"
	"github.com/ljh9248/onert/ir"
)

// ioBridge links one graph input/output to the runtime: the user-facing IO tensor the
// caller's buffer is bound to, and the backend tensor that owns the operand.
type ioBridge struct {
	idx   ir.OperandIndex
	user  *builtin.IOTensor
	owner backends.PortableTensor
}

// executorBase holds the state shared by the three executor variants.
type executorBase struct {
	id         uuid.UUID
	graph      *ir.Graph
	contexts   []backends.Context
	registries backends.TensorRegistries
	codeMap    CodeMap

	inputs  []ioBridge
	outputs []ioBridge

	observers []ExecutionObserver

	prepareOnce sync.Once
	prepareErr  error

	runMu sync.Mutex // One graph invocation at a time.
}

func newExecutorBase(p Params) (*executorBase, error) {
	e := &executorBase{
		id:         uuid.New(),
		graph:      p.Graph,
		contexts:   p.Contexts,
		registries: p.Registries,
		codeMap:    p.CodeMap,
	}
	var err error
	e.inputs, err = bridges(p.Graph.Inputs(), p.InputTensors, p.Registries)
	if err != nil {
		return nil, errors.WithMessage(err, "graph inputs")
	}
	e.outputs, err = bridges(p.Graph.Outputs(), p.OutputTensors, p.Registries)
	if err != nil {
		return nil, errors.WithMessage(err, "graph outputs")
	}
	return e, nil
}

func bridges(indexes []ir.OperandIndex, users []*builtin.IOTensor,
	registries backends.TensorRegistries) ([]ioBridge, error) {
	if len(indexes) != len(users) {
		return nil, errors.Errorf("%d IO tensors for %d graph IO operands", len(users), len(indexes))
	}
	result := make([]ioBridge, len(indexes))
	for ii, idx := range indexes {
		tensor := registries.Tensor(idx)
		if tensor == nil {
			return nil, errors.Errorf("no backend generated a tensor for IO operand %s", idx)
		}
		owner, ok := tensor.(backends.PortableTensor)
		if !ok {
			return nil, errors.Errorf("tensor for IO operand %s is not portable", idx)
		}
		result[ii] = ioBridge{idx: idx, user: users[ii], owner: owner}
	}
	return result, nil
}

// ID implements Executor.
func (e *executorBase) ID() uuid.UUID { return e.id }

// Graph implements Executor.
func (e *executorBase) Graph() *ir.Graph { return e.graph }

// AddObserver implements Executor.
func (e *executorBase) AddObserver(observer ExecutionObserver) {
	e.observers = append(e.observers, observer)
}

// Prepare implements Executor.
func (e *executorBase) Prepare() error {
	e.prepareOnce.Do(func() {
		for _, opIdx := range e.graph.TopologicalSort() {
			entry := e.codeMap[opIdx]
			if entry == nil {
				e.prepareErr = errors.Errorf("operation %s has no compiled code", opIdx)
				return
			}
			if err := entry.FnSeq.Prepare(); err != nil {
				e.prepareErr = errors.WithMessagef(err, "preparing %s %s", entry.Operation.Type(), opIdx)
				return
			}
		}
	})
	return e.prepareErr
}

// run binds the caller's buffers, stages inputs into the owning tensors, delegates to the
// variant-specific execute, and stages outputs back out.
func (e *executorBase) run(inputs, outputs [][]byte, execute func() error) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if err := e.Prepare(); err != nil {
		return err
	}
	if len(inputs) != len(e.inputs) {
		return errors.Errorf("Run: graph takes %d inputs, got %d", len(e.inputs), len(inputs))
	}
	if len(outputs) != len(e.outputs) {
		return errors.Errorf("Run: graph produces %d outputs, got %d", len(e.outputs), len(outputs))
	}
	defer func() {
		for _, bridge := range e.inputs {
			bridge.user.ClearBacking()
		}
		for _, bridge := range e.outputs {
			bridge.user.ClearBacking()
		}
	}()
	for ii, bridge := range e.inputs {
		if err := bridge.user.SetBacking(inputs[ii]); err != nil {
			return errors.WithMessagef(err, "input #%d (operand %s)", ii, bridge.idx)
		}
		if err := stageIn(bridge); err != nil {
			return errors.WithMessagef(err, "input #%d (operand %s)", ii, bridge.idx)
		}
	}
	for ii, bridge := range e.outputs {
		if err := bridge.user.SetBacking(outputs[ii]); err != nil {
			return errors.WithMessagef(err, "output #%d (operand %s)", ii, bridge.idx)
		}
	}

	if err := execute(); err != nil {
		return err
	}

	for ii, bridge := range e.outputs {
		if err := stageOut(bridge); err != nil {
			return errors.WithMessagef(err, "output #%d (operand %s)", ii, bridge.idx)
		}
	}
	return nil
}

// stageIn copies the caller's input into the tensor owning the operand.
func stageIn(bridge ioBridge) error {
	if bridge.owner == bridge.user {
		return nil
	}
	if bridge.owner.Flat() == nil {
		if err := bridge.owner.Resize(bridge.owner.Shape()); err != nil {
			return err
		}
	}
	if len(bridge.owner.Flat()) != len(bridge.user.Flat()) {
		return errors.Errorf("owning tensor of shape %s doesn't fit %d input bytes",
			bridge.owner.Shape(), len(bridge.user.Flat()))
	}
	copy(bridge.owner.Flat(), bridge.user.Flat())
	return nil
}

// stageOut copies the operand's owning tensor into the caller's output buffer.
func stageOut(bridge ioBridge) error {
	if bridge.owner == bridge.user {
		return nil
	}
	flat := bridge.owner.Flat()
	if flat == nil {
		return errors.Errorf("output tensor was never written")
	}
	if len(flat) != len(bridge.user.Flat()) {
		return errors.Errorf("owning tensor holds %d bytes, output buffer takes %d",
			len(flat), len(bridge.user.Flat()))
	}
	copy(bridge.user.Flat(), flat)
	return nil
}

// runEntry executes one operation's function sequence, notifying observers around it.
func (e *executorBase) runEntry(entry *CodeEntry) error {
	for _, observer := range e.observers {
		observer.JobBegin(e.id, entry)
	}
	err := entry.FnSeq.Run()
	for _, observer := range e.observers {
		observer.JobEnd(e.id, entry, err)
	}
	if err != nil {
		return errors.WithMessagef(err, "running %s %s on backend %q",
			entry.Operation.Type(), entry.OpIdx, entry.Backend.Config().ID())
	}
	return nil
}
