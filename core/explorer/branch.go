package explorer

import (
	"time"

	"github.com/bifrost-re/bifrost/core/vm"
)

// maxBranchDepth bounds recursion on adversarial bytecode (spec.md §9:
// "guard with explicit depth counters, ≤ 1024 for branches").
const maxBranchDepth = 1024

// Options configures one exploration run.
type Options struct {
	Deadline   time.Time
	Heuristics loopHeuristics
	MaxSteps   int // per straight-line segment, defends against runaway loops within one node
}

func DefaultOptions(deadline time.Time) Options {
	return Options{Deadline: deadline, Heuristics: defaultHeuristics(), MaxSteps: 100_000}
}

// Explorer drives interpretation forward from an entry pc, forking at every
// JUMPI and pruning loops per spec.md §4.4. One Explorer instance is used
// for one function's worth of exploration; handledJumps and branchCount are
// shared across the whole recursive descent.
type Explorer struct {
	opts         Options
	handledJumps map[jumpKey][]historicalStack
	branchCount  int
}

func New(opts Options) *Explorer {
	return &Explorer{opts: opts, handledJumps: make(map[jumpKey][]historicalStack)}
}

// BranchCount returns how many JUMPI forks were taken so far.
func (e *Explorer) BranchCount() int { return e.branchCount }

// Explore runs vm from its current pc, returning the execution tree rooted
// there. It returns nil if the deadline had already passed on entry (spec.md
// §4.4: "On deadline reached, return None").
func (e *Explorer) Explore(in *vm.Interpreter) *Trace {
	return e.explore(in, 0)
}

func (e *Explorer) explore(in *vm.Interpreter, depth int) *Trace {
	if time.Now().After(e.opts.Deadline) {
		return nil
	}
	if depth >= maxBranchDepth {
		return &Trace{EntryPC: in.PC, Abandoned: true, AbandonedBy: "max-depth"}
	}

	node := &Trace{EntryPC: in.PC}

	for step := 0; step < e.opts.MaxSteps; step++ {
		if vm.OpCode(codeAt(in, in.PC)) == vm.JUMPI {
			return e.forkJumpi(in, node, depth)
		}

		done, err := in.Step()
		if len(in.Records) > 0 {
			node.Records = append(node.Records, in.Records[len(in.Records)-1])
		}
		if err != nil {
			node.Abandoned = true
			node.AbandonedBy = "execution-error: " + err.Error()
			node.Exitcode = 255
			node.GasUsed = in.GasUsed
			return node
		}
		if done {
			node.Exitcode = in.Exitcode
			node.ReturnData = in.ReturnData
			node.GasUsed = in.GasUsed
			return node
		}
	}
	node.Abandoned = true
	node.AbandonedBy = "max-steps"
	node.GasUsed = in.GasUsed
	return node
}

func codeAt(in *vm.Interpreter, pc uint64) byte {
	if pc >= uint64(len(in.Code)) {
		return 0x00
	}
	return in.Code[pc]
}

// forkJumpi implements spec.md §4.4 steps 1-4 for a single JUMPI site.
func (e *Explorer) forkJumpi(in *vm.Interpreter, node *Trace, depth int) *Trace {
	destFrame, err := in.Stack.Peek(0)
	condFrame, errC := in.Stack.Peek(1)
	if err != nil || errC != nil {
		// malformed stack at a JUMPI: let Step surface the real stack error.
		done, stepErr := in.Step()
		_ = done
		node.Abandoned = true
		node.AbandonedBy = "execution-error"
		if stepErr != nil {
			node.AbandonedBy = "execution-error: " + stepErr.Error()
		}
		return node
	}

	var destConst uint64
	destIsConst := destFrame.Provenance.IsRaw()
	if destIsConst {
		destConst = destFrame.Value.Uint64()
	}
	conditionZero := condFrame.Value.IsZero()

	key := jumpKey{
		pc:            in.PC,
		destination:   destConst,
		stackSize:     in.Stack.Size(),
		conditionZero: conditionZero,
	}

	history := e.handledJumps[key]
	if fired := e.opts.Heuristics.evaluate(in.Stack, history, condFrame.Provenance); fired != "" {
		node.Abandoned = true
		node.AbandonedBy = fired
		return node
	}

	e.handledJumps[key] = append(history, historicalStack{frames: append([]vm.Frame(nil), in.Stack.Frames()...)})
	e.branchCount++

	// Execute the JUMPI itself on a clone for the true branch (taking the
	// jump), and on another clone for the false branch (falling through to
	// pc+1), so sibling branches never share state.
	trueVM := in.Clone()
	falseVM := in.Clone()

	trueVM.Stack.Pop() // destination
	trueVM.Stack.Pop() // condition
	if !destIsConst || !validJumpdest(trueVM, destConst) {
		// invalid/unknown jump target: record the failure as an abandoned child
		node.Children = append(node.Children, &Trace{EntryPC: in.PC, Abandoned: true, AbandonedBy: "invalid-jump-target"})
	} else {
		trueVM.PC = destConst
		if child := e.explore(trueVM, depth+1); child != nil {
			node.Children = append(node.Children, child)
		}
	}

	falseVM.Stack.Pop()
	falseVM.Stack.Pop()
	falseVM.PC = in.PC + 1
	if child := e.explore(falseVM, depth+1); child != nil {
		node.Children = append(node.Children, child)
	}

	return node
}

func validJumpdest(in *vm.Interpreter, dest uint64) bool {
	if dest >= uint64(len(in.Code)) {
		return false
	}
	return vm.OpCode(in.Code[dest]) == vm.JUMPDEST
}
