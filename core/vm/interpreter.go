package vm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/bifrost-re/bifrost/core/hardfork"
	"github.com/holiman/uint256"
)

// ExternalCallResult is the synthetic outcome the interpreter manufactures
// for CALL-family opcodes when there is no live chain context to actually
// perform the call, per spec.md §4.3. success=1 is the deterministic
// placeholder for CALL/CALLCODE/DELEGATECALL/STATICCALL; BALANCE/EXTCODE*
// return zero.
type ExternalCallResult struct {
	Success    bool
	ReturnData []byte
}

// Interpreter executes one contract's bytecode over symbolic inputs. All
// mutable execution state (stack/memory/storage/pc/gas) is owned by one
// instance and cloned wholesale on branch fork (spec.md §3 Lifecycles).
type Interpreter struct {
	Code      []byte
	CallData  []byte
	PC        uint64
	Stack     *Stack
	Memory    *Memory
	Storage   *Storage
	Transient *Storage
	GasUsed   uint64
	GasLimit  uint64
	warmSlots map[uint256.Int]bool

	Fork hardfork.Fork

	// Impure/NonView are set by any step that touches external/chain state;
	// the function analyzer reads these at branch termination to classify
	// pure/view/payable (spec.md §4.6).
	Impure  bool
	NonView bool

	// Exitcode and ReturnData are set by a terminating opcode.
	Exitcode   int
	ReturnData []byte
	Terminated bool

	// Records accumulates one InstructionRecord per step for the branch
	// explorer to fold into a VMTrace.
	Records []InstructionRecord

	// destinations caches valid JUMPDEST offsets for this Code, lazily
	// computed on first jump validation, exactly as go-ethereum's analysis
	// bitmap does (spec.md's jumpdest validity check).
	destinations map[uint64]bool
}

// InstructionRecord is the per-step unit the analyzer consumes (spec.md §3).
type InstructionRecord struct {
	PC             uint64
	Opcode         byte
	Descriptor     Descriptor
	PoppedValues   []uint256.Int
	PoppedWrapped  []WrappedOpcode
	PushedWrapped  []WrappedOpcode
	MemoryWrite    *MemoryWrite
	StorageWrite   *StorageWrite
	TransientWrite *StorageWrite
}

type MemoryWrite struct {
	Offset, Size uint64
}

type StorageWrite struct {
	Slot  uint256.Int
	Value uint256.Int
}

// New constructs an interpreter positioned at pc 0 over the given runtime
// bytecode and calldata.
func New(code, calldata []byte, fork hardfork.Fork) *Interpreter {
	return &Interpreter{
		Code:      code,
		CallData:  calldata,
		Stack:     NewStack(),
		Memory:    NewMemory(),
		Storage:   NewStorage(),
		Transient: NewStorage(),
		Fork:      fork,
	}
}

// Clone deep-copies the interpreter's state so sibling branches never share
// mutable state, per spec.md §4.4 ("the explorer always clones the VM
// before recursing").
func (in *Interpreter) Clone() *Interpreter {
	records := make([]InstructionRecord, len(in.Records))
	copy(records, in.Records)
	warm := make(map[uint256.Int]bool, len(in.warmSlots))
	for k, v := range in.warmSlots {
		warm[k] = v
	}
	return &Interpreter{
		Code:         in.Code,
		CallData:     in.CallData,
		PC:           in.PC,
		Stack:        in.Stack.Clone(),
		Memory:       in.Memory.Clone(),
		Storage:      in.Storage.Clone(),
		Transient:    in.Transient.Clone(),
		GasUsed:      in.GasUsed,
		GasLimit:     in.GasLimit,
		warmSlots:    warm,
		Fork:         in.Fork,
		Impure:       in.Impure,
		NonView:      in.NonView,
		Exitcode:     in.Exitcode,
		Terminated:   in.Terminated,
		Records:      records,
		destinations: in.destinations,
	}
}

func (in *Interpreter) jumpdests() map[uint64]bool {
	if in.destinations != nil {
		return in.destinations
	}
	dests := make(map[uint64]bool)
	for pc := uint64(0); pc < uint64(len(in.Code)); {
		op := OpCode(in.Code[pc])
		if op == JUMPDEST {
			dests[pc] = true
			pc++
			continue
		}
		if n := op.PushBytes(); n > 0 {
			pc += uint64(n) + 1
			continue
		}
		pc++
	}
	in.destinations = dests
	return dests
}

// codeByte returns the byte at pc, or an implicit STOP (0x00) past the end
// of code, per spec.md §4.3 step 1.
func (in *Interpreter) codeByte(pc uint64) byte {
	if pc >= uint64(len(in.Code)) {
		return byte(STOP)
	}
	return in.Code[pc]
}

// Step executes exactly one instruction. It returns true if execution
// terminated (STOP/RETURN/REVERT/INVALID/SELFDESTRUCT or implicit end of
// code), and an error for any branch-local failure (spec.md's Failure
// semantics: these terminate the branch, they are not propagated upward by
// callers such as the branch explorer).
func (in *Interpreter) Step() (terminated bool, err error) {
	if in.Terminated {
		return true, nil
	}
	opByte := in.codeByte(in.PC)
	op := OpCode(opByte)
	desc := Info(opByte)

	if !hardfork.IsValidOpcode(opByte, in.Fork) {
		return in.fail(NewInvalidOpcodeError(opByte, fmt.Sprintf("not valid before %s", in.Fork)))
	}

	if in.GasLimit != 0 && op != SLOAD {
		if err := in.chargeGas(desc.Mnemonic, desc.MinGas); err != nil {
			return in.fail(err)
		}
	}

	if in.Stack.Size() < desc.StackIn {
		return in.fail(NewStackError(desc.Mnemonic, desc.StackIn, in.Stack.Size(), nil))
	}
	if in.Stack.Size()-desc.StackIn+desc.StackOut > maxStackDepth {
		return in.fail(NewStackError(desc.Mnemonic, desc.StackOut, maxStackDepth-in.Stack.Size(), nil))
	}

	rec := InstructionRecord{PC: in.PC, Opcode: opByte, Descriptor: desc}

	if err := in.execute(op, desc, &rec); err != nil {
		return in.fail(err)
	}

	in.Records = append(in.Records, rec)

	if desc.Terminating {
		in.Terminated = true
		return true, nil
	}
	return false, nil
}

// chargeGas charges gas against GasLimit, failing with a GasError when the
// budget would be exceeded. A GasLimit of zero disables metering entirely
// (used by analysis callers that only care about control flow).
func (in *Interpreter) chargeGas(op string, gas uint64) error {
	if in.GasLimit == 0 {
		return nil
	}
	if in.GasUsed+gas > in.GasLimit {
		return NewGasError(op, gas, in.GasLimit-in.GasUsed)
	}
	in.GasUsed += gas
	return nil
}

// warmSlot reports whether slot has been accessed before in this top-level
// call, per EIP-2929's access-list gas model, and marks it warm regardless.
func (in *Interpreter) warmSlot(slot uint256.Int) bool {
	if in.warmSlots == nil {
		in.warmSlots = make(map[uint256.Int]bool)
	}
	warm := in.warmSlots[slot]
	in.warmSlots[slot] = true
	return warm
}

func (in *Interpreter) fail(err error) (bool, error) {
	in.Terminated = true
	in.Exitcode = 255
	return true, err
}

// Run drives Step until termination, a branch-local failure, or maxSteps
// steps without terminating, which is also reported as an error. The
// instruction records accumulate in Records either way (spec.md's "returns
// its best-effort trace" policy lives one level up, in the branch explorer).
func (in *Interpreter) Run(maxSteps int) error {
	for i := 0; i < maxSteps; i++ {
		done, err := in.Step()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return fmt.Errorf("exceeded max steps %d without terminating", maxSteps)
}

func keccak(data []byte) uint256.Int {
	h := crypto.Keccak256(data)
	var v uint256.Int
	v.SetBytes(h)
	return v
}
