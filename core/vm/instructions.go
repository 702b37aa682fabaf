package vm

import (
	"github.com/bifrost-re/bifrost/core/hardfork"
	"github.com/holiman/uint256"
)

// popN pops n frames, returning their concrete values and provenance in
// stack order (first popped is index 0).
func (in *Interpreter) popN(n int) ([]uint256.Int, []WrappedOpcode, error) {
	values := make([]uint256.Int, n)
	wrapped := make([]WrappedOpcode, n)
	for i := 0; i < n; i++ {
		f, err := in.Stack.Pop()
		if err != nil {
			return nil, nil, err
		}
		values[i] = f.Value
		wrapped[i] = f.Provenance
	}
	return values, wrapped, nil
}

func boolVal(b bool) uint256.Int {
	var v uint256.Int
	if b {
		v.SetOne()
	}
	return v
}

// execute dispatches op, mutating the interpreter's stack/memory/storage
// and filling in rec's popped/pushed columns. It implements spec.md §4.3
// steps 2-11 for one instruction.
func (in *Interpreter) execute(op OpCode, desc Descriptor, rec *InstructionRecord) error {
	if op.IsPush() {
		return in.execPush(op, rec)
	}
	if n, ok := op.IsDup(); ok {
		return in.execDup(n, rec)
	}
	if n, ok := op.IsSwap(); ok {
		return in.execSwap(n, rec)
	}
	if n, ok := op.IsLog(); ok {
		return in.execLog(n, rec)
	}

	switch op {
	case STOP:
		in.Exitcode = 0
		return nil
	case ADD, MUL, SUB, DIV, SDIV, MOD, SMOD, EXP, SIGNEXTEND:
		return in.execBinary(op, rec)
	case ADDMOD, MULMOD:
		return in.execTernary(op, rec)
	case LT, GT, SLT, SGT, EQ:
		return in.execCompare(op, rec)
	case ISZERO, NOT:
		return in.execUnary(op, rec)
	case AND, OR, XOR, BYTE, SHL, SHR, SAR:
		return in.execBinary(op, rec)
	case SHA3:
		return in.execSha3(rec)
	case ADDRESS, ORIGIN, CALLER, CALLVALUE, CALLDATASIZE, CODESIZE, GASPRICE,
		RETURNDATASIZE, COINBASE, TIMESTAMP, NUMBER, DIFFICULTY, GASLIMIT,
		CHAINID, SELFBALANCE, BASEFEE, BLOBBASEFEE, PC, MSIZE, GAS:
		return in.execNullary(op, rec)
	case BALANCE, EXTCODESIZE, EXTCODEHASH, BLOCKHASH, BLOBHASH:
		return in.execUnaryImpure(op, rec)
	case CALLDATALOAD:
		return in.execCalldataload(rec)
	case CALLDATACOPY, CODECOPY, RETURNDATACOPY:
		return in.execCopy(op, rec)
	case EXTCODECOPY:
		return in.execExtcodecopy(rec)
	case POP:
		_, err := in.Stack.Pop()
		return err
	case MLOAD:
		return in.execMload(rec)
	case MSTORE, MSTORE8:
		return in.execMstore(op, rec)
	case MCOPY:
		return in.execMcopy(rec)
	case SLOAD:
		return in.execSload(in.Storage, "SLOAD", rec)
	case SSTORE:
		return in.execSstore(in.Storage, rec)
	case TLOAD:
		return in.execSload(in.Transient, "TLOAD", rec)
	case TSTORE:
		return in.execSstore(in.Transient, rec)
	case JUMP:
		return in.execJump(rec)
	case JUMPI:
		return in.execJumpi(rec)
	case JUMPDEST:
		in.PC++
		return nil
	case CREATE, CREATE2:
		return in.execCreate(op, rec)
	case CALL, CALLCODE, DELEGATECALL, STATICCALL:
		return in.execCall(op, rec)
	case RETURN, REVERT:
		return in.execReturn(op, rec)
	case INVALID:
		return NewInvalidOpcodeError(byte(INVALID), "explicit INVALID")
	case SELFDESTRUCT:
		return in.execSelfdestruct(rec)
	default:
		return NewInvalidOpcodeError(byte(op), "unassigned opcode")
	}
}

func (in *Interpreter) execPush(op OpCode, rec *InstructionRecord) error {
	n := op.PushBytes()
	start := in.PC + 1
	end := start + uint64(n)
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		idx := start + uint64(i)
		if idx < uint64(len(in.Code)) {
			buf[i] = in.Code[idx]
		} // implicit zero-pad past end of code, treated as end-of-code per §4.3
	}
	var v uint256.Int
	v.SetBytes(buf)
	w := Raw(&v)
	if err := in.Stack.Push(Frame{Value: v, Provenance: w}); err != nil {
		return err
	}
	rec.PushedWrapped = []WrappedOpcode{w}
	in.PC += uint64(n) + 1
	return nil
}

func (in *Interpreter) execDup(n int, rec *InstructionRecord) error {
	f, err := in.Stack.Peek(n - 1)
	if err != nil {
		return err
	}
	if err := in.Stack.Push(f); err != nil {
		return err
	}
	rec.PushedWrapped = []WrappedOpcode{f.Provenance}
	in.PC++
	return nil
}

func (in *Interpreter) execSwap(n int, rec *InstructionRecord) error {
	if err := in.Stack.Swap(n); err != nil {
		return err
	}
	in.PC++
	return nil
}

func (in *Interpreter) execLog(topics int, rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(2 + topics)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	offset, size := vals[0].Uint64(), vals[1].Uint64()
	rec.MemoryWrite = nil
	_ = in.Memory.Read(offset, size)
	in.NonView = true
	in.PC++
	return nil
}

// execBinary covers every two-operand arithmetic/bitwise opcode except the
// boolean comparisons, which execCompare handles separately since they
// return bool before being coerced back to uint256.
func (in *Interpreter) execBinary(op OpCode, rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(2)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	x, y := vals[0], vals[1]
	var z uint256.Int
	switch op {
	case ADD:
		z.Add(&x, &y)
	case MUL:
		z.Mul(&x, &y)
	case SUB:
		z.Sub(&x, &y)
	case DIV:
		z.Div(&x, &y)
	case SDIV:
		z.SDiv(&x, &y)
	case MOD:
		z.Mod(&x, &y)
	case SMOD:
		z.SMod(&x, &y)
	case EXP:
		z.Exp(&x, &y)
	case SIGNEXTEND:
		z.ExtendSign(&y, &x)
	case AND:
		z.And(&x, &y)
	case OR:
		z.Or(&x, &y)
	case XOR:
		z.Xor(&x, &y)
	case BYTE:
		z = y
		z.Byte(&x)
	case SHL:
		if x.LtUint64(256) {
			z.Lsh(&y, uint(x.Uint64()))
		}
	case SHR:
		if x.LtUint64(256) {
			z.Rsh(&y, uint(x.Uint64()))
		}
	case SAR:
		if x.GtUint64(256) {
			if y.Sign() >= 0 {
				z.Clear()
			} else {
				z.SetAllOne()
			}
		} else {
			z.SRsh(&y, uint(x.Uint64()))
		}
	}
	w := New(op, wrapped...)
	if err := in.Stack.Push(Frame{Value: z, Provenance: w}); err != nil {
		return err
	}
	rec.PushedWrapped = []WrappedOpcode{w}
	in.PC++
	return nil
}

func (in *Interpreter) execTernary(op OpCode, rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(3)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	x, y, mod := vals[0], vals[1], vals[2]
	var z uint256.Int
	if !mod.IsZero() {
		switch op {
		case ADDMOD:
			z.AddMod(&x, &y, &mod)
		case MULMOD:
			z.MulMod(&x, &y, &mod)
		}
	}
	w := New(op, wrapped...)
	if err := in.Stack.Push(Frame{Value: z, Provenance: w}); err != nil {
		return err
	}
	rec.PushedWrapped = []WrappedOpcode{w}
	in.PC++
	return nil
}

func (in *Interpreter) execCompare(op OpCode, rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(2)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	x, y := vals[0], vals[1]
	var result bool
	switch op {
	case LT:
		result = x.Lt(&y)
	case GT:
		result = x.Gt(&y)
	case SLT:
		result = x.Slt(&y)
	case SGT:
		result = x.Sgt(&y)
	case EQ:
		result = x.Eq(&y)
	}
	z := boolVal(result)
	w := New(op, wrapped...)
	if err := in.Stack.Push(Frame{Value: z, Provenance: w}); err != nil {
		return err
	}
	rec.PushedWrapped = []WrappedOpcode{w}
	in.PC++
	return nil
}

func (in *Interpreter) execUnary(op OpCode, rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(1)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	x := vals[0]
	var z uint256.Int
	switch op {
	case ISZERO:
		z = boolVal(x.IsZero())
	case NOT:
		z.Not(&x)
	}
	w := New(op, wrapped...)
	if err := in.Stack.Push(Frame{Value: z, Provenance: w}); err != nil {
		return err
	}
	rec.PushedWrapped = []WrappedOpcode{w}
	in.PC++
	return nil
}

func (in *Interpreter) execSha3(rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(2)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	offset, size := vals[0].Uint64(), vals[1].Uint64()
	data := in.Memory.Read(offset, size)
	z := keccak(data)
	w := New(SHA3, wrapped...)
	if err := in.Stack.Push(Frame{Value: z, Provenance: w}); err != nil {
		return err
	}
	rec.PushedWrapped = []WrappedOpcode{w}
	in.PC++
	return nil
}

// execNullary covers opcodes with no stack input that return an
// environment/block value; outside a live chain context they return a
// deterministic zero placeholder, per spec.md §4.3 step 5.
func (in *Interpreter) execNullary(op OpCode, rec *InstructionRecord) error {
	var z uint256.Int
	switch op {
	case CALLDATASIZE:
		z.SetUint64(uint64(len(in.CallData)))
	case CODESIZE:
		z.SetUint64(uint64(len(in.Code)))
	case RETURNDATASIZE:
		z.SetUint64(uint64(len(in.ReturnData)))
	case MSIZE:
		z.SetUint64(uint64(in.Memory.Len()))
	case PC:
		z.SetUint64(in.PC)
	default:
		// ADDRESS, ORIGIN, CALLER, CALLVALUE, GASPRICE, COINBASE, TIMESTAMP,
		// NUMBER, DIFFICULTY, GASLIMIT, CHAINID, SELFBALANCE, BASEFEE,
		// BLOBBASEFEE, GAS: zero placeholder, no live chain context.
		if op != ADDRESS && op != CHAINID {
			in.Impure = true
		}
	}
	w := New(op)
	if err := in.Stack.Push(Frame{Value: z, Provenance: w}); err != nil {
		return err
	}
	rec.PushedWrapped = []WrappedOpcode{w}
	in.PC++
	return nil
}

func (in *Interpreter) execUnaryImpure(op OpCode, rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(1)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	in.Impure = true
	var z uint256.Int // deterministic zero placeholder (§4.3 step 5)
	w := New(op, wrapped...)
	if err := in.Stack.Push(Frame{Value: z, Provenance: w}); err != nil {
		return err
	}
	rec.PushedWrapped = []WrappedOpcode{w}
	in.PC++
	return nil
}

func (in *Interpreter) execCalldataload(rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(1)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	offset := vals[0].Uint64()
	buf := make([]byte, 32)
	for i := 0; i < 32; i++ {
		idx := offset + uint64(i)
		if idx < uint64(len(in.CallData)) {
			buf[i] = in.CallData[idx]
		}
	}
	var z uint256.Int
	z.SetBytes(buf)
	w := New(CALLDATALOAD, wrapped...)
	if err := in.Stack.Push(Frame{Value: z, Provenance: w}); err != nil {
		return err
	}
	rec.PushedWrapped = []WrappedOpcode{w}
	in.PC++
	return nil
}

func (in *Interpreter) execCopy(op OpCode, rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(3)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	destOffset, srcOffset, size := vals[0].Uint64(), vals[1].Uint64(), vals[2].Uint64()

	var src []byte
	switch op {
	case CALLDATACOPY:
		src = in.CallData
	case CODECOPY:
		src = in.Code
	case RETURNDATACOPY:
		src = in.ReturnData
	}
	buf := make([]byte, size)
	for i := uint64(0); i < size; i++ {
		idx := srcOffset + i
		if idx < uint64(len(src)) {
			buf[i] = src[idx]
		}
	}
	w := New(op, wrapped...)
	in.Memory.Store(destOffset, size, buf, w)
	rec.MemoryWrite = &MemoryWrite{Offset: destOffset, Size: size}
	in.PC++
	return nil
}

func (in *Interpreter) execExtcodecopy(rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(4)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	in.Impure = true
	destOffset, size := vals[1].Uint64(), vals[3].Uint64()
	w := New(EXTCODECOPY, wrapped...)
	in.Memory.Store(destOffset, size, nil, w) // no live chain context: zero bytes
	rec.MemoryWrite = &MemoryWrite{Offset: destOffset, Size: size}
	in.PC++
	return nil
}

func (in *Interpreter) execMload(rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(1)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	offset := vals[0].Uint64()
	data := in.Memory.Read(offset, 32)
	var z uint256.Int
	z.SetBytes(data)
	w := New(MLOAD, wrapped...)
	if err := in.Stack.Push(Frame{Value: z, Provenance: w}); err != nil {
		return err
	}
	rec.PushedWrapped = []WrappedOpcode{w}
	in.PC++
	return nil
}

func (in *Interpreter) execMstore(op OpCode, rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(2)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	offset := vals[0].Uint64()
	val := vals[1]
	w := New(op, wrapped...)
	if op == MSTORE8 {
		b := val.Bytes32()
		in.Memory.Store(offset, 1, b[31:32], w)
		rec.MemoryWrite = &MemoryWrite{Offset: offset, Size: 1}
	} else {
		b := val.Bytes32()
		in.Memory.Store(offset, 32, b[:], w)
		rec.MemoryWrite = &MemoryWrite{Offset: offset, Size: 32}
	}
	in.PC++
	return nil
}

func (in *Interpreter) execMcopy(rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(3)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	dst, src, size := vals[0].Uint64(), vals[1].Uint64(), vals[2].Uint64()
	w := New(MCOPY, wrapped...)
	in.Memory.Copy(dst, src, size, w)
	rec.MemoryWrite = &MemoryWrite{Offset: dst, Size: size}
	in.PC++
	return nil
}

func (in *Interpreter) execSload(store *Storage, mnemonic string, rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(1)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	in.Impure = true
	slot := vals[0]
	if mnemonic == "SLOAD" {
		warm := in.warmSlot(slot)
		if err := in.chargeGas("SLOAD", hardfork.SloadGas(in.Fork, warm)); err != nil {
			return err
		}
	}
	z := store.Load(slot)
	op := SLOAD
	if mnemonic == "TLOAD" {
		op = TLOAD
	}
	w := New(op, wrapped...)
	if err := in.Stack.Push(Frame{Value: z, Provenance: w}); err != nil {
		return err
	}
	rec.PushedWrapped = []WrappedOpcode{w}
	in.PC++
	return nil
}

func (in *Interpreter) execSstore(store *Storage, rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(2)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	in.NonView = true
	slot, val := vals[0], vals[1]
	w := New(SSTORE, wrapped...)
	store.Store(slot, val, w)
	rec.StorageWrite = &StorageWrite{Slot: slot, Value: val}
	in.PC++
	return nil
}

func (in *Interpreter) execJump(rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(1)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	dest := vals[0].Uint64()
	if !in.jumpdests()[dest] {
		return NewInvalidJumpError(dest)
	}
	// JUMP sets pc to exactly the destination; the next Step executes the
	// JUMPDEST itself. No +1 fixup (spec.md §9 design note).
	in.PC = dest
	return nil
}

func (in *Interpreter) execJumpi(rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(2)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	dest := vals[0].Uint64()
	cond := vals[1]
	if cond.IsZero() {
		in.PC++
		return nil
	}
	if !in.jumpdests()[dest] {
		return NewInvalidJumpError(dest)
	}
	in.PC = dest
	return nil
}

func (in *Interpreter) execCreate(op OpCode, rec *InstructionRecord) error {
	n := 3
	if op == CREATE2 {
		n = 4
	}
	vals, wrapped, err := in.popN(n)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	in.NonView = true
	var z uint256.Int // synthetic: no address produced without live chain state
	w := New(op, wrapped...)
	if err := in.Stack.Push(Frame{Value: z, Provenance: w}); err != nil {
		return err
	}
	rec.PushedWrapped = []WrappedOpcode{w}
	in.PC++
	return nil
}

// execCall covers CALL/CALLCODE/DELEGATECALL/STATICCALL. It synthesizes a
// success=1 result (spec.md §4.3 step 5 / §5.11 "external calls return
// synthetic success markers") and flags non-purity; CALL/CALLCODE also
// flag non-view since they can transfer value and touch state.
func (in *Interpreter) execCall(op OpCode, rec *InstructionRecord) error {
	n := 7
	if op == DELEGATECALL || op == STATICCALL {
		n = 6
	}
	vals, wrapped, err := in.popN(n)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	in.Impure = true
	if op == CALL || op == CALLCODE {
		in.NonView = true
	}
	z := boolVal(true)
	w := New(op, wrapped...)
	if err := in.Stack.Push(Frame{Value: z, Provenance: w}); err != nil {
		return err
	}
	rec.PushedWrapped = []WrappedOpcode{w}
	in.PC++
	return nil
}

func (in *Interpreter) execReturn(op OpCode, rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(2)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	offset, size := vals[0].Uint64(), vals[1].Uint64()
	data := in.Memory.Read(offset, size)
	in.ReturnData = data
	if op == RETURN {
		in.Exitcode = 0
	} else {
		in.Exitcode = 1
	}
	return nil
}

func (in *Interpreter) execSelfdestruct(rec *InstructionRecord) error {
	vals, wrapped, err := in.popN(1)
	if err != nil {
		return err
	}
	rec.PoppedValues, rec.PoppedWrapped = vals, wrapped
	in.NonView = true
	in.Exitcode = 0
	return nil
}
