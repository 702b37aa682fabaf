// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package decompile walks an execution tree per function and emits Solidity
// (or Yul) fragments, per spec.md §4.6, then post-processes the result
// (§4.7).
package decompile

import (
	"fmt"
	"strings"

	"github.com/bifrost-re/bifrost/core/explorer"
	"github.com/bifrost-re/bifrost/core/lifter"
	"github.com/bifrost-re/bifrost/core/vm"
	"github.com/holiman/uint256"
)

// errorStringSelectorHex and panicSelectorHex are the compiler-inserted
// revert encodings: Error(string) and Panic(uint256).
const (
	errorStringSelectorHex = "08c379a0"
	panicSelectorHex       = "4e487b71"
)

// Argument is one inferred calldata parameter.
type Argument struct {
	Index          int
	CandidateTypes map[string]bool
	DynamicOffset  string // non-empty if k was "4 + expr" rather than a constant slot
}

// Event is one LOG site resolved against topic0.
type Event struct {
	Topic0   vm.WrappedOpcode
	Name     string // filled in by post-processing once a signature resolves
	TopicLit string
}

// CustomError is one non-standard 4-byte revert selector encountered.
type CustomError struct {
	Selector [4]byte
}

// Function is the result of analyzing one selector's execution tree.
type Function struct {
	Selector [4]byte
	EntryPC  uint64

	Arguments    map[int]*Argument
	StorageSlots map[string]vm.WrappedOpcode // key: slot's lifted form
	MemoryMap    map[uint64]vm.WrappedOpcode
	Events       []Event
	Errors       []CustomError

	Pure, View, Payable bool
	sawCallvalueGuard   bool // require(msg.value == 0)-shaped JUMPI seen in the dispatcher region

	ReturnType string
	Body       []string // Solidity-flavored lines, nested by indentation

	Notices []string // degraded-analysis NOTICE lines, per spec.md's Failure semantics
}

type analyzer struct {
	fn    *Function
	yul   bool
	depth int
}

// Analyze walks trace — the execution tree returned by the branch explorer
// for one selector's entry pc — and produces a Function.
func Analyze(selector [4]byte, entryPC uint64, trace *explorer.Trace, emitYul bool) *Function {
	fn := &Function{
		Selector:     selector,
		EntryPC:      entryPC,
		Arguments:    make(map[int]*Argument),
		StorageSlots: make(map[string]vm.WrappedOpcode),
		MemoryMap:    make(map[uint64]vm.WrappedOpcode),
		Pure:         true,
		View:         true,
	}
	a := &analyzer{fn: fn, yul: emitYul}
	a.visit(trace)
	fn.Payable = !fn.sawCallvalueGuard
	return fn
}

func (a *analyzer) emit(line string) {
	a.fn.Body = append(a.fn.Body, strings.Repeat("    ", a.depth)+line)
}

func (a *analyzer) lift(w vm.WrappedOpcode) string {
	if a.yul {
		return lifter.Yulify(w)
	}
	return lifter.Solidify(w)
}

func (a *analyzer) visit(node *explorer.Trace) {
	if node == nil {
		return
	}
	for _, rec := range node.Records {
		a.visitRecord(rec)
	}

	if node.Abandoned {
		a.emit(fmt.Sprintf("// NOTICE: branch abandoned (%s)", node.AbandonedBy))
		a.fn.Notices = append(a.fn.Notices, fmt.Sprintf("branch at pc=%d abandoned: %s", node.EntryPC, node.AbandonedBy))
		return
	}

	switch len(node.Children) {
	case 0:
		a.emitTerminal(node)
	case 2:
		// node.Children[0] is the condition-true branch (taken jump),
		// node.Children[1] is condition-false (fall-through), matching
		// forkJumpi's append order.
		a.depth++
		a.visit(node.Children[0])
		a.depth--
		a.emit("} else {")
		a.depth++
		a.visit(node.Children[1])
		a.depth--
		a.emit("}")
	default:
		for _, c := range node.Children {
			a.visit(c)
		}
	}
}

func (a *analyzer) emitTerminal(node *explorer.Trace) {
	switch node.Exitcode {
	case 0:
		if len(node.ReturnData) > 0 {
			a.emit(fmt.Sprintf("return; // %d bytes returned", len(node.ReturnData)))
		} else {
			a.emit("return;")
		}
	case 1:
		a.emitRevert(node.ReturnData)
	default:
		if node.Abandoned {
			return
		}
		a.emit(fmt.Sprintf("// NOTICE: execution error (exitcode %d)", node.Exitcode))
	}
}

func (a *analyzer) visitRecord(rec vm.InstructionRecord) {
	op := vm.OpCode(rec.Opcode)

	switch {
	case op == vm.CALLDATALOAD:
		a.handleCalldataload(rec)
	case op == vm.AND:
		a.handleAndMask(rec)
	case op == vm.ISZERO:
		a.handleIszero(rec)
	case op == vm.ADD || op == vm.SUB || op == vm.MUL || op == vm.DIV || op == vm.SDIV || op == vm.MOD || op == vm.SMOD || op == vm.EXP:
		a.tagArgumentHeuristic(rec, "integer")
	case op == vm.SHL || op == vm.SHR || op == vm.SAR || op == vm.BYTE:
		a.tagArgumentHeuristic(rec, "bytes")
	case op == vm.SLOAD:
		a.handleSload(rec)
	case op == vm.SSTORE:
		a.handleSstore(rec)
	case op == vm.MSTORE || op == vm.MSTORE8 || op == vm.MCOPY:
		a.handleMemoryWrite(rec)
	case op == vm.CALL || op == vm.STATICCALL || op == vm.DELEGATECALL || op == vm.CALLCODE:
		a.handleExternalCall(op)
	case op == vm.CREATE || op == vm.CREATE2:
		a.handleCreate()
	case op == vm.RETURN:
		a.handleReturn(rec)
	case rec.Descriptor.Mnemonic == "LOG0" || rec.Descriptor.Mnemonic == "LOG1" ||
		rec.Descriptor.Mnemonic == "LOG2" || rec.Descriptor.Mnemonic == "LOG3" || rec.Descriptor.Mnemonic == "LOG4":
		a.handleLog(rec)
	}

	if !rec.Descriptor.Pure {
		a.fn.Pure = false
	}
	if !rec.Descriptor.View {
		a.fn.View = false
	}
}

// handleCalldataload registers the argument slot for a constant offset ≥ 4,
// per spec.md §4.6's first bullet.
func (a *analyzer) handleCalldataload(rec vm.InstructionRecord) {
	if len(rec.PoppedWrapped) == 0 {
		return
	}
	offset := rec.PoppedWrapped[0]
	if offset.IsRaw() {
		v := offset.RawValue()
		if v.IsUint64() {
			k := v.Uint64()
			if k >= 4 && (k-4)%32 == 0 {
				idx := int((k - 4) / 32)
				a.argument(idx)
				return
			}
		}
	}
	// dynamic offset: "4 + expr" form. Every dynamic offset shares the one
	// synthetic slot -1, whose DynamicOffset holds the most recent lifted
	// offset.
	arg := a.argument(-1)
	arg.DynamicOffset = a.lift(offset)
}

func (a *analyzer) argument(idx int) *Argument {
	if arg, ok := a.fn.Arguments[idx]; ok {
		return arg
	}
	arg := &Argument{Index: idx, CandidateTypes: make(map[string]bool)}
	a.fn.Arguments[idx] = arg
	return arg
}

// handleAndMask narrows the masked argument's candidate type-set per the
// byte-width table in spec.md §4.6.
func (a *analyzer) handleAndMask(rec vm.InstructionRecord) {
	if len(rec.PoppedWrapped) != 2 {
		return
	}
	mask, operand := rec.PoppedValues[0], rec.PoppedWrapped[1]
	if !isContiguousLowMask(mask) {
		mask, operand = rec.PoppedValues[1], rec.PoppedWrapped[0]
		if !isContiguousLowMask(mask) {
			return
		}
	}
	idx, ok := calldataArgIndex(operand)
	if !ok {
		return
	}
	width := maskByteWidth(mask)
	arg := a.argument(idx)
	for _, t := range candidateTypesForWidth(width) {
		arg.CandidateTypes[t] = true
	}
}

// handleIszero unions bool into the operand's candidate types when the
// operand is itself a CALLDATALOAD result.
func (a *analyzer) handleIszero(rec vm.InstructionRecord) {
	if len(rec.PoppedWrapped) != 1 {
		return
	}
	operand := rec.PoppedWrapped[0]
	if operand.Opcode == vm.CALLVALUE {
		a.fn.sawCallvalueGuard = true
		return
	}
	idx, ok := calldataArgIndex(operand)
	if !ok {
		return
	}
	a.argument(idx).CandidateTypes["bool"] = true
}

func (a *analyzer) tagArgumentHeuristic(rec vm.InstructionRecord, tag string) {
	for _, w := range rec.PoppedWrapped {
		if idx, ok := calldataArgIndex(w); ok {
			a.argument(idx).CandidateTypes[tag] = true
		}
	}
}

func (a *analyzer) handleSload(rec vm.InstructionRecord) {
	if len(rec.PushedWrapped) == 0 {
		return
	}
	w := rec.PushedWrapped[0]
	if len(w.Inputs) == 0 {
		return
	}
	key := a.lift(w.Inputs[0])
	a.emit(fmt.Sprintf("// read storage[%s]", key))
}

func (a *analyzer) handleSstore(rec vm.InstructionRecord) {
	if rec.StorageWrite == nil {
		return
	}
	key := uint256Hex(rec.StorageWrite.Slot)
	var valueExpr vm.WrappedOpcode
	if len(rec.PoppedWrapped) == 2 {
		valueExpr = rec.PoppedWrapped[1]
	}
	a.fn.StorageSlots[key] = valueExpr
	a.emit(fmt.Sprintf("storage[%s] = %s;", key, a.lift(valueExpr)))
}

func (a *analyzer) handleMemoryWrite(rec vm.InstructionRecord) {
	if rec.MemoryWrite == nil {
		return
	}
	var w vm.WrappedOpcode
	if len(rec.PoppedWrapped) > 0 {
		w = rec.PoppedWrapped[len(rec.PoppedWrapped)-1]
	}
	a.fn.MemoryMap[rec.MemoryWrite.Offset] = w
}

// handleReturn infers fn.ReturnType from the producer of the memory range
// RETURN sends back, per spec.md §4.6's RETURN bullet: a boundary test
// (ISZERO) narrows to bool, an AND mask narrows to its width, a payload
// wider than one word is bytes memory, and anything else keeps the default
// word-sized uint256. A later branch's RETURN never overwrites a type
// already settled by an earlier one.
func (a *analyzer) handleReturn(rec vm.InstructionRecord) {
	if a.fn.ReturnType != "" || len(rec.PoppedValues) != 2 {
		return
	}
	offset, size := rec.PoppedValues[0].Uint64(), rec.PoppedValues[1].Uint64()
	if size == 0 {
		return
	}
	if size > 32 {
		a.fn.ReturnType = "bytes memory"
		return
	}
	producer, ok := a.fn.MemoryMap[offset]
	if !ok {
		a.fn.ReturnType = "uint256"
		return
	}
	a.fn.ReturnType = returnTypeFromProducer(producer)
}

// returnTypeFromProducer maps the WrappedOpcode that built the returned
// word to a Solidity type, per spec.md §4.6.
func returnTypeFromProducer(w vm.WrappedOpcode) string {
	switch w.Opcode {
	case vm.ISZERO:
		return "bool"
	case vm.AND:
		for _, in := range w.Inputs {
			if !in.IsRaw() {
				continue
			}
			mask := in.RawValue()
			if !isContiguousLowMask(mask) {
				continue
			}
			width := maskByteWidth(mask)
			switch width {
			case 1:
				return "bool"
			case 20:
				return "address"
			default:
				return fmt.Sprintf("uint%d", width*8)
			}
		}
	}
	return "uint256"
}

func (a *analyzer) handleExternalCall(op vm.OpCode) {
	a.fn.View = false
	a.fn.Pure = false
	a.emit("(bool success, bytes memory ret0) = target.call{value: 0}(abi.encode());")
	_ = op
}

func (a *analyzer) handleCreate() {
	a.fn.View = false
	a.emit("address created = address(new Contract());")
}

func (a *analyzer) handleLog(rec vm.InstructionRecord) {
	// LOGn pops offset, size, then topic0..topicN-1; LOG0 has no topic.
	if len(rec.PoppedWrapped) < 3 {
		return
	}
	topic0 := rec.PoppedWrapped[2]
	a.fn.Events = append(a.fn.Events, Event{Topic0: topic0, TopicLit: a.lift(topic0)})
	a.emit(fmt.Sprintf("emit Event_%s(...);", strings.TrimPrefix(a.lift(topic0), "0x")))
}

// emitRevert implements spec.md §4.6's REVERT handling: decode the
// selector of the revert payload to tell Error(string) / Panic(uint256) /
// a custom error apart from an empty require().
func (a *analyzer) emitRevert(data []byte) {
	if len(data) == 0 {
		a.rewriteLastIfToRequire("")
		return
	}
	if len(data) < 4 {
		a.emit("revert();")
		return
	}
	selHex := fmt.Sprintf("%x", data[:4])
	switch selHex {
	case errorStringSelectorHex:
		msg := decodeRevertString(data[4:])
		a.rewriteLastIfToRequire(fmt.Sprintf("%q", msg))
	case panicSelectorHex:
		// compiler-inserted; emit nothing.
	default:
		var sel [4]byte
		copy(sel[:], data[:4])
		a.fn.Errors = append(a.fn.Errors, CustomError{Selector: sel})
		a.rewriteLastIfToRequire(fmt.Sprintf("CustomError_%s()", selHex))
	}
}

// rewriteLastIfToRequire retroactively turns the most recently emitted
// `if (cond) {` guard into a `require(cond, msg);`, rewriting that line in
// place per spec.md §4.6's require-folding rule. msgArg is empty for a bare
// require(cond). With no guard in the body it emits a revert instead.
func (a *analyzer) rewriteLastIfToRequire(msgArg string) {
	for i := len(a.fn.Body) - 1; i >= 0; i-- {
		line := strings.TrimSpace(a.fn.Body[i])
		if strings.HasPrefix(line, "if (") && strings.HasSuffix(line, "{") {
			cond := strings.TrimSuffix(strings.TrimPrefix(line, "if ("), ") {")
			indent := a.fn.Body[i][:len(a.fn.Body[i])-len(line)]
			if msgArg == "" {
				a.fn.Body[i] = fmt.Sprintf("%srequire(%s);", indent, cond)
			} else {
				a.fn.Body[i] = fmt.Sprintf("%srequire(%s, %s);", indent, cond, msgArg)
			}
			return
		}
	}
	if msgArg == "" {
		a.emit("revert();")
	} else {
		a.emit(fmt.Sprintf("revert(%s);", msgArg))
	}
}

func decodeRevertString(tail []byte) string {
	if len(tail) < 64 {
		return ""
	}
	length := new(uint256.Int).SetBytes(tail[32:64]).Uint64()
	start := uint64(64)
	if start+length > uint64(len(tail)) {
		return ""
	}
	return string(tail[start : start+length])
}

func calldataArgIndex(w vm.WrappedOpcode) (int, bool) {
	if w.Opcode != vm.CALLDATALOAD || len(w.Inputs) == 0 {
		return 0, false
	}
	offset := w.Inputs[0]
	if !offset.IsRaw() {
		return 0, false
	}
	v := offset.RawValue()
	if !v.IsUint64() {
		return 0, false
	}
	k := v.Uint64()
	if k < 4 || (k-4)%32 != 0 {
		return 0, false
	}
	return int((k - 4) / 32), true
}

func isContiguousLowMask(v uint256.Int) bool {
	if v.IsZero() {
		return false
	}
	var one uint256.Int
	one.SetOne()
	var plusOne uint256.Int
	plusOne.Add(&v, &one)
	var anded uint256.Int
	anded.And(&v, &plusOne)
	return anded.IsZero()
}

func maskByteWidth(v uint256.Int) int {
	bits := v.BitLen()
	return (bits + 7) / 8
}

// candidateTypesForWidth implements spec.md §4.6's type-set helper.
func candidateTypesForWidth(m int) []string {
	switch m {
	case 1:
		return []string{"bool", "uint8", "int8", "bytes1"}
	case 20:
		return []string{"address", "uint160", "bytes20", "int160"}
	default:
		bits := m * 8
		return []string{fmt.Sprintf("uint%d", bits), fmt.Sprintf("bytes%d", m), fmt.Sprintf("int%d", bits)}
	}
}

func uint256Hex(v uint256.Int) string {
	return v.Hex()
}
