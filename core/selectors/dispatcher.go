// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package selectors discovers dispatcher candidates and their function
// entry points from raw bytecode (spec.md §4.5).
package selectors

import (
	"encoding/binary"
	"strings"

	"github.com/bifrost-re/bifrost/core/hardfork"
	"github.com/bifrost-re/bifrost/core/lifter"
	"github.com/bifrost-re/bifrost/core/vm"
)

// maxDispatchSteps bounds how far a candidate's probe run is allowed to
// step before it's rejected for never reaching a matching JUMPI.
const maxDispatchSteps = 4096

// Candidate is one PUSH4 constant found in the bytecode, resolved (or not)
// to a function entry point.
type Candidate struct {
	Selector [4]byte
	EntryPC  uint64
	Resolved bool
}

// Candidates collects the argument of every PUSH4 instruction in code —
// the set of dispatcher candidates per spec.md §4.5's first step.
func Candidates(code []byte) [][4]byte {
	var out [][4]byte
	seen := make(map[[4]byte]bool)
	for pc := 0; pc < len(code); {
		op := vm.OpCode(code[pc])
		if op == vm.PUSH4 && pc+5 <= len(code) {
			var sel [4]byte
			copy(sel[:], code[pc+1:pc+5])
			if !seen[sel] {
				seen[sel] = true
				out = append(out, sel)
			}
		}
		if n := op.PushBytes(); n > 0 {
			pc += n + 1
			continue
		}
		pc++
	}
	return out
}

// Resolve runs the interpreter from pc 0 with calldata set to selector,
// stepping until a JUMPI whose lifted condition references msg.data[0:4]
// and contains the selector constant, with a true concrete condition. The
// JUMPDEST target of that JUMPI is the function entry pc.
func Resolve(code []byte, selector [4]byte, fork hardfork.Fork) (Candidate, bool) {
	calldata := make([]byte, 4)
	copy(calldata, selector[:])

	in := vm.New(code, calldata, fork)
	want := selectorLiteral(selector)

	for step := 0; step < maxDispatchSteps; step++ {
		pc := in.PC
		if pc >= uint64(len(code)) {
			break
		}
		if vm.OpCode(code[pc]) == vm.JUMPI {
			destFrame, err1 := in.Stack.Peek(0)
			condFrame, err2 := in.Stack.Peek(1)
			if err1 == nil && err2 == nil {
				lifted := lifter.Solidify(condFrame.Provenance)
				if referencesSelector(lifted, want) && !condFrame.Value.IsZero() && destFrame.Provenance.IsRaw() {
					dest := destFrame.Value.Uint64()
					if dest < uint64(len(code)) && vm.OpCode(code[dest]) == vm.JUMPDEST {
						return Candidate{Selector: selector, EntryPC: dest, Resolved: true}, true
					}
				}
			}
		}
		done, err := in.Step()
		if err != nil || done {
			break
		}
	}
	return Candidate{Selector: selector}, false
}

// ResolveAll runs Resolve over every PUSH4 candidate in code, returning only
// the ones that found a matching dispatch JUMPI.
func ResolveAll(code []byte, fork hardfork.Fork) []Candidate {
	var out []Candidate
	for _, sel := range Candidates(code) {
		if c, ok := Resolve(code, sel, fork); ok {
			out = append(out, c)
		}
	}
	return out
}

// selectorLiteral renders the selector the same way lifter.literal() renders
// a raw uint256 constant: lowercase hex with leading zero nibbles stripped,
// since that's the textual form the lifted jump condition will contain.
func selectorLiteral(sel [4]byte) string {
	v := binary.BigEndian.Uint32(sel[:])
	const hexDigits = "0123456789abcdef"
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = hexDigits[v&0xF]
		v >>= 4
	}
	trimmed := strings.TrimLeft(string(buf[:]), "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return "0x" + trimmed
}

// referencesSelector reports whether the lifted condition both touches
// calldata (arg0/msg.data) and mentions the selector's literal constant —
// the two textual signals spec.md §4.5 requires of the dispatch JUMPI.
func referencesSelector(lifted, selectorHex string) bool {
	touchesCalldata := strings.Contains(lifted, "msg.data") || strings.Contains(lifted, "arg0")
	return touchesCalldata && strings.Contains(strings.ToLower(lifted), strings.TrimPrefix(selectorHex, "0x"))
}
