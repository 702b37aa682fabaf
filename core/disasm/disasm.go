// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package disasm renders raw bytecode as annotated assembly text, the
// `disassemble` command's output (spec.md §6).
package disasm

import (
	"fmt"
	"strings"

	"github.com/bifrost-re/bifrost/core/vm"
)

// Line is one disassembled instruction.
type Line struct {
	PC        uint64
	Op        vm.OpCode
	Immediate []byte // PUSHn's operand bytes, nil otherwise
}

// Disassemble walks code linearly, decoding one instruction per iteration.
// A truncated PUSH immediate at the end of code is treated as end-of-code
// with the available bytes, per spec.md §7's disassembly-error handling
// ("odd-length hex, truncated PUSH immediate ... treat as end-of-code").
func Disassemble(code []byte) []Line {
	var lines []Line
	for pc := 0; pc < len(code); {
		op := vm.OpCode(code[pc])
		line := Line{PC: uint64(pc), Op: op}
		if n := op.PushBytes(); n > 0 {
			end := pc + 1 + n
			if end > len(code) {
				end = len(code)
			}
			line.Immediate = code[pc+1 : end]
			lines = append(lines, line)
			pc = end
			continue
		}
		lines = append(lines, line)
		pc++
	}
	return lines
}

// Format renders lines as text: one "pc: MNEMONIC [0xdeadbeef]" line each.
func Format(lines []Line) string {
	var sb strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&sb, "%5d: %s", l.PC, l.Op.String())
		if len(l.Immediate) > 0 {
			fmt.Fprintf(&sb, " 0x%x", l.Immediate)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
