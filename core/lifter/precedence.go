// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package lifter folds a wrapped-opcode expression tree into a
// surface-language string (Solidity or Yul), operator-precedence aware, per
// spec.md §4.8. precedence.go is shared by both lifters.
package lifter

import "github.com/bifrost-re/bifrost/core/vm"

// precedence mirrors Solidity's operator precedence table (higher binds
// tighter). Opcodes not listed are treated as primary expressions (calls,
// identifiers, literals) that never need outer parens.
var precedence = map[vm.OpCode]int{
	vm.EXP: 10,
	vm.MUL: 9, vm.DIV: 9, vm.SDIV: 9, vm.MOD: 9, vm.SMOD: 9,
	vm.ADD: 8, vm.SUB: 8,
	vm.SHL: 7, vm.SHR: 7, vm.SAR: 7,
	vm.AND: 6,
	vm.XOR: 5,
	vm.OR:  4,
	vm.LT:  3, vm.GT: 3, vm.SLT: 3, vm.SGT: 3,
	vm.EQ: 2,
	vm.ISZERO: 11, // unary, binds tighter than any binary op
	vm.NOT:    11,
}

func prec(w vm.WrappedOpcode) int {
	if w.IsRaw() {
		return 100
	}
	if p, ok := precedence[w.Opcode]; ok {
		return p
	}
	return 100 // calls/identifiers/literals: always primary
}

// wrapParens renders child with parentheses if its precedence is lower
// than (binds looser than) parentPrec, so "(a + b) * c" survives folding
// while "((a + b))" collapses to "(a + b)".
func wrapParens(childPrec, parentPrec int, s string) string {
	if childPrec < parentPrec {
		return "(" + s + ")"
	}
	return s
}
