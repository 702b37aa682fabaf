// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package explorer drives the symbolic interpreter forward, forking
// execution at every conditional jump and pruning loops via heuristics over
// historical stack states (spec.md §4.4).
package explorer

import "github.com/bifrost-re/bifrost/core/vm"

// Trace is one node of the execution tree (spec.md's VMTrace): an ordered
// straight-line run of instruction records, plus the children forked at a
// terminating JUMPI (two children: condition-true and condition-false).
// A STOP/RETURN/REVERT/INVALID/SELFDESTRUCT leaf has no children.
type Trace struct {
	EntryPC     uint64
	GasUsed     uint64
	Records     []vm.InstructionRecord
	Children    []*Trace
	Exitcode    int
	ReturnData  []byte
	Abandoned   bool   // loop heuristic or deadline cut this branch short
	AbandonedBy string // which heuristic fired, for diagnostics/logging
}

// Leaf reports whether this node terminated without forking further.
func (t *Trace) Leaf() bool {
	return len(t.Children) == 0
}

// Walk visits t and every descendant depth-first, matching the analyzer's
// emission order (spec.md §5 "Ordering guarantees").
func (t *Trace) Walk(visit func(*Trace)) {
	visit(t)
	for _, c := range t.Children {
		c.Walk(visit)
	}
}

// Count returns the total number of nodes in the tree rooted at t.
func (t *Trace) Count() int {
	n := 1
	for _, c := range t.Children {
		n += c.Count()
	}
	return n
}
