// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package emit renders analysis results into the output formats spec.md §6
// describes: nested call-trace JSON, DOT control-flow graphs, ABI JSON, and
// per-function CSV snapshots.
package emit

import (
	"encoding/json"
	"fmt"

	"github.com/bifrost-re/bifrost/core/signatures"
)

// CallNode is one node of a decoded transaction's nested call trace, the
// shape described in heimdall-rs's inspect command: child calls nest under
// their parent with a gas-used delta and, when a signature resolves, a
// "decoded" field.
type CallNode struct {
	Address    string      `json:"address"`
	Selector   string      `json:"selector,omitempty"`
	Decoded    string      `json:"decoded,omitempty"`
	GasUsed    uint64      `json:"gas_used"`
	Success    bool        `json:"success"`
	ReturnData string      `json:"return_data,omitempty"`
	Children   []*CallNode `json:"children,omitempty"`
}

// DecorateDecoded fills in n.Decoded for n and every descendant using
// resolver, falling back to leaving the field empty when nothing resolves
// (spec.md's "Resolver errors ... treat as no match; proceed").
func DecorateDecoded(n *CallNode, resolve func(selectorHex string) (signatures.Candidate, bool)) {
	if n == nil {
		return
	}
	if n.Selector != "" {
		if cand, ok := resolve(n.Selector); ok {
			n.Decoded = cand.FullSignature
		}
	}
	for _, c := range n.Children {
		DecorateDecoded(c, resolve)
	}
}

// MarshalTrace renders root as indented JSON.
func MarshalTrace(root *CallNode) ([]byte, error) {
	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("emit: marshal trace: %w", err)
	}
	return out, nil
}
