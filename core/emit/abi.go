package emit

import (
	"encoding/json"
	"fmt"

	"github.com/bifrost-re/bifrost/core/decompile"
)

// ABIParam is one entry in a function/event/error's inputs or outputs.
type ABIParam struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ABIEntry is one top-level element of the output array, matching the
// standard Solidity ABI JSON shape described in spec.md §6.
type ABIEntry struct {
	Type            string     `json:"type"`
	Name            string     `json:"name,omitempty"`
	Inputs          []ABIParam `json:"inputs,omitempty"`
	Outputs         []ABIParam `json:"outputs,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
	Constant        bool       `json:"constant,omitempty"`
}

// BuildABI assembles the ABI JSON array for every analyzed function, plus
// whatever events/errors they registered.
func BuildABI(functions []*decompile.Function, names map[[4]byte]string) []ABIEntry {
	var entries []ABIEntry
	seenEvents := make(map[string]bool)
	seenErrors := make(map[string]bool)

	for _, fn := range functions {
		name := names[fn.Selector]
		if name == "" {
			name = fmt.Sprintf("Unresolved_%x", fn.Selector)
		}

		inputs := make([]ABIParam, len(fn.Arguments))
		for i := range inputs {
			arg, ok := fn.Arguments[i]
			t := "uint256"
			if ok && len(arg.CandidateTypes) > 0 {
				for candidate := range arg.CandidateTypes {
					t = candidate
					break
				}
			}
			inputs[i] = ABIParam{Type: t, Name: fmt.Sprintf("arg%d", i)}
		}

		mutability := "nonpayable"
		if fn.View {
			mutability = "view"
		}
		if fn.Pure {
			mutability = "pure"
		}
		if fn.Payable {
			mutability = "payable"
		}

		var outputs []ABIParam
		if fn.ReturnType != "" {
			outputs = []ABIParam{{Type: fn.ReturnType, Name: ""}}
		}

		entries = append(entries, ABIEntry{
			Type:            "function",
			Name:            name,
			Inputs:          inputs,
			Outputs:         outputs,
			StateMutability: mutability,
			Constant:        fn.View || fn.Pure,
		})

		for _, ev := range fn.Events {
			key := ev.TopicLit
			if seenEvents[key] {
				continue
			}
			seenEvents[key] = true
			evName := ev.Name
			if evName == "" {
				evName = fmt.Sprintf("Event_%s", key)
			}
			entries = append(entries, ABIEntry{Type: "event", Name: evName})
		}

		for _, e := range fn.Errors {
			key := fmt.Sprintf("%x", e.Selector)
			if seenErrors[key] {
				continue
			}
			seenErrors[key] = true
			entries = append(entries, ABIEntry{Type: "error", Name: fmt.Sprintf("CustomError_%s", key)})
		}
	}

	return entries
}

// MarshalABI renders entries as indented JSON.
func MarshalABI(entries []ABIEntry) ([]byte, error) {
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("emit: marshal abi: %w", err)
	}
	return out, nil
}
