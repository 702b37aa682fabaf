// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package emit

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SnapshotYAMLRow is one function's snapshot summary in sidecar-friendly
// field names, parallel to SnapshotRow's CSV column order.
type SnapshotYAMLRow struct {
	Selector  string `yaml:"selector"`
	Name      string `yaml:"name"`
	Signature string `yaml:"signature"`
	Pure      bool   `yaml:"pure"`
	View      bool   `yaml:"view"`
	Payable   bool   `yaml:"payable"`
	MinGas    uint64 `yaml:"min_gas"`
	Returns   string `yaml:"returns"`
}

// MarshalSnapshotYAML renders the same rows WriteSnapshotCSV writes as a
// structured YAML sidecar document — an alternative consumption format for
// tooling that prefers a typed document over flat CSV (spec.md §6's
// snapshot command, SPEC_FULL's supplemented export-sidecar feature).
func MarshalSnapshotYAML(rows [][]string) ([]byte, error) {
	out := make([]SnapshotYAMLRow, 0, len(rows))
	for _, row := range rows {
		if len(row) != len(snapshotColumns) {
			return nil, fmt.Errorf("emit: snapshot row has %d fields, want %d", len(row), len(snapshotColumns))
		}
		out = append(out, SnapshotYAMLRow{
			Selector:  row[0],
			Name:      row[1],
			Signature: row[2],
			Pure:      row[3] == "true",
			View:      row[4] == "true",
			Payable:   row[5] == "true",
			MinGas:    parseUint(row[6]),
			Returns:   row[7],
		})
	}
	return yaml.Marshal(out)
}

func parseUint(s string) uint64 {
	var v uint64
	fmt.Sscanf(s, "%d", &v)
	return v
}
