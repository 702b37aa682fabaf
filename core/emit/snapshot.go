package emit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/bifrost-re/bifrost/core/decompile"
)

// snapshotColumns matches spec.md §6's CSV snapshot column order exactly.
var snapshotColumns = []string{"selector", "name", "signature", "pure", "view", "payable", "min_gas", "returns"}

// SnapshotRow formats one function's summary row, shared by the CSV writer
// and the human-readable table writer so the two never drift apart.
func SnapshotRow(fn *decompile.Function, name, signature string, minGas uint64) []string {
	return []string{
		fmt.Sprintf("0x%x", fn.Selector),
		name,
		signature,
		fmt.Sprintf("%t", fn.Pure),
		fmt.Sprintf("%t", fn.View),
		fmt.Sprintf("%t", fn.Payable),
		fmt.Sprintf("%d", minGas),
		fn.ReturnType,
	}
}

// WriteSnapshotCSV writes the machine-readable CSV snapshot, per spec.md §6.
func WriteSnapshotCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(snapshotColumns); err != nil {
		return fmt.Errorf("emit: write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("emit: write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderSnapshotTable renders the same rows as a human-readable table, for
// terminal output (the plumbing surface a storage-dump TUI would also read
// from, per SPEC_FULL's supplemented-feature note).
func RenderSnapshotTable(rows [][]string) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(snapshotColumns)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
	return buf.String()
}
