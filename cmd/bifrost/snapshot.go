package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/bifrost-re/bifrost/core/emit"
	"github.com/bifrost-re/bifrost/core/explorer"
	"github.com/bifrost-re/bifrost/core/hardfork"
)

var snapshotCommand = &cli.Command{
	Name:      "snapshot",
	Usage:     "summarize every discovered function as a CSV snapshot",
	ArgsUsage: "<target>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "skip-resolving", Usage: "skip external 4byte.directory signature lookups"},
		&cli.BoolFlag{Name: "table", Usage: "render a human-readable table instead of CSV"},
		&cli.BoolFlag{Name: "yaml", Usage: "render a structured YAML sidecar instead of CSV"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("snapshot: expected exactly one <target>")
		}
		cfg := cfgFromContext(c)
		log := loggerFromContext(c)
		ctx := c.Context

		code, err := resolveTarget(ctx, c.Args().First(), cfg.RPCURL)
		if err != nil {
			return err
		}

		workers := cfg.Workers
		if workers <= 0 {
			workers = 4
		}

		result := analyzeContract(ctx, code, hardfork.Cancun, workers, c.Duration("deadline"), false, log)

		resolver, err := buildResolver(cfg, c.Bool("skip-resolving"), log)
		if err != nil {
			return err
		}
		postProcessAll(ctx, result.Functions, resolver)

		selectors := make([][4]byte, len(result.Functions))
		for i, fn := range result.Functions {
			selectors[i] = fn.Selector
		}
		names := namesFromFunctions(ctx, resolver, selectors)

		var rows [][]string
		for _, fn := range result.Functions {
			name := names[fn.Selector]
			if name == "" {
				name = fmt.Sprintf("Unresolved_%x", fn.Selector)
			}
			signature := name
			if best, ok := resolver.Best(ctx, fn.Selector); ok {
				signature = best.FullSignature
			}
			minGas := minLeafGas(result.Traces[fn.Selector])
			rows = append(rows, emit.SnapshotRow(fn, name, signature, minGas))
		}

		if c.Bool("table") {
			return writeOutput(c, emit.RenderSnapshotTable(rows))
		}

		if c.Bool("yaml") {
			out, err := emit.MarshalSnapshotYAML(rows)
			if err != nil {
				return err
			}
			return writeOutput(c, string(out))
		}

		var buf strings.Builder
		if err := emit.WriteSnapshotCSV(&buf, rows); err != nil {
			return err
		}
		return writeOutput(c, buf.String())
	},
}

// minLeafGas walks tree's leaves and returns the cheapest path's gas use,
// the "min_gas" column spec.md §6's snapshot describes.
func minLeafGas(tree *explorer.Trace) uint64 {
	if tree == nil {
		return 0
	}
	var min uint64
	first := true
	tree.Walk(func(n *explorer.Trace) {
		if !n.Leaf() {
			return
		}
		if first || n.GasUsed < min {
			min = n.GasUsed
			first = false
		}
	})
	return min
}
