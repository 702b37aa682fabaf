package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/bifrost-re/bifrost/core/emit"
	"github.com/bifrost-re/bifrost/core/hardfork"
)

var cfgCommand = &cli.Command{
	Name:      "cfg",
	Usage:     "emit a DOT control-flow graph for a target",
	ArgsUsage: "<target>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("cfg: expected exactly one <target>")
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
		name := c.String("name")
		if name == "" {
			name = "contract"
		}

		result := analyzeContract(ctx, code, hardfork.Cancun, workers, c.Duration("deadline"), false, log)

		var sb strings.Builder
		for sel, tree := range result.Traces {
			graphName := fmt.Sprintf("%s_%x", name, sel)
			sb.WriteString(emit.CFG(graphName, tree))
			sb.WriteByte('\n')
		}

		return writeOutput(c, sb.String())
	},
}
