package main

import (
	"fmt"
	"strings"

	"github.com/bifrost-re/bifrost/core/emit"
	"github.com/bifrost-re/bifrost/core/hardfork"
	"github.com/urfave/cli/v2"
)

var decompileCommand = &cli.Command{
	Name:      "decompile",
	Usage:     "decompile a target to ABI JSON and optional Solidity/Yul source",
	ArgsUsage: "<target>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "include-solidity", Usage: "include a Solidity-flavored source listing alongside the ABI"},
		&cli.BoolFlag{Name: "include-yul", Usage: "emit Yul-flavored pseudo-code instead of Solidity"},
		&cli.BoolFlag{Name: "skip-resolving", Usage: "skip external 4byte.directory signature lookups"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("decompile: expected exactly one <target>")
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
		emitYul := c.Bool("include-yul")

		result := analyzeContract(ctx, code, hardfork.Cancun, workers, c.Duration("deadline"), emitYul, log)

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

		entries := emit.BuildABI(result.Functions, names)
		abiJSON, err := emit.MarshalABI(entries)
		if err != nil {
			return err
		}

		var sb strings.Builder
		sb.Write(abiJSON)
		sb.WriteByte('\n')

		if c.Bool("include-solidity") || emitYul {
			sb.WriteString("\n")
			for _, fn := range result.Functions {
				name := names[fn.Selector]
				if name == "" {
					name = fmt.Sprintf("Unresolved_%x", fn.Selector)
				}
				sb.WriteString(fmt.Sprintf("// %s\n", name))
				for _, notice := range fn.Notices {
					sb.WriteString(fmt.Sprintf("// NOTICE: %s\n", notice))
				}
				for _, line := range fn.Body {
					sb.WriteString(line)
					sb.WriteByte('\n')
				}
				sb.WriteByte('\n')
			}
		}

		return writeOutput(c, sb.String())
	},
}
