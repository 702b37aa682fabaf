package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bifrost-re/bifrost/core/disasm"
)

var disassembleCommand = &cli.Command{
	Name:      "disassemble",
	Usage:     "emit annotated assembly for a target",
	ArgsUsage: "<target>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("disassemble: expected exactly one <target>")
		}
		cfg := cfgFromContext(c)
		code, err := resolveTarget(c.Context, c.Args().First(), cfg.RPCURL)
		if err != nil {
			return err
		}

		lines := disasm.Disassemble(code)
		out := disasm.Format(lines)
		return writeOutput(c, out)
	},
}

func writeOutput(c *cli.Context, content string) error {
	if path := c.String("output"); path != "" {
		return os.WriteFile(path, []byte(content), 0o644)
	}
	fmt.Print(content)
	return nil
}
