package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/bifrost-re/bifrost/core/emit"
	"github.com/bifrost-re/bifrost/core/signatures"
	"github.com/bifrost-re/bifrost/internal/rpcclient"
)

var inspectCommand = &cli.Command{
	Name:      "inspect",
	Usage:     "render a decoded transaction call trace as JSON",
	ArgsUsage: "<tx-hash>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "skip-resolving", Usage: "skip external 4byte.directory signature lookups"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("inspect: expected exactly one <tx-hash>")
		}
		cfg := cfgFromContext(c)
		log := loggerFromContext(c)
		ctx := c.Context

		if cfg.RPCURL == "" {
			return fmt.Errorf("inspect requires --rpc-url")
		}
		client, err := rpcclient.Dial(ctx, cfg.RPCURL)
		if err != nil {
			return err
		}
		defer client.Close()

		var hash common.Hash
		target := c.Args().First()
		raw := target
		if len(raw) > 2 && raw[:2] == "0x" {
			raw = raw[2:]
		}
		if len(raw) != 64 {
			return fmt.Errorf("inspect: %q is not a 32-byte transaction hash", target)
		}
		hash = common.HexToHash(target)

		tx, code, err := client.Transaction(ctx, hash)
		if err != nil {
			return err
		}
		receipt, err := client.Receipt(ctx, hash)
		if err != nil {
			return err
		}

		data := tx.Data()
		addr := "contract-creation"
		if to := tx.To(); to != nil {
			addr = to.Hex()
		}
		root := &emit.CallNode{
			Address: addr,
			GasUsed: receipt.GasUsed,
			Success: receipt.Status == 1,
		}
		if len(data) >= 4 {
			root.Selector = fmt.Sprintf("0x%x", data[:4])
		}
		_ = code

		resolver, err := buildResolver(cfg, c.Bool("skip-resolving"), log)
		if err != nil {
			return err
		}
		emit.DecorateDecoded(root, func(selectorHex string) (signatures.Candidate, bool) {
			var sel [4]byte
			n, err := fmt.Sscanf(selectorHex, "0x%02x%02x%02x%02x", &sel[0], &sel[1], &sel[2], &sel[3])
			if err != nil || n != 4 {
				return signatures.Candidate{}, false
			}
			return resolver.Best(ctx, sel)
		})

		body, err := emit.MarshalTrace(root)
		if err != nil {
			return err
		}
		return writeOutput(c, string(body)+"\n")
	},
}
