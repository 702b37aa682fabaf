// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Command bifrost recovers human-readable structure from deployed EVM
// bytecode: disassembly, decompilation to Solidity/Yul, control-flow
// graphs, calldata decoding, and transaction inspection (spec.md §6).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/bifrost-re/bifrost/internal/config"
	"github.com/bifrost-re/bifrost/internal/logging"
)

func main() {
	app := &cli.App{
		Name:  "bifrost",
		Usage: "reverse-engineer deployed EVM bytecode",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rpc-url", Usage: "chain RPC endpoint, overrides config/RPC_URL"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write output to this file instead of stdout"},
			&cli.StringFlag{Name: "name", Usage: "override the contract name used in output"},
			&cli.StringFlag{Name: "config", Usage: "path to a bifrost.toml config file"},
			&cli.IntFlag{Name: "workers", Value: 0, Usage: "override the per-selector worker pool size"},
			&cli.DurationFlag{Name: "deadline", Value: 10 * time.Second, Usage: "branch exploration wall-clock budget per selector"},
		},
		Before: loadConfigMiddleware,
		Commands: []*cli.Command{
			disassembleCommand,
			decompileCommand,
			cfgCommand,
			decodeCommand,
			inspectCommand,
			snapshotCommand,
			cacheCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bifrost:", err)
		os.Exit(1)
	}
}

const appConfigKey = "bifrost.config"

func loadConfigMiddleware(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	cfg = cfg.ApplyEnv()
	if v := c.String("rpc-url"); v != "" {
		cfg.RPCURL = v
	}
	if v := c.Int("workers"); v != 0 {
		cfg.Workers = v
	}
	c.App.Metadata = map[string]interface{}{appConfigKey: cfg}
	return nil
}

func cfgFromContext(c *cli.Context) config.Config {
	if v, ok := c.App.Metadata[appConfigKey]; ok {
		return v.(config.Config)
	}
	return config.Default()
}

func loggerFromContext(c *cli.Context) *logrus.Entry {
	cfg := cfgFromContext(c)
	return logging.NewCorrelated(cfg.LogLevel, "text").WithField("cmd", c.Command.Name)
}
