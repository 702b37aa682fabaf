// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package hardfork classifies which protocol upgrade is active for a given
// chain id / block number / timestamp, and which opcodes and gas costs are
// valid there. Grounded on go-ethereum's params.Rules / IsLondon-style
// predicates, collapsed into a single enum the way the distilled spec asks
// for rather than go-ethereum's many independent IsX booleans.
package hardfork

import "fmt"

// Fork identifies an Ethereum protocol upgrade boundary.
type Fork int

const (
	Frontier Fork = iota
	Homestead
	Byzantium
	Constantinople
	Istanbul
	Berlin
	London
	Paris // The Merge
	Shanghai
	Cancun
)

func (f Fork) String() string {
	switch f {
	case Frontier:
		return "Frontier"
	case Homestead:
		return "Homestead"
	case Byzantium:
		return "Byzantium"
	case Constantinople:
		return "Constantinople"
	case Istanbul:
		return "Istanbul"
	case Berlin:
		return "Berlin"
	case London:
		return "London"
	case Paris:
		return "Paris"
	case Shanghai:
		return "Shanghai"
	case Cancun:
		return "Cancun"
	default:
		return fmt.Sprintf("Fork(%d)", int(f))
	}
}

// Config is the minimal chain configuration needed to resolve a fork:
// mainnet-shaped block numbers for pre-merge forks, and timestamps for
// post-merge forks, matching real chain-config shape.
type Config struct {
	ChainID             uint64
	HomesteadBlock      uint64
	ByzantiumBlock      uint64
	ConstantinopleBlock uint64
	IstanbulBlock       uint64
	BerlinBlock         uint64
	LondonBlock         uint64
	MergeBlock          uint64
	ShanghaiTime        uint64
	CancunTime          uint64
}

// Mainnet is a best-effort default configuration, used when the caller has
// no specific chain config (e.g. analyzing a raw bytecode blob with
// --rpc-url unset).
var Mainnet = Config{
	ChainID:             1,
	HomesteadBlock:      1_150_000,
	ByzantiumBlock:      4_370_000,
	ConstantinopleBlock: 7_280_000,
	IstanbulBlock:       9_069_000,
	BerlinBlock:         12_244_000,
	LondonBlock:         12_965_000,
	MergeBlock:          15_537_394,
	ShanghaiTime:        1_681_338_455,
	CancunTime:          1_710_338_135,
}

// Resolve classifies the active fork from a block number and an optional
// timestamp (0 if unknown): post-merge forks dispatch on timestamp,
// pre-merge on block number, per spec.md §4.11.
func (c Config) Resolve(block, timestamp uint64) Fork {
	if timestamp != 0 {
		if timestamp >= c.CancunTime {
			return Cancun
		}
		if timestamp >= c.ShanghaiTime {
			return Shanghai
		}
	}
	switch {
	case block >= c.MergeBlock:
		return Paris
	case block >= c.LondonBlock:
		return London
	case block >= c.BerlinBlock:
		return Berlin
	case block >= c.IstanbulBlock:
		return Istanbul
	case block >= c.ConstantinopleBlock:
		return Constantinople
	case block >= c.ByzantiumBlock:
		return Byzantium
	case block >= c.HomesteadBlock:
		return Homestead
	default:
		return Frontier
	}
}

// IsValidOpcode reports whether the given opcode byte is valid at fork f.
// PUSH0 (0x5f) is valid only at Shanghai+; MCOPY (0x5e), TLOAD/TSTORE
// (0x5c/0x5d) only at Cancun+, per spec.md §4.11.
func IsValidOpcode(op byte, f Fork) bool {
	switch op {
	case 0x5f: // PUSH0
		return f >= Shanghai
	case 0x5e, 0x5c, 0x5d: // MCOPY, TLOAD, TSTORE
		return f >= Cancun
	case 0x46: // CHAINID
		return f >= Istanbul
	case 0x48: // BASEFEE
		return f >= London
	case 0x49: // BLOBHASH
		return f >= Cancun
	case 0x4a: // BLOBBASEFEE
		return f >= Cancun
	case 0x47: // SELFBALANCE
		return f >= Istanbul
	default:
		return true
	}
}

// SloadGas resolves the open question of spec.md §9: the source had
// inconsistent SLOAD gas (0 in one table, 100 in another). Bifrost uses the
// Berlin-or-later cold/warm split, defaulting to 100 when the fork is
// unknown (Fork zero value, Frontier, is treated as "unknown" here because
// no caller should legitimately be analyzing a Frontier-only contract).
func SloadGas(f Fork, warm bool) uint64 {
	if f < Berlin {
		return 100
	}
	if warm {
		return 100
	}
	return 2100
}
