// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bifrost-re/bifrost/internal/rpcclient"
)

// resolveTarget accepts the three forms spec.md §6 describes: a 20-byte
// address (fetched via RPC), a raw bytecode hex blob, or a 32-byte
// transaction hash (decode/inspect only, resolved by the caller).
func resolveTarget(ctx context.Context, target, rpcURL string) ([]byte, error) {
	clean := strings.TrimPrefix(target, "0x")
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("target %q is not valid hex: %w", target, err)
	}

	switch len(raw) {
	case 20:
		if rpcURL == "" {
			return nil, fmt.Errorf("target %q looks like an address but no --rpc-url was given", target)
		}
		client, err := rpcclient.Dial(ctx, rpcURL)
		if err != nil {
			return nil, err
		}
		defer client.Close()
		var addr common.Address
		copy(addr[:], raw)
		return client.RuntimeCode(ctx, addr)
	case 32:
		return nil, fmt.Errorf("target %q is a 32-byte value; use resolveTxTarget for tx hashes", target)
	default:
		return raw, nil
	}
}

// resolveTxTarget treats target as a transaction hash, fetching both the
// transaction and the runtime code at its destination.
func resolveTxTarget(ctx context.Context, target, rpcURL string) ([]byte, []byte, error) {
	clean := strings.TrimPrefix(target, "0x")
	raw, err := hex.DecodeString(clean)
	if err != nil || len(raw) != 32 {
		return nil, nil, fmt.Errorf("target %q is not a 32-byte transaction hash", target)
	}
	if rpcURL == "" {
		return nil, nil, fmt.Errorf("tx-hash targets require --rpc-url")
	}
	client, err := rpcclient.Dial(ctx, rpcURL)
	if err != nil {
		return nil, nil, err
	}
	defer client.Close()

	var hash common.Hash
	copy(hash[:], raw)
	tx, code, err := client.Transaction(ctx, hash)
	if err != nil {
		return nil, nil, err
	}
	return tx.Data(), code, nil
}
