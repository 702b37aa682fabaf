// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package rpcclient fetches runtime bytecode and transactions from a chain
// RPC endpoint — the plumbing spec.md §1 names as an out-of-scope
// interface the core only consumes.
package rpcclient

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client wraps ethclient.Client with the three operations Bifrost's CLI
// targets need: runtime code at an address, a transaction by hash, and its
// receipt.
type Client struct {
	eth *ethclient.Client
	url string
}

func Dial(ctx context.Context, url string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: dial %s: %w", url, err)
	}
	return &Client{eth: eth, url: url}, nil
}

func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}

// RuntimeCode fetches the deployed bytecode at addr at the latest block.
func (c *Client) RuntimeCode(ctx context.Context, addr common.Address) ([]byte, error) {
	code, err := c.eth.CodeAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: fetch code at %s: %w", addr, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("rpcclient: %s has no deployed code", addr)
	}
	return code, nil
}

// Transaction fetches a transaction and the runtime code of its `to`
// address (for `inspect`/`decode` against a tx hash rather than raw
// calldata).
func (c *Client) Transaction(ctx context.Context, hash common.Hash) (*types.Transaction, []byte, error) {
	tx, _, err := c.eth.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, nil, fmt.Errorf("rpcclient: fetch tx %s: %w", hash, err)
	}
	var code []byte
	if to := tx.To(); to != nil {
		code, err = c.RuntimeCode(ctx, *to)
		if err != nil {
			return tx, nil, err
		}
	}
	return tx, code, nil
}

// Receipt fetches the receipt for hash, used to attribute gas-used deltas
// in the `inspect` call trace.
func (c *Client) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	r, err := c.eth.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: fetch receipt %s: %w", hash, err)
	}
	return r, nil
}
