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
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bifrost-re/bifrost/core/decompile"
	"github.com/bifrost-re/bifrost/core/explorer"
	"github.com/bifrost-re/bifrost/core/hardfork"
	"github.com/bifrost-re/bifrost/core/selectors"
	"github.com/bifrost-re/bifrost/core/signatures"
	"github.com/bifrost-re/bifrost/core/vm"
	"github.com/sirupsen/logrus"
)

// analyzedContract holds every per-function result for one bytecode blob.
type analyzedContract struct {
	Code      []byte
	Fork      hardfork.Fork
	Functions []*decompile.Function
	Traces    map[[4]byte]*explorer.Trace
}

// analyzeContract resolves every dispatcher candidate, then fans the
// per-selector function analysis out across workers workers — each owns its
// own VM clone over the shared, immutable code buffer, per spec.md §5's
// concurrency model.
func analyzeContract(ctx context.Context, code []byte, fork hardfork.Fork, workers int, deadline time.Duration, emitYul bool, log *logrus.Entry) *analyzedContract {
	candidates := selectors.ResolveAll(code, fork)

	result := &analyzedContract{Code: code, Fork: fork, Traces: make(map[[4]byte]*explorer.Trace)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, cand := range candidates {
		cand := cand
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			calldata := make([]byte, 4)
			copy(calldata, cand.Selector[:])
			in := vm.New(code, calldata, fork)
			in.PC = cand.EntryPC

			opts := explorer.DefaultOptions(time.Now().Add(deadline))
			tree := explorer.New(opts).Explore(in)
			if tree == nil {
				log.WithField("selector", cand.Selector).Warn("branch exploration deadline exceeded")
				return nil
			}

			fn := decompile.Analyze(cand.Selector, cand.EntryPC, tree, emitYul)

			mu.Lock()
			result.Functions = append(result.Functions, fn)
			result.Traces[cand.Selector] = tree
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("contract analysis ended early")
	}
	return result
}

// postProcessAll runs decompile.PostProcess over every function, resolving
// names against resolver.
func postProcessAll(ctx context.Context, functions []*decompile.Function, resolver *signatures.Resolver) {
	for _, fn := range functions {
		decompile.PostProcess(ctx, fn, resolver)
	}
}
