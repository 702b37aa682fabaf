// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package signatures resolves 4-byte selectors to candidate human-readable
// signatures (spec.md §4.10), merging results from multiple backing
// directories and ranking them by the shared scoring heuristic.
package signatures

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Candidate is one resolved signature for a selector.
type Candidate struct {
	Name             string
	FullSignature    string
	ParsedInputTypes []string
}

// Directory is one backing source of selector → signature mappings: a local
// seed list, an on-disk cache, or a remote 4byte-style directory. Multiple
// Directory implementations can be registered on one Resolver; spec.md's
// original_source shows the scoring heuristic operating over candidates
// merged from more than one such source.
type Directory interface {
	Name() string
	Lookup(ctx context.Context, selector [4]byte) ([]Candidate, error)
}

// Resolver merges candidates from every registered Directory and ranks them
// by score, caching the merged result per selector.
type Resolver struct {
	dirs  []Directory
	cache map[[4]byte][]Candidate
	log   *logrus.Entry
}

func New(log *logrus.Entry, dirs ...Directory) *Resolver {
	return &Resolver{dirs: dirs, cache: make(map[[4]byte][]Candidate), log: log}
}

// Resolve returns every candidate known for selector across all directories,
// sorted best-first by Score. A cache miss consults every directory in
// order; directory errors are logged and skipped rather than aborting the
// whole resolution (one unreachable backend shouldn't sink the others).
func (r *Resolver) Resolve(ctx context.Context, selector [4]byte) ([]Candidate, bool) {
	if cached, ok := r.cache[selector]; ok {
		return cached, len(cached) > 0
	}

	var merged []Candidate
	seen := make(map[string]bool)
	for _, d := range r.dirs {
		cands, err := d.Lookup(ctx, selector)
		if err != nil {
			if r.log != nil {
				r.log.WithError(err).WithField("directory", d.Name()).Warn("signature directory lookup failed")
			}
			continue
		}
		for _, c := range cands {
			if seen[c.FullSignature] {
				continue
			}
			seen[c.FullSignature] = true
			merged = append(merged, c)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return Score(merged[i].FullSignature) > Score(merged[j].FullSignature)
	})

	r.cache[selector] = merged
	return merged, len(merged) > 0
}

// Best returns the single highest-scoring candidate, per spec.md §4.7's
// "pick the one with the best heuristic score" post-processing step.
func (r *Resolver) Best(ctx context.Context, selector [4]byte) (Candidate, bool) {
	cands, ok := r.Resolve(ctx, selector)
	if !ok {
		return Candidate{}, false
	}
	return cands[0], true
}

func (r *Resolver) String() string {
	return fmt.Sprintf("signatures.Resolver(%d directories, %d cached)", len(r.dirs), len(r.cache))
}
