package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/bifrost-re/bifrost/core/signatures"
	"github.com/bifrost-re/bifrost/internal/cache"
	"github.com/bifrost-re/bifrost/internal/config"
)

// buildResolver wires the seed directory and, unless skipped, the
// 4byte.directory HTTP backend behind the on-disk cache, per spec.md §6's
// --skip-resolving flag and SPEC_FULL's multi-backend resolver decision.
func buildResolver(cfg config.Config, skipResolving bool, log *logrus.Entry) (*signatures.Resolver, error) {
	dirs := []signatures.Directory{signatures.NewSeedDirectory()}

	if !skipResolving && !cfg.SkipResolving {
		c, err := cache.New(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, signatures.NewHTTPDirectory("", c))
	}

	return signatures.New(log, dirs...), nil
}

// namesFromFunctions resolves every function's selector into a
// selector->name map for emit.BuildABI.
func namesFromFunctions(ctx context.Context, resolver *signatures.Resolver, selectors [][4]byte) map[[4]byte]string {
	names := make(map[[4]byte]string)
	for _, sel := range selectors {
		if best, ok := resolver.Best(ctx, sel); ok {
			names[sel] = best.Name
		}
	}
	return names
}
