package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/bifrost-re/bifrost/internal/cache"
)

var cacheCommand = &cli.Command{
	Name:  "cache",
	Usage: "manage the persistent on-disk signature/resolution cache",
	Subcommands: []*cli.Command{
		{
			Name:  "ls",
			Usage: "list every cached entry",
			Action: func(c *cli.Context) error {
				cfg := cfgFromContext(c)
				store, err := cache.New(cfg.CacheDir)
				if err != nil {
					return err
				}
				rows, err := store.List()
				if err != nil {
					return err
				}
				var out string
				for _, r := range rows {
					status := "live"
					if r.Expired {
						status = "expired"
					}
					out += fmt.Sprintf("%s\t%d bytes\texpires %s\t%s\n", r.Key, r.Size, r.Expires.Format("2006-01-02"), status)
				}
				return writeOutput(c, out)
			},
		},
		{
			Name:  "clean",
			Usage: "purge every expired entry",
			Action: func(c *cli.Context) error {
				cfg := cfgFromContext(c)
				store, err := cache.New(cfg.CacheDir)
				if err != nil {
					return err
				}
				purged, err := store.Clean()
				if err != nil {
					return err
				}
				return writeOutput(c, fmt.Sprintf("purged %d expired entries\n", purged))
			},
		},
		{
			Name:  "size",
			Usage: "report total bytes on disk",
			Action: func(c *cli.Context) error {
				cfg := cfgFromContext(c)
				store, err := cache.New(cfg.CacheDir)
				if err != nil {
					return err
				}
				size, err := store.Size()
				if err != nil {
					return err
				}
				return writeOutput(c, fmt.Sprintf("%d bytes\n", size))
			},
		},
	},
}
