// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package cache implements the persistent on-disk cache described in
// spec.md §6: one hex-encoded msgpack file per key under
// <home>/.bifrost/cache/, with a lazily-purged TTL.
package cache

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultTTL is 90 days, per spec.md §6.
const DefaultTTL = 90 * 24 * time.Hour

const hotCacheSize = 512

// entry is the on-disk envelope: the caller's value plus an absolute expiry.
type entry struct {
	Value  msgpack.RawMessage `msgpack:"value"`
	Expiry int64              `msgpack:"expiry"`
}

// Cache is a two-tier key/value store: an in-memory LRU in front of a
// directory of `<key>.bin` files, mirroring the hot-path/cold-path split
// erigon's state cache uses for its own on-disk-backed reads. The hot tier
// stores the same {value, expiry} envelope as disk so a hot hit is still
// subject to TTL expiry, not just disk reads.
type Cache struct {
	dir string
	hot *lru.Cache[string, entry]
	ttl time.Duration
}

func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	hot, err := lru.New[string, entry](hotCacheSize)
	if err != nil {
		return nil, fmt.Errorf("cache: init hot tier: %w", err)
	}
	return &Cache{dir: dir, hot: hot, ttl: DefaultTTL}, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".bin")
}

// Get reads raw value bytes for key, purging and reporting a miss if the
// entry has expired.
func (c *Cache) Get(key string) ([]byte, bool) {
	if e, ok := c.hot.Get(key); ok {
		if time.Now().Unix() > e.Expiry {
			c.hot.Remove(key)
			_ = os.Remove(c.path(key))
			return nil, false
		}
		return e.Value, true
	}

	blob, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	decoded := make([]byte, hex.DecodedLen(len(blob)))
	n, err := hex.Decode(decoded, blob)
	if err != nil {
		return nil, false
	}
	var e entry
	if err := msgpack.Unmarshal(decoded[:n], &e); err != nil {
		return nil, false
	}
	if time.Now().Unix() > e.Expiry {
		_ = os.Remove(c.path(key))
		return nil, false
	}
	c.hot.Add(key, e)
	return e.Value, true
}

// Set writes value under key with the default TTL, hex-encoded msgpack, and
// warms the hot tier.
func (c *Cache) Set(key string, value []byte) error {
	return c.SetTTL(key, value, c.ttl)
}

func (c *Cache) SetTTL(key string, value []byte, ttl time.Duration) error {
	e := entry{Value: value, Expiry: time.Now().Add(ttl).Unix()}
	encoded, err := msgpack.Marshal(&e)
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}
	hexEncoded := make([]byte, hex.EncodedLen(len(encoded)))
	hex.Encode(hexEncoded, encoded)
	if err := os.WriteFile(c.path(key), hexEncoded, 0o644); err != nil {
		return fmt.Errorf("cache: write: %w", err)
	}
	c.hot.Add(key, e)
	return nil
}

// Row is one entry as reported by List, for `cache ls` / a future TUI table
// to render without either of them touching the file format directly.
type Row struct {
	Key     string
	Size    int64
	Expires time.Time
	Expired bool
}

// List enumerates every cache file on disk, sorted by key.
func (c *Cache) List() ([]Row, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("cache: list: %w", err)
	}
	var rows []Row
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".bin" {
			continue
		}
		key := f.Name()[:len(f.Name())-len(".bin")]
		info, err := f.Info()
		if err != nil {
			continue
		}
		row := Row{Key: key, Size: info.Size()}
		if blob, err := os.ReadFile(filepath.Join(c.dir, f.Name())); err == nil {
			decoded := make([]byte, hex.DecodedLen(len(blob)))
			if n, err := hex.Decode(decoded, blob); err == nil {
				var e entry
				if err := msgpack.Unmarshal(decoded[:n], &e); err == nil {
					row.Expires = time.Unix(e.Expiry, 0)
					row.Expired = time.Now().Unix() > e.Expiry
				}
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows, nil
}

// Clean removes every expired entry, returning how many were purged.
func (c *Cache) Clean() (int, error) {
	rows, err := c.List()
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, r := range rows {
		if r.Expired {
			if err := os.Remove(c.path(r.Key)); err == nil {
				c.hot.Remove(r.Key)
				purged++
			}
		}
	}
	return purged, nil
}

// Size returns the total bytes on disk across every cache file.
func (c *Cache) Size() (int64, error) {
	rows, err := c.List()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, r := range rows {
		total += r.Size
	}
	return total, nil
}
