// Package testutil holds fixtures shared by tests across packages.
package testutil

import (
	"sync/atomic"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/runprov/cache"
)

// MockCache is an in-memory cache.Cache that counts hits and stores.
type MockCache struct {
	mem    cache.Memory
	hits   atomic.Int64
	misses atomic.Int64
	puts   atomic.Int64
}

// NewMockCache returns an empty MockCache.
func NewMockCache() *MockCache {
	return &MockCache{}
}

// Get retrieves content by its digest.
func (c *MockCache) Get(dgst digest.Digest) ([]byte, bool) {
	content, ok := c.mem.Get(dgst)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return content, ok
}

// Put stores content under its digest.
func (c *MockCache) Put(dgst digest.Digest, content []byte) error {
	c.puts.Add(1)
	return c.mem.Put(dgst, content)
}

// Hits returns the number of Get calls served from the cache.
func (c *MockCache) Hits() int64 { return c.hits.Load() }

// Misses returns the number of Get calls that missed.
func (c *MockCache) Misses() int64 { return c.misses.Load() }

// Puts returns the number of Put calls.
func (c *MockCache) Puts() int64 { return c.puts.Load() }
