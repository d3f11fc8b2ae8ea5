// Package cache provides content-addressed caching for artifact archives.
//
// Keys are the digests of the archive bytes, so a cached archive can be
// reused across runs that uploaded identical content. Implementations verify
// content against its key on read; a corrupt entry is reported as a miss.
package cache

import (
	_ "crypto/sha256" // register SHA-256 with go-digest
	"sync"

	"github.com/opencontainers/go-digest"
)

// Cache provides content-addressed storage for archive bytes.
//
// Implementations must be safe for concurrent use and handle their own size
// limits and eviction policies.
type Cache interface {
	// Get retrieves content by its digest.
	// Returns nil, false if the content is not cached or fails verification.
	Get(dgst digest.Digest) ([]byte, bool)

	// Put stores content under its digest. Put does not check that content
	// matches dgst; Get does.
	Put(dgst digest.Digest, content []byte) error
}

// Memory is an unbounded in-process Cache. The zero value is ready to use.
type Memory struct {
	mu      sync.RWMutex
	entries map[digest.Digest][]byte
}

// Get retrieves content by its digest.
func (m *Memory) Get(dgst digest.Digest) ([]byte, bool) {
	m.mu.RLock()
	content, ok := m.entries[dgst]
	m.mu.RUnlock()
	if !ok || !Verify(dgst, content) {
		return nil, false
	}
	return content, true
}

// Put stores content under its digest.
func (m *Memory) Put(dgst digest.Digest, content []byte) error {
	if err := dgst.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[digest.Digest][]byte)
	}
	m.entries[dgst] = content
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Verify reports whether content hashes to dgst.
func Verify(dgst digest.Digest, content []byte) bool {
	if dgst.Validate() != nil {
		return false
	}
	return dgst.Algorithm().FromBytes(content) == dgst
}
