package cache

import (
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPutGet(t *testing.T) {
	t.Parallel()

	var c Memory
	content := []byte("archive bytes")
	dgst := digest.FromBytes(content)

	_, ok := c.Get(dgst)
	assert.False(t, ok, "empty cache should miss")

	require.NoError(t, c.Put(dgst, content))
	got, ok := c.Get(dgst)
	require.True(t, ok)
	assert.Equal(t, content, got)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryRejectsInvalidDigest(t *testing.T) {
	t.Parallel()

	var c Memory
	assert.Error(t, c.Put(digest.Digest("sha256:short"), []byte("x")))
	assert.Equal(t, 0, c.Len())
}

func TestMemoryMismatchIsMiss(t *testing.T) {
	t.Parallel()

	var c Memory
	dgst := digest.FromString("expected")
	require.NoError(t, c.Put(dgst, []byte("something else")))

	_, ok := c.Get(dgst)
	assert.False(t, ok, "content not matching its key must not be served")
}

func TestMemoryConcurrent(t *testing.T) {
	t.Parallel()

	var c Memory
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Go(func() {
			content := []byte{byte(i)}
			dgst := digest.FromBytes(content)
			assert.NoError(t, c.Put(dgst, content))
			got, ok := c.Get(dgst)
			assert.True(t, ok)
			assert.Equal(t, content, got)
		})
	}
	wg.Wait()
	assert.Equal(t, 32, c.Len())
}

func TestVerify(t *testing.T) {
	t.Parallel()

	content := []byte("payload")
	assert.True(t, Verify(digest.FromBytes(content), content))
	assert.False(t, Verify(digest.FromBytes(content), []byte("other")))
	assert.False(t, Verify(digest.Digest("bogus"), content))
}
