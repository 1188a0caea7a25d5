package roomid

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormat(t *testing.T) {
	id := New()
	require.Len(t, id, 36)

	for _, pos := range []int{8, 13, 18, 23} {
		assert.Equal(t, byte('-'), id[pos], "hyphen at %d in %s", pos, id)
	}
	// Version marker.
	assert.Equal(t, byte('7'), id[14], "version nibble in %s", id)
	// RFC 4122 variant.
	assert.Contains(t, "89ab", string(id[19]), "variant nibble in %s", id)
}

func TestNewUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := New()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNewTimeOrdered(t *testing.T) {
	// Ids minted in later milliseconds must sort lexically after
	// earlier ones: the 48-bit timestamp is the string prefix.
	ids := make([]string, 5)
	for i := range ids {
		ids[i] = New()
		time.Sleep(2 * time.Millisecond)
	}
	assert.True(t, sort.StringsAreSorted(ids), "not time-ordered: %v", ids)
}
