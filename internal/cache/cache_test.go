package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set("selector:a9059cbb", []byte("transfer(address,uint256)")))

	got, ok := c.Get("selector:a9059cbb")
	require.True(t, ok)
	require.Equal(t, []byte("transfer(address,uint256)"), got)
}

func TestGetMissingKey(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	_, ok := c.Get("nope")
	require.False(t, ok)
}

func TestSetTTLExpires(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.SetTTL("short-lived", []byte("x"), -time.Second))

	_, ok := c.Get("short-lived")
	require.False(t, ok, "an already-expired entry must not be returned")
}

func TestListAndClean(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set("live", []byte("a")))
	require.NoError(t, c.SetTTL("dead", []byte("b"), -time.Second))

	rows, err := c.List()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	purged, err := c.Clean()
	require.NoError(t, err)
	require.Equal(t, 1, purged)

	rows, err = c.List()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "live", rows[0].Key)
}

func TestSize(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set("a", []byte("hello")))
	require.NoError(t, c.Set("b", []byte("world")))

	size, err := c.Size()
	require.NoError(t, err)
	require.Greater(t, size, int64(0))
}
