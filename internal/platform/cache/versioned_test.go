package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Versioned {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVersioned(client, "test", time.Minute)
}

func TestFetchJSONCachesUntilBump(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return []int{calls}, nil
	}

	var got []int
	require.NoError(t, c.FetchJSON(ctx, &got, loader, "list"))
	require.Equal(t, []int{1}, got)

	require.NoError(t, c.FetchJSON(ctx, &got, loader, "list"))
	require.Equal(t, []int{1}, got)
	require.Equal(t, 1, calls)

	require.NoError(t, c.Bump(ctx))
	require.NoError(t, c.FetchJSON(ctx, &got, loader, "list"))
	require.Equal(t, []int{2}, got)
	require.Equal(t, 2, calls)
}

func TestFetchJSONWithoutClientCallsLoader(t *testing.T) {
	var c *Versioned
	calls := 0
	var got map[string]string
	err := c.FetchJSON(context.Background(), &got, func(context.Context) (any, error) {
		calls++
		return map[string]string{"a": "b"}, nil
	}, "x")
	require.NoError(t, err)
	require.Equal(t, "b", got["a"])
	require.NoError(t, c.Bump(context.Background()))
	require.Equal(t, 1, calls)
}

func TestFetchJSONDoesNotCacheErrors(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	boom := errors.New("boom")
	var got []int
	err := c.FetchJSON(ctx, &got, func(context.Context) (any, error) { return nil, boom }, "err")
	require.ErrorIs(t, err, boom)

	err = c.FetchJSON(ctx, &got, func(context.Context) (any, error) { return []int{7}, nil }, "err")
	require.NoError(t, err)
	require.Equal(t, []int{7}, got)
}
