package cache

import (
	"context"
	"testing"
	"time"

	"marketdata-service/internal/application"

	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Get(ctx, "k")
	require.ErrorIs(t, err, application.ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)
}

func TestMemory_Expiry(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 30*time.Second))
	now = now.Add(31 * time.Second)
	_, err := m.Get(ctx, "k")
	require.ErrorIs(t, err, application.ErrCacheMiss)
}
