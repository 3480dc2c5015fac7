package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.SetJSON(ctx, "category:phones:bindings", []string{"a", "b"}, time.Minute))

	var got []string
	found, err := m.GetJSON(ctx, "category:phones:bindings", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, got)

	now = now.Add(2 * time.Minute)
	found, err = m.GetJSON(ctx, "category:phones:bindings", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryDeletePattern(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SetJSON(ctx, "products:list:abc", 1, 0))
	require.NoError(t, m.SetJSON(ctx, "products:list:def", 2, 0))
	require.NoError(t, m.SetJSON(ctx, "category:x:bindings", 3, 0))

	require.NoError(t, m.DeletePattern(ctx, "products:list:*"))
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(ctx, "category:x:bindings"))
	assert.Equal(t, 0, m.Len())
}
