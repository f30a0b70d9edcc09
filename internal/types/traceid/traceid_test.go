package traceid

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerate verifies that generated IDs are unique UUIDs.
func TestGenerate(t *testing.T) {
	first, second := Generate(), Generate()
	assert.NotEqual(t, first, second)

	_, err := uuid.Parse(first.String())
	require.NoError(t, err)
}

// TestContext verifies that an ID survives a round trip through a context.
func TestContext(t *testing.T) {
	_, exists := FromContext(context.Background())
	assert.False(t, exists)

	id := Generate()
	got, exists := FromContext(NewContext(context.Background(), id))
	require.True(t, exists)
	assert.Equal(t, id, got)
}
