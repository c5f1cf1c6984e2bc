package utils

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDShape(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id := NewID()
		require.Len(t, id, IDLength)
		_, err := hex.DecodeString(id)
		require.NoError(t, err, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}
