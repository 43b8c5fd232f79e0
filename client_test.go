package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL_TrimsWhitespaceAndTrailingSlash(t *testing.T) {
	assert.Equal(t, "mongodb://localhost:27017", normalizeURL(" mongodb://localhost:27017/ "))
}

func TestConnect_RejectsInvalidConfigBeforeDialing(t *testing.T) {
	_, err := Connect(context.Background(), Config{})
	require.Error(t, err)
}
