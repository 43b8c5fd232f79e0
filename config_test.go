package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateRejectsEmptyURL(t *testing.T) {
	err := Config{}.Validate()
	require.Error(t, err)
}

func TestConfig_ValidateRejectsInvertedPoolSize(t *testing.T) {
	cfg := Config{URL: "mongodb://localhost", MaxPoolSize: 5, MinPoolSize: 10}
	require.Error(t, cfg.Validate())
}

func TestConfig_ValidateRejectsNegativeTimeout(t *testing.T) {
	cfg := Config{URL: "mongodb://localhost", ConnectTimeout: -time.Second}
	require.Error(t, cfg.Validate())
}

func TestConfig_ValidateAcceptsZeroValues(t *testing.T) {
	cfg := Config{URL: "mongodb://localhost"}
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ParallelThresholdDelegatesWhenUnset(t *testing.T) {
	assert.Equal(t, 0, Config{}.parallelThreshold())
	assert.Equal(t, 10, Config{ParallelThreshold: 10}.parallelThreshold())
}
