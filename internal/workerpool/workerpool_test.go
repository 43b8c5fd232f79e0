package workerpool

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_PreservesOutputOrder(t *testing.T) {
	out := make([]int, 100)
	err := Map(len(out), func(i int) error {
		out[i] = i * i
		return nil
	})
	require.NoError(t, err)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestMap_ZeroLengthIsNoOp(t *testing.T) {
	var calls int32
	err := Map(0, func(i int) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(0), calls)
}

func TestMap_FirstErrorShortCircuits(t *testing.T) {
	boom := errors.New("boom")
	err := Map(10, func(i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestMap_RespectsMaxWorkersBound(t *testing.T) {
	prev := MaxWorkers
	MaxWorkers = 2
	defer func() { MaxWorkers = prev }()

	var concurrent, maxSeen int32
	err := Map(20, func(i int) error {
		n := atomic.AddInt32(&concurrent, 1)
		defer atomic.AddInt32(&concurrent, -1)
		for {
			m := atomic.LoadInt32(&maxSeen)
			if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
				break
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, maxSeen, int32(2))
}
