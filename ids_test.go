package otterreceiver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_IDSource_Defaults(t *testing.T) {
	ids := NewIDSource()
	require.Equal(t, uint64(0), ids.NextThreadID())
	require.Equal(t, uint64(1), ids.NextParallelID())
	require.Equal(t, uint64(1), ids.NextTaskID())
}

func Test_IDSource_Monotonic(t *testing.T) {
	ids := NewIDSource()
	var last uint64
	for i := 0; i < 10; i++ {
		ref := ids.NextRegionRef()
		if i > 0 {
			require.Greater(t, ref, last)
		}
		last = ref
	}
}

func Test_deriveTraceID_StableForSameLocation(t *testing.T) {
	a := deriveTraceID(42)
	b := deriveTraceID(42)
	require.Equal(t, a, b)
}

func Test_deriveTraceID_DiffersAcrossLocations(t *testing.T) {
	require.NotEqual(t, deriveTraceID(1), deriveTraceID(2))
}

func Test_deriveSpanID_DiffersByRegionRef(t *testing.T) {
	a := deriveSpanID(1, 10)
	b := deriveSpanID(1, 11)
	require.NotEqual(t, a, b)
}

func Test_deriveSpanID_DiffersByLocationEvenWithSameRegionRef(t *testing.T) {
	a := deriveSpanID(1, 10)
	b := deriveSpanID(2, 10)
	require.NotEqual(t, a, b)
}
