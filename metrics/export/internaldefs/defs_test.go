package internaldefs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/credflow"
)

func TestCounterDefsUnique(t *testing.T) {
	ids := map[credflow.MetricID]bool{}
	names := map[string]bool{}
	for _, def := range CounterDefs {
		require.False(t, ids[def.ID], "duplicate id for %s", def.Name)
		require.False(t, names[def.Name], "duplicate name %s", def.Name)
		require.True(t, strings.HasPrefix(def.Name, "credflow_"))
		require.True(t, strings.HasSuffix(def.Name, "_total"))
		ids[def.ID] = true
		names[def.Name] = true
	}
	for _, def := range HistogramDefs {
		require.False(t, ids[def.ID], "histogram %s reuses a counter id", def.Name)
	}
}

func TestBucketHelpers(t *testing.T) {
	require.Len(t, HistogramBoundSuffix, len(HistogramBounds))
	require.Equal(t, [8]uint64{1, 2, 0, 0, 0, 0, 0, 0}, NormalizeBuckets([]uint64{1, 2}))
	require.Equal(t, [8]uint64{1, 3, 6, 10, 15, 21, 28, 36}, CumulativeBuckets([8]uint64{1, 2, 3, 4, 5, 6, 7, 8}))
}
