package chatdb

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEpochRoundTrip(t *testing.T) {
	for _, unix := range []int64{
		AppleEpochOffset,
		AppleEpochOffset + 1,
		time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixNano(),
		math.MaxInt64,
	} {
		require.Equal(t, unix, ToUnixEpoch(ToStoreEpoch(unix)))
	}
}

func TestEpochClampsBeforeAnchor(t *testing.T) {
	for _, unix := range []int64{0, -1, AppleEpochOffset - 1, math.MinInt64} {
		require.Zero(t, ToStoreEpoch(unix))
		require.Equal(t, AppleEpochOffset, ToUnixEpoch(ToStoreEpoch(unix)))
	}
}

func TestStoreToUnixMilli(t *testing.T) {
	require.Equal(t, int64(978_307_200_000), StoreToUnixMilli(0))
	require.Equal(t, int64(978_307_201_500), StoreToUnixMilli(1_500_000_000))
}

func TestStoreEpochFromUnixMilli(t *testing.T) {
	require.Zero(t, StoreEpochFromUnixMilli(0))
	require.Zero(t, StoreEpochFromUnixMilli(-5))
	require.Zero(t, StoreEpochFromUnixMilli(978_307_200_000))
	require.Equal(t, int64(2_000_000), StoreEpochFromUnixMilli(978_307_200_002))
	require.Equal(t, math.MaxInt64-AppleEpochOffset, StoreEpochFromUnixMilli(math.MaxInt64))

	ts := time.Date(2023, 7, 4, 9, 30, 0, 0, time.UTC)
	require.Equal(t, StoreEpochFromTime(ts), StoreEpochFromUnixMilli(ts.UnixMilli()))
}
