package chatdb

import (
	"math"
	"time"
)

// AppleEpochOffset is the number of nanoseconds between the Unix epoch and
// 2001-01-01T00:00:00Z, the zero point of every timestamp column in chat.db.
const AppleEpochOffset int64 = 978_307_200_000_000_000

// ToStoreEpoch converts Unix nanoseconds to store nanoseconds. Instants before
// 2001 are not representable and are floored to zero.
func ToStoreEpoch(unixNanos int64) int64 {
	return max(unixNanos, AppleEpochOffset) - AppleEpochOffset
}

// ToUnixEpoch converts store nanoseconds to Unix nanoseconds.
func ToUnixEpoch(storeNanos int64) int64 {
	return storeNanos + AppleEpochOffset
}

// StoreToUnixMilli converts a store timestamp to Unix milliseconds.
func StoreToUnixMilli(storeNanos int64) int64 {
	return ToUnixEpoch(storeNanos) / int64(time.Millisecond)
}

// StoreEpochFromUnixMilli converts Unix milliseconds to a store timestamp.
// Values too large to express in nanoseconds saturate.
func StoreEpochFromUnixMilli(ms int64) int64 {
	if ms <= 0 {
		return 0
	}
	if ms > math.MaxInt64/int64(time.Millisecond) {
		return math.MaxInt64 - AppleEpochOffset
	}
	return ToStoreEpoch(ms * int64(time.Millisecond))
}

// StoreEpochFromTime converts a wall-clock reading to a store timestamp.
func StoreEpochFromTime(t time.Time) int64 {
	return ToStoreEpoch(t.UnixNano())
}
