package chatdb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaginateLength(t *testing.T) {
	for n := 0; n <= 6; n++ {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		for offset := 0; offset <= 8; offset++ {
			for limit := 0; limit <= 8; limit++ {
				got := Paginate(items, offset, limit)
				want := max(0, min(limit, n-min(offset, n)))
				require.Len(t, got, want, "n=%d offset=%d limit=%d", n, offset, limit)
				for i, v := range got {
					require.Equal(t, offset+i, v)
				}
			}
		}
	}
}

func TestPaginateNegativeAndHuge(t *testing.T) {
	items := []int{0, 1, 2, 3}
	require.Equal(t, []int{0, 1}, Paginate(items, -3, 2))
	require.Empty(t, Paginate(items, 1, -1))
	require.Equal(t, []int{2, 3}, Paginate(items, 2, math.MaxInt))
	require.Empty(t, Paginate(items, math.MaxInt, math.MaxInt))
}

func TestPaginateDoesNotAliasTail(t *testing.T) {
	items := []int{0, 1, 2, 3}
	page := Paginate(items, 0, 2)
	page = append(page, 99)
	require.Equal(t, []int{0, 1, 2, 3}, items)
	require.Equal(t, []int{0, 1, 99}, page)
}

func TestFetchWindow(t *testing.T) {
	require.Equal(t, 5, fetchWindow(2, 3))
	require.Equal(t, 3, fetchWindow(-2, 3))
	require.Equal(t, math.MaxInt, fetchWindow(10, math.MaxInt))
}

func TestSortMessages(t *testing.T) {
	msgs := []Message{
		{RowID: 1, DateCreated: 10},
		{RowID: 2, DateCreated: 30},
		{RowID: 3, DateCreated: 20},
		{RowID: 4, DateCreated: 20},
	}
	rowIDs := func() []int64 {
		var ids []int64
		for _, m := range msgs {
			ids = append(ids, m.RowID)
		}
		return ids
	}

	sortMessages(msgs, SortDescending)
	require.Equal(t, []int64{2, 4, 3, 1}, rowIDs())

	sortMessages(msgs, SortAscending)
	require.Equal(t, []int64{1, 3, 4, 2}, rowIDs())
}

func TestParseOptions(t *testing.T) {
	o, err := ParseSortOrder("asc")
	require.NoError(t, err)
	require.Equal(t, SortAscending, o)
	o, err = ParseSortOrder("")
	require.NoError(t, err)
	require.Equal(t, SortDescending, o)
	_, err = ParseSortOrder("sideways")
	require.Error(t, err)

	lo, err := ParseLastMessageOrder("latest")
	require.NoError(t, err)
	require.Equal(t, LastMessageLatest, lo)
	_, err = ParseLastMessageOrder("middle")
	require.Error(t, err)

	k, err := ParseEntityKind("handles")
	require.NoError(t, err)
	require.Equal(t, KindParticipant, k)
	_, err = ParseEntityKind("reactions")
	require.Error(t, err)
}
