package interval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/ivmap"
)

func mkivs(pairs ...[2]uint32) []ivmap.Interval {
	out := make([]ivmap.Interval, len(pairs))
	for i, p := range pairs {
		out[i] = ivmap.Interval{A: p[0], B: p[1]}
	}
	return out
}

func TestDeoverlapNoFuzz(t *testing.T) {
	in := mkivs([2]uint32{0, 10}, [2]uint32{5, 15}, [2]uint32{20, 25}, [2]uint32{25, 30})
	got := Deoverlap(in, 0)
	require.Equal(t, mkivs([2]uint32{0, 15}, [2]uint32{20, 30}), got)
}

func TestDeoverlapWithFuzz(t *testing.T) {
	in := mkivs([2]uint32{0, 10}, [2]uint32{12, 20})
	require.Equal(t, mkivs([2]uint32{0, 10}, [2]uint32{12, 20}), Deoverlap(in, 0))
	require.Equal(t, mkivs([2]uint32{0, 20}), Deoverlap(in, 2))
}

func TestDeoverlapIdempotent(t *testing.T) {
	in := mkivs([2]uint32{0, 10}, [2]uint32{5, 15}, [2]uint32{30, 40})
	once := Deoverlap(in, 0)
	twice := Deoverlap(once, 0)
	require.Equal(t, once, twice)
}

func TestDeoverlapEmpty(t *testing.T) {
	require.Empty(t, Deoverlap(nil, 0))
}

func TestDeoverlapStrictSeparation(t *testing.T) {
	got := Deoverlap(mkivs([2]uint32{0, 10}, [2]uint32{20, 30}), 5)
	require.Len(t, got, 2)
	require.GreaterOrEqual(t, int64(got[1].A), int64(got[0].B)+5)
}
