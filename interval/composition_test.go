package interval

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/ivmap"
	"github.com/grailbio/ivmap/ilistmap"
	"github.com/grailbio/ivmap/isetmap"
	"github.com/grailbio/ivmap/ivformat"
)

func writeSetFixture(t *testing.T, path string, records map[uint32][]ivmap.Interval) *isetmap.ISetMap {
	t.Helper()
	w, err := ivformat.NewSetWriter(path, false)
	require.NoError(t, err)
	for id, ivs := range records {
		require.NoError(t, w.Write(id, ivs))
	}
	require.NoError(t, w.Close())
	m, err := isetmap.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func writeListFixture(t *testing.T, path string, payloadLen int, records map[uint32][]ivformat.ListEntry) *ilistmap.IListMap {
	t.Helper()
	w, err := ivformat.NewListWriter(path, payloadLen, false)
	require.NoError(t, err)
	for id, entries := range records {
		require.NoError(t, w.Write(id, entries))
	}
	require.NoError(t, w.Close())
	m, err := ilistmap.Open(path, payloadLen)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

// TestScenarioS4 pins spec.md §8 scenario S4: union of two single-map
// IListMap projections with fuzz=0.
func TestScenarioS4(t *testing.T) {
	dir := t.TempDir()
	m1 := writeListFixture(t, filepath.Join(dir, "a.ilistmap"), 1, map[uint32][]ivformat.ListEntry{
		1: {{A: 0, B: 10, Payload: 1}},
	})
	m2 := writeListFixture(t, filepath.Join(dir, "b.ilistmap"), 1, map[uint32][]ivformat.ListEntry{
		1: {{A: 8, B: 20, Payload: 1}},
	})

	u := NewUnion([]*ilistmap.IListMap{m1, m2}, 0xFF, 1, 0, 0)
	got, err := u.GetIntervals(1, false)
	require.NoError(t, err)
	require.Equal(t, mkivs([2]uint32{0, 20}), got)
}

// TestScenarioS5 pins spec.md §8 scenario S5: intersection of two ISetMaps.
func TestScenarioS5(t *testing.T) {
	dir := t.TempDir()
	a := writeSetFixture(t, filepath.Join(dir, "a.isetmap"), map[uint32][]ivmap.Interval{
		1: mkivs([2]uint32{0, 10}, [2]uint32{20, 30}),
	})
	b := writeSetFixture(t, filepath.Join(dir, "b.isetmap"), map[uint32][]ivmap.Interval{
		1: mkivs([2]uint32{5, 25}),
	})

	x := NewIntersection([]View{a, b})
	got, err := x.GetIntervals(1, false)
	require.NoError(t, err)
	require.Equal(t, mkivs([2]uint32{5, 10}, [2]uint32{20, 25}), got)
}

// TestScenarioS6 pins spec.md §8 scenario S6: subset wrapper.
func TestScenarioS6(t *testing.T) {
	dir := t.TempDir()
	a := writeSetFixture(t, filepath.Join(dir, "a.isetmap"), map[uint32][]ivmap.Interval{
		1: mkivs([2]uint32{0, 10}),
	})

	s := NewSubset(a, []uint32{2})
	got, err := s.GetIntervals(1, true)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = s.GetIntervals(1, false)
	require.ErrorIs(t, err, ivmap.ErrIdNotFound)

	require.Empty(t, s.GetIDs())
}

func TestSubsetTransparentOnAdmissibleID(t *testing.T) {
	dir := t.TempDir()
	a := writeSetFixture(t, filepath.Join(dir, "a.isetmap"), map[uint32][]ivmap.Interval{
		1: mkivs([2]uint32{0, 10}),
		2: mkivs([2]uint32{20, 30}),
	})

	s := NewSubset(a, []uint32{2})
	got, err := s.GetIntervals(2, false)
	require.NoError(t, err)
	require.Equal(t, mkivs([2]uint32{20, 30}), got)
	require.Equal(t, []uint32{2}, s.GetIDs())
}

func TestIListProjectionDeoverlapsAndFilters(t *testing.T) {
	dir := t.TempDir()
	m := writeListFixture(t, filepath.Join(dir, "a.ilistmap"), 1, map[uint32][]ivformat.ListEntry{
		1: {{A: 0, B: 10, Payload: 1}, {A: 5, B: 15, Payload: 2}, {A: 12, B: 20, Payload: 1}},
	})

	p := NewIListProjection(m, 0xFF, 1, 15, 0)
	got, err := p.GetIntervals(1, false)
	require.NoError(t, err)
	require.Equal(t, mkivs([2]uint32{0, 10}, [2]uint32{12, 20}), got)
}

func TestUnionGetIDsIsCachedAndDeduped(t *testing.T) {
	dir := t.TempDir()
	m1 := writeListFixture(t, filepath.Join(dir, "a.ilistmap"), 0, map[uint32][]ivformat.ListEntry{
		1: {{A: 0, B: 10}},
		2: {{A: 0, B: 5}},
	})
	m2 := writeListFixture(t, filepath.Join(dir, "b.ilistmap"), 0, map[uint32][]ivformat.ListEntry{
		2: {{A: 10, B: 15}},
		3: {{A: 0, B: 1}},
	})

	u := NewUnion([]*ilistmap.IListMap{m1, m2}, 0, 0, 0, 0)
	require.Equal(t, []uint32{1, 2, 3}, u.GetIDs())
	require.Equal(t, 3, u.Len())
	// Calling again returns the same published slice's contents.
	require.Equal(t, []uint32{1, 2, 3}, u.GetIDs())
}

func TestIntersectionIDsRequireAllConstituents(t *testing.T) {
	dir := t.TempDir()
	a := writeSetFixture(t, filepath.Join(dir, "a.isetmap"), map[uint32][]ivmap.Interval{
		1: mkivs([2]uint32{0, 10}),
		2: mkivs([2]uint32{0, 10}),
	})
	b := writeSetFixture(t, filepath.Join(dir, "b.isetmap"), map[uint32][]ivmap.Interval{
		2: mkivs([2]uint32{0, 10}),
	})

	x := NewIntersection([]View{a, b})
	require.Equal(t, []uint32{2}, x.GetIDs())
}

func TestIntersectionIsContainedRequiresAll(t *testing.T) {
	dir := t.TempDir()
	a := writeSetFixture(t, filepath.Join(dir, "a.isetmap"), map[uint32][]ivmap.Interval{
		1: mkivs([2]uint32{0, 100}),
	})
	b := writeSetFixture(t, filepath.Join(dir, "b.isetmap"), map[uint32][]ivmap.Interval{
		1: mkivs([2]uint32{50, 60}),
	})

	x := NewIntersection([]View{a, b})
	ok, err := x.IsContained(1, 55, false)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = x.IsContained(1, 10, false)
	require.NoError(t, err)
	require.False(t, ok)
}
