package interval

import (
	"sync"

	"github.com/biogo/store/llrb"

	"github.com/grailbio/ivmap"
	"github.com/grailbio/ivmap/ilistmap"
)

// idKey adapts a uint32 id for storage in an llrb.Tree, giving Union and
// Intersection an ordered, deduplicating accumulator for their cached id
// sets (spec.md §5's "one-shot publication barrier"), grounded on the
// teacher repo's encoding/bampair/shard_info.go key/Compare pattern.
type idKey uint32

func (k idKey) Compare(c llrb.Comparable) int {
	o := c.(idKey)
	switch {
	case k < o:
		return -1
	case k > o:
		return 1
	default:
		return 0
	}
}

// Union is the logical union of several IListMap projections sharing one
// (mask, value, search_window, fuzz): spec.md §4.4(b).
type Union struct {
	maps         []*ilistmap.IListMap
	mask, value  uint64
	searchWindow uint32
	fuzz         uint32

	idsOnce sync.Once
	ids     []uint32
}

// NewUnion builds a Union over maps, all filtered by the same (mask, value).
func NewUnion(maps []*ilistmap.IListMap, mask, value uint64, searchWindow, fuzz uint32) *Union {
	return &Union{maps: maps, mask: mask, value: value, searchWindow: searchWindow, fuzz: fuzz}
}

// buildIDs computes the sorted union of constituent ids exactly once; later
// calls observe the same published slice.
func (u *Union) buildIDs() []uint32 {
	u.idsOnce.Do(func() {
		tree := llrb.Tree{}
		for _, m := range u.maps {
			for _, id := range m.GetIDs() {
				k := idKey(id)
				if tree.Get(k) == nil {
					tree.Insert(k)
				}
			}
		}
		ids := make([]uint32, 0, tree.Len())
		tree.Do(func(c llrb.Comparable) bool {
			ids = append(ids, uint32(c.(idKey)))
			return false
		})
		u.ids = ids
	})
	return u.ids
}

func (u *Union) Len() int {
	return len(u.buildIDs())
}

func (u *Union) GetIDs() []uint32 {
	cached := u.buildIDs()
	out := make([]uint32, len(cached))
	copy(out, cached)
	return out
}

func (u *Union) HasID(id uint32) bool {
	for _, m := range u.maps {
		if m.HasID(id) {
			return true
		}
	}
	return false
}

func (u *Union) GetIntervals(id uint32, useDefault bool) ([]ivmap.Interval, error) {
	var lists [][]ivmap.Interval
	found := false
	for _, m := range u.maps {
		if !m.HasID(id) {
			continue
		}
		found = true
		ivs, err := m.GetIntervals(id, u.mask, u.value, true)
		if err != nil {
			return nil, err
		}
		if len(ivs) > 0 {
			lists = append(lists, ivs)
		}
	}
	if !found {
		if useDefault {
			return nil, nil
		}
		return nil, errIdNotFound(id)
	}
	return Deoverlap(mergeByA(lists...), u.fuzz), nil
}

func (u *Union) IsContained(id uint32, v uint32, useDefault bool) (bool, error) {
	found := false
	for _, m := range u.maps {
		if !m.HasID(id) {
			continue
		}
		found = true
		ok, err := m.IsContained(id, v, u.mask, u.value, true, u.searchWindow)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	if !found {
		if useDefault {
			return false, nil
		}
		return false, errIdNotFound(id)
	}
	return false, nil
}

func (u *Union) Intersect(id uint32, probes []ivmap.Interval, useDefault bool) ([]ivmap.Interval, error) {
	var lists [][]ivmap.Interval
	found := false
	for _, m := range u.maps {
		if !m.HasID(id) {
			continue
		}
		found = true
		ivs, err := m.Intersect(id, probes, u.mask, u.value, true)
		if err != nil {
			return nil, err
		}
		if len(ivs) > 0 {
			lists = append(lists, ivs)
		}
	}
	if !found {
		if useDefault {
			return nil, nil
		}
		return nil, errIdNotFound(id)
	}
	return Deoverlap(mergeByA(lists...), u.fuzz), nil
}

func (u *Union) IntersectSum(id uint32, probes []ivmap.Interval, useDefault bool) (int64, error) {
	ivs, err := u.Intersect(id, probes, useDefault)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, iv := range ivs {
		total += iv.Len()
	}
	return total, nil
}

// Sum sums, over every id in the union's constituent maps, the deoverlapped
// length of every entry admitted by (mask, value).
func (u *Union) Sum() int64 {
	var total int64
	for _, id := range u.buildIDs() {
		ivs, _ := u.GetIntervals(id, true)
		for _, iv := range ivs {
			total += iv.Len()
		}
	}
	return total
}
