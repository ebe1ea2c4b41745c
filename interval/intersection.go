package interval

import (
	"sync"

	"github.com/biogo/store/llrb"

	"github.com/grailbio/ivmap"
)

// Intersection is the logical intersection of several Views: spec.md
// §4.4(d).
type Intersection struct {
	views []View

	idsOnce sync.Once
	ids     []uint32
}

// NewIntersection builds an Intersection over views. views must be
// non-empty.
func NewIntersection(views []View) *Intersection {
	return &Intersection{views: views}
}

func (x *Intersection) buildIDs() []uint32 {
	x.idsOnce.Do(func() {
		if len(x.views) == 0 {
			return
		}
		counts := make(map[uint32]int)
		for _, v := range x.views {
			for _, id := range v.GetIDs() {
				counts[id]++
			}
		}
		tree := llrb.Tree{}
		for id, c := range counts {
			if c == len(x.views) {
				tree.Insert(idKey(id))
			}
		}
		ids := make([]uint32, 0, tree.Len())
		tree.Do(func(c llrb.Comparable) bool {
			ids = append(ids, uint32(c.(idKey)))
			return false
		})
		x.ids = ids
	})
	return x.ids
}

func (x *Intersection) Len() int {
	return len(x.buildIDs())
}

func (x *Intersection) GetIDs() []uint32 {
	cached := x.buildIDs()
	out := make([]uint32, len(cached))
	copy(out, cached)
	return out
}

func (x *Intersection) HasID(id uint32) bool {
	for _, v := range x.views {
		if !v.HasID(id) {
			return false
		}
	}
	return len(x.views) > 0
}

// GetIntervals folds: starts with the first view's intervals, then
// repeatedly intersects the running result against each remaining view. If
// the fold becomes empty at any step, the result is empty.
func (x *Intersection) GetIntervals(id uint32, useDefault bool) ([]ivmap.Interval, error) {
	if len(x.views) == 0 {
		if useDefault {
			return nil, nil
		}
		return nil, errIdNotFound(id)
	}
	cur, err := x.views[0].GetIntervals(id, useDefault)
	if err != nil {
		return nil, err
	}
	for _, v := range x.views[1:] {
		if len(cur) == 0 {
			return nil, nil
		}
		cur, err = v.Intersect(id, cur, useDefault)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func (x *Intersection) IsContained(id uint32, v uint32, useDefault bool) (bool, error) {
	if len(x.views) == 0 {
		if useDefault {
			return false, nil
		}
		return false, errIdNotFound(id)
	}
	for _, view := range x.views {
		ok, err := view.IsContained(id, v, useDefault)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Intersect folds probes through each view's Intersect in turn.
func (x *Intersection) Intersect(id uint32, probes []ivmap.Interval, useDefault bool) ([]ivmap.Interval, error) {
	if len(x.views) == 0 {
		if useDefault {
			return nil, nil
		}
		return nil, errIdNotFound(id)
	}
	cur := probes
	var err error
	for _, view := range x.views {
		if len(cur) == 0 {
			return nil, nil
		}
		cur, err = view.Intersect(id, cur, useDefault)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// IntersectSum folds probes through every view but the last with Intersect,
// then delegates to the last view's IntersectSum, avoiding materialising the
// final intersection list.
func (x *Intersection) IntersectSum(id uint32, probes []ivmap.Interval, useDefault bool) (int64, error) {
	if len(x.views) == 0 {
		if useDefault {
			return 0, nil
		}
		return 0, errIdNotFound(id)
	}
	cur := probes
	var err error
	for _, view := range x.views[:len(x.views)-1] {
		if len(cur) == 0 {
			return 0, nil
		}
		cur, err = view.Intersect(id, cur, useDefault)
		if err != nil {
			return 0, err
		}
	}
	if len(cur) == 0 {
		return 0, nil
	}
	return x.views[len(x.views)-1].IntersectSum(id, cur, useDefault)
}

// Sum sums the lengths of every interval of every id in the intersection.
func (x *Intersection) Sum() int64 {
	var total int64
	for _, id := range x.GetIDs() {
		ivs, _ := x.GetIntervals(id, true)
		for _, iv := range ivs {
			total += iv.Len()
		}
	}
	return total
}
