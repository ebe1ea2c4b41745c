// Package isetmap implements the ISetMap engine of spec.md §4.2: a
// random-access reader over per-id sets of sorted, non-overlapping,
// non-touching intervals, read directly out of a memory-mapped file.
//
// The binary-search contracts below are the same lower_bound-on-b_k>a
// discipline the teacher repo's interval/endpoint_index.go documents for
// its own disjoint-interval-union scanner, adapted from "endpoints of one
// chromosome's interval-union" to "entries of one id's interval array."
package isetmap

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"

	"github.com/grailbio/ivmap"
	"github.com/grailbio/ivmap/ivfile"
	"github.com/grailbio/ivmap/recindex"
)

const stride = 8 // a:u32le b:u32le

// ISetMap is a read-only, memory-mapped ISetMap store (spec.md §3, §4.2).
// The zero value is not usable; construct one with Open. All methods are
// safe for concurrent use by multiple goroutines: nothing here holds
// mutable shared state on the read path.
type ISetMap struct {
	file  *ivfile.File
	data  []byte
	index *recindex.Index
}

// Open maps path and builds its record index in one sequential pass.
func Open(path string) (*ISetMap, error) {
	f, err := ivfile.Open(path)
	if err != nil {
		return nil, err
	}
	data := f.Bytes()
	idx, err := recindex.BuildOrLoad(path, data, stride, nil)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "isetmap: %s", path)
	}
	return &ISetMap{file: f, data: data, index: idx}, nil
}

// Close releases the mapping. The ISetMap must not be used afterwards.
func (m *ISetMap) Close() error {
	return m.file.Close()
}

// Len returns the number of distinct ids in the store.
func (m *ISetMap) Len() int {
	return m.index.Len()
}

// GetIDs returns all ids in ascending order.
func (m *ISetMap) GetIDs() []uint32 {
	return m.index.IDs()
}

// HasID reports whether id is present.
func (m *ISetMap) HasID(id uint32) bool {
	return m.index.Has(id)
}

// record is a view over one id's interval array, backed directly by the
// mapped bytes: reading it never copies.
type record struct {
	data []byte
	off  int
	n    uint32
}

func (m *ISetMap) record(id uint32) (record, bool) {
	e, ok := m.index.Get(id)
	if !ok {
		return record{}, false
	}
	return record{data: m.data, off: e.Offset, n: e.Count}, true
}

func (r record) at(k int) ivmap.Interval {
	base := r.off + k*stride
	return ivmap.Interval{
		A: binary.LittleEndian.Uint32(r.data[base:]),
		B: binary.LittleEndian.Uint32(r.data[base+4:]),
	}
}

// lowerBoundB returns the smallest k such that r.at(k).B > a, or r.n if no
// such k exists. Because the record's intervals are sorted and disjoint,
// this is also the first interval that could possibly overlap [a, *).
func (r record) lowerBoundB(a uint32) int {
	return sort.Search(int(r.n), func(k int) bool {
		return r.at(k).B > a
	})
}

// GetIntervalCount returns n for id, or ErrIdNotFound if id is absent.
func (m *ISetMap) GetIntervalCount(id uint32) (int, error) {
	r, ok := m.record(id)
	if !ok {
		return 0, errors.Wrapf(ivmap.ErrIdNotFound, "isetmap: id %d", id)
	}
	return int(r.n), nil
}

// GetInterval returns the k-th interval of id, or ErrIndexOutOfRange if
// k >= the record's count, or ErrIdNotFound if id is absent.
func (m *ISetMap) GetInterval(id uint32, k int) (ivmap.Interval, error) {
	r, ok := m.record(id)
	if !ok {
		return ivmap.Interval{}, errors.Wrapf(ivmap.ErrIdNotFound, "isetmap: id %d", id)
	}
	if k < 0 || k >= int(r.n) {
		return ivmap.Interval{}, errors.Wrapf(ivmap.ErrIndexOutOfRange, "isetmap: id %d index %d (count %d)", id, k, r.n)
	}
	return r.at(k), nil
}

// GetIntervals materializes id's full interval list. If id is absent,
// returns an empty slice when useDefault is true, else ErrIdNotFound.
func (m *ISetMap) GetIntervals(id uint32, useDefault bool) ([]ivmap.Interval, error) {
	r, ok := m.record(id)
	if !ok {
		if useDefault {
			return nil, nil
		}
		return nil, errors.Wrapf(ivmap.ErrIdNotFound, "isetmap: id %d", id)
	}
	out := make([]ivmap.Interval, r.n)
	for k := range out {
		out[k] = r.at(k)
	}
	return out, nil
}

// IsContained reports whether v falls in some interval of id: exists k with
// a_k <= v < b_k. Implemented as a binary search for the largest k with
// a_k <= v, then a test of v < b_k (spec.md §4.2).
func (m *ISetMap) IsContained(id uint32, v uint32, useDefault bool) (bool, error) {
	r, ok := m.record(id)
	if !ok {
		if useDefault {
			return false, nil
		}
		return false, errors.Wrapf(ivmap.ErrIdNotFound, "isetmap: id %d", id)
	}
	idx := sort.Search(int(r.n), func(k int) bool { return r.at(k).A > v })
	if idx == 0 {
		return false, nil
	}
	return v < r.at(idx-1).B, nil
}

// HasIntersection reports whether [a, b) intersects any interval of id.
func (m *ISetMap) HasIntersection(id uint32, a, b uint32, useDefault bool) (bool, error) {
	if b <= a {
		return false, errors.Wrapf(ivmap.ErrInvalidArgument, "isetmap: has_intersection(%d,%d)", a, b)
	}
	r, ok := m.record(id)
	if !ok {
		if useDefault {
			return false, nil
		}
		return false, errors.Wrapf(ivmap.ErrIdNotFound, "isetmap: id %d", id)
	}
	idx := r.lowerBoundB(a)
	if idx == int(r.n) {
		return false, nil
	}
	return r.at(idx).A < b, nil
}

// Sum returns the sum, over every id in the store, of every interval's
// length, accumulated in a 64-bit integer per spec.md §9.
func (m *ISetMap) Sum() int64 {
	var total int64
	for _, id := range m.index.IDs() {
		r, _ := m.record(id)
		for k := 0; k < int(r.n); k++ {
			total += r.at(k).Len()
		}
	}
	return total
}

func validateProbes(probes []ivmap.Interval) error {
	for _, p := range probes {
		if p.B <= p.A {
			return errors.Wrapf(ivmap.ErrInvalidArgument, "isetmap: probe [%d,%d)", p.A, p.B)
		}
	}
	return nil
}

// Intersect returns, for each probe in input order, the non-empty
// intersections of that probe against id's intervals, walked in ascending
// order starting from the first interval whose B exceeds the probe's A
// (spec.md §4.2). No deoverlapping is performed at this layer.
func (m *ISetMap) Intersect(id uint32, probes []ivmap.Interval, useDefault bool) ([]ivmap.Interval, error) {
	if err := validateProbes(probes); err != nil {
		return nil, err
	}
	r, ok := m.record(id)
	if !ok {
		if useDefault {
			return nil, nil
		}
		return nil, errors.Wrapf(ivmap.ErrIdNotFound, "isetmap: id %d", id)
	}
	var out []ivmap.Interval
	for _, p := range probes {
		for k := r.lowerBoundB(p.A); k < int(r.n); k++ {
			e := r.at(k)
			if e.A >= p.B {
				break
			}
			lo, hi := maxU32(p.A, e.A), minU32(p.B, e.B)
			if lo < hi {
				out = append(out, ivmap.Interval{A: lo, B: hi})
			}
		}
	}
	return out, nil
}

// IntersectSum returns the sum of the interval lengths Intersect would
// produce, without materializing them.
func (m *ISetMap) IntersectSum(id uint32, probes []ivmap.Interval, useDefault bool) (int64, error) {
	if err := validateProbes(probes); err != nil {
		return 0, err
	}
	r, ok := m.record(id)
	if !ok {
		if useDefault {
			return 0, nil
		}
		return 0, errors.Wrapf(ivmap.ErrIdNotFound, "isetmap: id %d", id)
	}
	var total int64
	for _, p := range probes {
		for k := r.lowerBoundB(p.A); k < int(r.n); k++ {
			e := r.at(k)
			if e.A >= p.B {
				break
			}
			lo, hi := maxU32(p.A, e.A), minU32(p.B, e.B)
			if lo < hi {
				total += int64(hi) - int64(lo)
			}
		}
	}
	return total, nil
}

// Minus subtracts, independently for each probe in input order, every
// overlapping interval of id's record, emitting the leftover gaps within
// that probe in ascending order. Probes are not unioned with each other
// (spec.md §4.2).
func (m *ISetMap) Minus(id uint32, probes []ivmap.Interval, useDefault bool) ([]ivmap.Interval, error) {
	if err := validateProbes(probes); err != nil {
		return nil, err
	}
	r, ok := m.record(id)
	if !ok {
		if useDefault {
			return nil, nil
		}
		return nil, errors.Wrapf(ivmap.ErrIdNotFound, "isetmap: id %d", id)
	}
	var out []ivmap.Interval
	for _, p := range probes {
		cur := p.A
		for k := r.lowerBoundB(p.A); k < int(r.n); k++ {
			e := r.at(k)
			if e.A >= p.B {
				break
			}
			if e.A > cur {
				out = append(out, ivmap.Interval{A: cur, B: e.A})
			}
			if e.B > cur {
				cur = e.B
			}
		}
		if cur < p.B {
			out = append(out, ivmap.Interval{A: cur, B: p.B})
		}
	}
	return out, nil
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
