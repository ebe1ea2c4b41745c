// Package ilistmap implements the IListMap engine of spec.md §4.3: a
// random-access reader over per-id lists of (possibly overlapping)
// intervals, each carrying a small fixed-width payload used to discriminate
// sub-tracks within one id.
//
// Because entries are not disjoint, a point query can't stop at the first
// candidate the way isetmap's can; spec.md §9 permits bounding the binary
// search with a per-record running maximum entry length instead of making
// every caller supply (and over-estimate) a global search_window, and this
// is the approach taken here: recindex.Build is handed a measure callback
// that records each entry's length, and every windowed search clamps the
// caller's window up to that maximum before searching.
package ilistmap

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"

	"github.com/grailbio/ivmap"
	"github.com/grailbio/ivmap/ivfile"
	"github.com/grailbio/ivmap/recindex"
)

const headerStride = 8 // a:u32le b:u32le, payload follows

// Entry is one (a, b, payload) tuple of an IListMap record.
type Entry struct {
	A, B    uint32
	Payload uint64
}

// Interval projects Entry down to its [A, B) range.
func (e Entry) Interval() ivmap.Interval {
	return ivmap.Interval{A: e.A, B: e.B}
}

// IListMap is a read-only, memory-mapped IListMap store (spec.md §3, §4.3).
// The zero value is not usable; construct one with Open.
type IListMap struct {
	file       *ivfile.File
	data       []byte
	index      *recindex.Index
	payloadLen int
	stride     int
}

// Open maps path, whose entries carry a payloadLen-byte (0-8) payload, and
// builds its record index in one sequential pass.
func Open(path string, payloadLen int) (*IListMap, error) {
	if payloadLen < 0 || payloadLen > 8 {
		return nil, errors.Wrapf(ivmap.ErrInvalidArgument, "ilistmap: payload length %d outside [0,8]", payloadLen)
	}
	f, err := ivfile.Open(path)
	if err != nil {
		return nil, err
	}
	data := f.Bytes()
	stride := headerStride + payloadLen
	m := &IListMap{file: f, data: data, payloadLen: payloadLen, stride: stride}

	idx, err := recindex.BuildOrLoad(path, data, stride, m.entryLen)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "ilistmap: %s", path)
	}
	m.index = idx
	return m, nil
}

// entryLen is the recindex measure callback: the length of the k-th entry
// starting at byte offset off.
func (m *IListMap) entryLen(data []byte, off int, k int) uint32 {
	base := off + k*m.stride
	a := binary.LittleEndian.Uint32(data[base:])
	b := binary.LittleEndian.Uint32(data[base+4:])
	return b - a
}

// Close releases the mapping. The IListMap must not be used afterwards.
func (m *IListMap) Close() error {
	return m.file.Close()
}

// Len returns the number of distinct ids in the store.
func (m *IListMap) Len() int {
	return m.index.Len()
}

// GetIDs returns all ids in ascending order.
func (m *IListMap) GetIDs() []uint32 {
	return m.index.IDs()
}

// HasID reports whether id is present.
func (m *IListMap) HasID(id uint32) bool {
	return m.index.Has(id)
}

type record struct {
	data       []byte
	off        int
	n          uint32
	maxLen     uint32
	stride     int
	payloadLen int
}

func (m *IListMap) record(id uint32) (record, bool) {
	e, ok := m.index.Get(id)
	if !ok {
		return record{}, false
	}
	return record{data: m.data, off: e.Offset, n: e.Count, maxLen: e.MaxLen, stride: m.stride, payloadLen: m.payloadLen}, true
}

func (r record) at(k int) Entry {
	base := r.off + k*r.stride
	a := binary.LittleEndian.Uint32(r.data[base:])
	b := binary.LittleEndian.Uint32(r.data[base+4:])
	var payload uint64
	for i := 0; i < r.payloadLen; i++ {
		payload |= uint64(r.data[base+8+i]) << (8 * uint(i))
	}
	return Entry{A: a, B: b, Payload: payload}
}

func admitted(e Entry, mask, value uint64) bool {
	return (e.Payload & mask) == value
}

// lowerBoundA returns the smallest k with r.at(k).A >= target.
func (r record) lowerBoundA(target uint32) int {
	return sort.Search(int(r.n), func(k int) bool { return r.at(k).A >= target })
}

// effectiveWindow clamps a caller-supplied search_window up to the
// record's own tracked maximum entry length, so a search is always at
// least as wide as necessary regardless of what the caller passed.
func (r record) effectiveWindow(searchWindow uint32) uint32 {
	if r.maxLen > searchWindow {
		return r.maxLen
	}
	return searchWindow
}

// GetIntervalCount returns the count of entries admitted by (mask, value).
func (m *IListMap) GetIntervalCount(id uint32, mask, value uint64) (int, error) {
	r, ok := m.record(id)
	if !ok {
		return 0, errors.Wrapf(ivmap.ErrIdNotFound, "ilistmap: id %d", id)
	}
	count := 0
	for k := 0; k < int(r.n); k++ {
		if admitted(r.at(k), mask, value) {
			count++
		}
	}
	return count, nil
}

// GetIntervals returns admitted entries as [a, b) pairs, in storage order
// (sorted by a, stable for ties). No deoverlapping is performed.
func (m *IListMap) GetIntervals(id uint32, mask, value uint64, useDefault bool) ([]ivmap.Interval, error) {
	r, ok := m.record(id)
	if !ok {
		if useDefault {
			return nil, nil
		}
		return nil, errors.Wrapf(ivmap.ErrIdNotFound, "ilistmap: id %d", id)
	}
	var out []ivmap.Interval
	for k := 0; k < int(r.n); k++ {
		e := r.at(k)
		if admitted(e, mask, value) {
			out = append(out, e.Interval())
		}
	}
	return out, nil
}

// GetIntervalsWithPayload returns every entry of id, unfiltered.
func (m *IListMap) GetIntervalsWithPayload(id uint32, useDefault bool) ([]Entry, error) {
	r, ok := m.record(id)
	if !ok {
		if useDefault {
			return nil, nil
		}
		return nil, errors.Wrapf(ivmap.ErrIdNotFound, "ilistmap: id %d", id)
	}
	out := make([]Entry, r.n)
	for k := range out {
		out[k] = r.at(k)
	}
	return out, nil
}

// Sum returns the sum, over every id in the store, of the lengths of every
// entry admitted by (mask, value), accumulated in a 64-bit integer.
func (m *IListMap) Sum(mask, value uint64) int64 {
	var total int64
	for _, id := range m.index.IDs() {
		r, _ := m.record(id)
		for k := 0; k < int(r.n); k++ {
			if e := r.at(k); admitted(e, mask, value) {
				total += e.Interval().Len()
			}
		}
	}
	return total
}

// IsContained reports whether some admitted entry of id satisfies
// a <= v < b. Because entries are not disjoint, every admitted entry whose
// a lies in [v - search_window, v] must be examined; search_window is
// clamped up to the record's own tracked maximum entry length first.
func (m *IListMap) IsContained(id uint32, v uint32, mask, value uint64, useDefault bool, searchWindow uint32) (bool, error) {
	r, ok := m.record(id)
	if !ok {
		if useDefault {
			return false, nil
		}
		return false, errors.Wrapf(ivmap.ErrIdNotFound, "ilistmap: id %d", id)
	}
	window := r.effectiveWindow(searchWindow)
	var lowA uint32
	if v > window {
		lowA = v - window
	}
	for k := r.lowerBoundA(lowA); k < int(r.n); k++ {
		e := r.at(k)
		if e.A > v {
			break
		}
		if admitted(e, mask, value) && v < e.B {
			return true, nil
		}
	}
	return false, nil
}

func validateProbes(probes []ivmap.Interval) error {
	for _, p := range probes {
		if p.B <= p.A {
			return errors.Wrapf(ivmap.ErrInvalidArgument, "ilistmap: probe [%d,%d)", p.A, p.B)
		}
	}
	return nil
}

// Intersect returns, for each probe in input order, the non-empty
// intersections of that probe against id's admitted entries, walked in
// ascending-a order starting from the first entry whose a lies at or after
// probe.A minus the record's effective search window (spec.md §4.3). No
// deoverlapping is performed at this layer.
func (m *IListMap) Intersect(id uint32, probes []ivmap.Interval, mask, value uint64, useDefault bool) ([]ivmap.Interval, error) {
	if err := validateProbes(probes); err != nil {
		return nil, err
	}
	r, ok := m.record(id)
	if !ok {
		if useDefault {
			return nil, nil
		}
		return nil, errors.Wrapf(ivmap.ErrIdNotFound, "ilistmap: id %d", id)
	}
	var out []ivmap.Interval
	window := r.effectiveWindow(0)
	for _, p := range probes {
		var lowA uint32
		if p.A > window {
			lowA = p.A - window
		}
		for k := r.lowerBoundA(lowA); k < int(r.n); k++ {
			e := r.at(k)
			if e.A >= p.B {
				break
			}
			if !admitted(e, mask, value) {
				continue
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
func (m *IListMap) IntersectSum(id uint32, probes []ivmap.Interval, mask, value uint64, useDefault bool) (int64, error) {
	if err := validateProbes(probes); err != nil {
		return 0, err
	}
	r, ok := m.record(id)
	if !ok {
		if useDefault {
			return 0, nil
		}
		return 0, errors.Wrapf(ivmap.ErrIdNotFound, "ilistmap: id %d", id)
	}
	var total int64
	window := r.effectiveWindow(0)
	for _, p := range probes {
		var lowA uint32
		if p.A > window {
			lowA = p.A - window
		}
		for k := r.lowerBoundA(lowA); k < int(r.n); k++ {
			e := r.at(k)
			if e.A >= p.B {
				break
			}
			if !admitted(e, mask, value) {
				continue
			}
			lo, hi := maxU32(p.A, e.A), minU32(p.B, e.B)
			if lo < hi {
				total += int64(hi) - int64(lo)
			}
		}
	}
	return total, nil
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
