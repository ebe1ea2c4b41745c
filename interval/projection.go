package interval

import (
	"github.com/grailbio/ivmap"
	"github.com/grailbio/ivmap/ilistmap"
)

// IListProjection adapts one ilistmap.IListMap, filtered by (mask, value),
// into a View: spec.md §4.4(a). Every materialised interval list is
// deoverlapped with fuzz before being returned.
type IListProjection struct {
	m            *ilistmap.IListMap
	mask, value  uint64
	searchWindow uint32
	fuzz         uint32
}

// NewIListProjection builds the projection. searchWindow is forwarded
// verbatim to the underlying IsContained call, which itself clamps it up to
// the record's tracked maximum entry length (ilistmap.IListMap.IsContained).
func NewIListProjection(m *ilistmap.IListMap, mask, value uint64, searchWindow, fuzz uint32) *IListProjection {
	return &IListProjection{m: m, mask: mask, value: value, searchWindow: searchWindow, fuzz: fuzz}
}

func (p *IListProjection) Len() int            { return p.m.Len() }
func (p *IListProjection) GetIDs() []uint32    { return p.m.GetIDs() }
func (p *IListProjection) HasID(id uint32) bool { return p.m.HasID(id) }

func (p *IListProjection) GetIntervals(id uint32, useDefault bool) ([]ivmap.Interval, error) {
	ivs, err := p.m.GetIntervals(id, p.mask, p.value, useDefault)
	if err != nil {
		return nil, err
	}
	return Deoverlap(ivs, p.fuzz), nil
}

func (p *IListProjection) IsContained(id uint32, v uint32, useDefault bool) (bool, error) {
	return p.m.IsContained(id, v, p.mask, p.value, useDefault, p.searchWindow)
}

func (p *IListProjection) Intersect(id uint32, probes []ivmap.Interval, useDefault bool) ([]ivmap.Interval, error) {
	ivs, err := p.m.Intersect(id, probes, p.mask, p.value, useDefault)
	if err != nil {
		return nil, err
	}
	return Deoverlap(ivs, p.fuzz), nil
}

func (p *IListProjection) IntersectSum(id uint32, probes []ivmap.Interval, useDefault bool) (int64, error) {
	ivs, err := p.Intersect(id, probes, useDefault)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, iv := range ivs {
		total += iv.Len()
	}
	return total, nil
}

// Sum sums, over every id, the deoverlapped length of every entry --
// unfiltered (mask=0, value=0), per spec.md §4.4(a).
func (p *IListProjection) Sum() int64 {
	var total int64
	for _, id := range p.m.GetIDs() {
		ivs, _ := p.m.GetIntervals(id, 0, 0, false)
		for _, iv := range Deoverlap(ivs, p.fuzz) {
			total += iv.Len()
		}
	}
	return total
}
