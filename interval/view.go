package interval

import "github.com/grailbio/ivmap"

// View is the logical-ISetMap operation set every composition-layer adapter
// exposes (spec.md §4.4). *isetmap.ISetMap satisfies this interface
// directly, so it can be used wherever a View is expected -- notably as an
// input to Subset and Intersection.
type View interface {
	Len() int
	GetIDs() []uint32
	HasID(id uint32) bool
	Sum() int64
	GetIntervals(id uint32, useDefault bool) ([]ivmap.Interval, error)
	IsContained(id uint32, v uint32, useDefault bool) (bool, error)
	Intersect(id uint32, probes []ivmap.Interval, useDefault bool) ([]ivmap.Interval, error)
	IntersectSum(id uint32, probes []ivmap.Interval, useDefault bool) (int64, error)
}
