package interval

import "github.com/grailbio/ivmap"

// Subset restricts a base View to an explicit admissible id set: spec.md
// §4.4(c). Ids outside the admissible set behave as if absent from the
// store, regardless of what the base view actually holds for them.
type Subset struct {
	base       View
	admissible map[uint32]struct{}
}

// NewSubset builds a Subset of base restricted to admissibleIDs.
func NewSubset(base View, admissibleIDs []uint32) *Subset {
	set := make(map[uint32]struct{}, len(admissibleIDs))
	for _, id := range admissibleIDs {
		set[id] = struct{}{}
	}
	return &Subset{base: base, admissible: set}
}

func (s *Subset) admitted(id uint32) bool {
	_, ok := s.admissible[id]
	return ok
}

func (s *Subset) Len() int {
	return len(s.GetIDs())
}

func (s *Subset) GetIDs() []uint32 {
	var out []uint32
	for _, id := range s.base.GetIDs() {
		if s.admitted(id) {
			out = append(out, id)
		}
	}
	return out
}

func (s *Subset) HasID(id uint32) bool {
	return s.admitted(id) && s.base.HasID(id)
}

func (s *Subset) GetIntervals(id uint32, useDefault bool) ([]ivmap.Interval, error) {
	if !s.admitted(id) {
		if useDefault {
			return nil, nil
		}
		return nil, errIdNotFound(id)
	}
	return s.base.GetIntervals(id, useDefault)
}

func (s *Subset) IsContained(id uint32, v uint32, useDefault bool) (bool, error) {
	if !s.admitted(id) {
		if useDefault {
			return false, nil
		}
		return false, errIdNotFound(id)
	}
	return s.base.IsContained(id, v, useDefault)
}

func (s *Subset) Intersect(id uint32, probes []ivmap.Interval, useDefault bool) ([]ivmap.Interval, error) {
	if !s.admitted(id) {
		if useDefault {
			return nil, nil
		}
		return nil, errIdNotFound(id)
	}
	return s.base.Intersect(id, probes, useDefault)
}

func (s *Subset) IntersectSum(id uint32, probes []ivmap.Interval, useDefault bool) (int64, error) {
	if !s.admitted(id) {
		if useDefault {
			return 0, nil
		}
		return 0, errIdNotFound(id)
	}
	return s.base.IntersectSum(id, probes, useDefault)
}

// Sum sums the lengths of every interval of every admissible id.
func (s *Subset) Sum() int64 {
	var total int64
	for _, id := range s.GetIDs() {
		ivs, _ := s.base.GetIntervals(id, true)
		for _, iv := range ivs {
			total += iv.Len()
		}
	}
	return total
}
