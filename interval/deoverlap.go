package interval

import "github.com/grailbio/ivmap"

// Deoverlap consumes a sequence already sorted by A ascending and merges any
// two runs that overlap, touch, or lie within fuzz of each other, per
// spec.md §4.4: given the last emitted [x, y) and the next [p, q), merge iff
// min(y, q) + fuzz >= max(x, p); the merged interval is [min(x, p), max(y,
// q)). fuzz = 0 merges only on true overlap or touch.
//
// Idempotent: running Deoverlap on its own output is a no-op, since the
// output is already strictly non-overlapping and no fuzz window can pull
// already-separated runs back together.
func Deoverlap(in []ivmap.Interval, fuzz uint32) []ivmap.Interval {
	if len(in) == 0 {
		return nil
	}
	out := make([]ivmap.Interval, 0, len(in))
	out = append(out, in[0])
	for _, cur := range in[1:] {
		last := &out[len(out)-1]
		x, y := int64(last.A), int64(last.B)
		p, q := int64(cur.A), int64(cur.B)
		if min64(y, q)+int64(fuzz) >= max64(x, p) {
			last.A = minU32(last.A, cur.A)
			last.B = maxU32(last.B, cur.B)
			continue
		}
		out = append(out, cur)
	}
	return out
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
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
