package interval

import (
	"sort"

	"github.com/grailbio/ivmap"
)

// mergeByA concatenates lists, each already sorted by A ascending, and
// returns a single sequence sorted by A. Ties preserve the order in which
// the constituent lists were supplied, matching the "walk constituents in
// order" contract of the union adapter (spec.md §4.4b).
func mergeByA(lists ...[]ivmap.Interval) []ivmap.Interval {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make([]ivmap.Interval, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].A < out[j].A })
	return out
}
