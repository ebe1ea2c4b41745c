// Package interval implements the composition layer of spec.md §4.4: a set
// of adapters that each expose the same logical-ISetMap operation set
// (len, get_ids, has_id, sum, get_intervals, is_contained, intersect,
// intersect_sum) over something that isn't literally an isetmap.ISetMap —
// a payload-filtered ilistmap.IListMap, a union of several such filtered
// views, a subset of an ISetMap restricted to an explicit id set, or the
// intersection of several ISetMaps.
//
// IListProjection and Union run every materialised interval list they
// return through Deoverlap, so their results never contain touching or
// overlapping runs regardless of how "loose" the underlying IListMap entries
// are. Subset and Intersection do not deoverlap: they return the lists their
// constituent views' GetIntervals and Intersect produce, unchanged.
package interval
