package interval

import (
	"fmt"
	"math"
	"sort"
)

// PosType is TargetSet's coordinate type.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// WholeContig is the interval used for a target that names a contig without
// coordinates.
var WholeContig = Interval{Start: 1, End: PosTypeMax - 1}

// Interval is a 1-based closed interval [Start, End].
type Interval struct {
	Start, End PosType
}

// String implements fmt.Stringer.
func (iv Interval) String() string {
	return fmt.Sprintf("[%d, %d]", iv.Start, iv.End)
}

// searchPosType returns the index of x in a[], or the position where x would
// be inserted if x isn't in a (this could be len(a)).  It's exactly the same
// as sort.SearchInts(), except for PosType.
func searchPosType(a []PosType, x PosType) int {
	return sort.Search(len(a), func(i int) bool { return a[i] >= x })
}

// TargetSet is a collection of length-2N endpoint sequences, one per contig,
// where N is the number of intervals on that contig.  The start of interval #k
// (numbering from zero) is in element [2k] and its end in element [2k+1], and
// the intervals are stored in increasing order.  Since intervals are closed and
// disjoint, a[2k] <= a[2k+1] < a[2k+2].
//
// A TargetSet is immutable after construction and safe for concurrent use.
type TargetSet struct {
	// nameMap is a contig-keyed map with disjoint-interval-set values.  A
	// contig that was configured with an empty interval list maps to an empty
	// (non-nil) slice.
	nameMap map[string][]PosType
}

// NewTargetSet builds a TargetSet from per-contig interval lists.  Intervals
// need not be sorted, but they must be valid (1 <= Start <= End < PosTypeMax)
// and must not overlap; an error is returned otherwise.
func NewTargetSet(regions map[string][]Interval) (TargetSet, error) {
	set := TargetSet{nameMap: make(map[string][]PosType, len(regions))}
	for contig, ivs := range regions {
		if contig == "" {
			return TargetSet{}, fmt.Errorf("interval.NewTargetSet: empty contig name")
		}
		sorted := append([]Interval(nil), ivs...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
		endpoints := make([]PosType, 0, 2*len(sorted))
		for i, iv := range sorted {
			if iv.Start < 1 || iv.End < iv.Start || iv.End >= PosTypeMax {
				return TargetSet{}, fmt.Errorf("interval.NewTargetSet: invalid interval %v on %s", iv, contig)
			}
			if i > 0 && iv.Start <= sorted[i-1].End {
				return TargetSet{}, fmt.Errorf("interval.NewTargetSet: overlapping intervals %v and %v on %s", sorted[i-1], iv, contig)
			}
			endpoints = append(endpoints, iv.Start, iv.End)
		}
		set.nameMap[contig] = endpoints
	}
	return set, nil
}

// Has reports whether contig was configured, even with no intervals.
func (s TargetSet) Has(contig string) bool {
	_, ok := s.nameMap[contig]
	return ok
}

// Intersects checks whether the closed interval [start, end] on contig shares
// at least one position with the set.  Touching endpoints count.
func (s TargetSet) Intersects(contig string, start, end PosType) bool {
	endpoints := s.nameMap[contig]
	if len(endpoints) == 0 || end < start {
		return false
	}
	idx := searchPosType(endpoints, start)
	if idx == len(endpoints) {
		// start is beyond the last interval.
		return false
	}
	if idx&1 == 1 || endpoints[idx] == start {
		// start lies inside interval idx/2, or on its start boundary.
		return true
	}
	// start precedes interval idx/2; overlap iff the query reaches it.
	return endpoints[idx] <= end
}

// ContainsByName checks whether the single position pos on contig is inside
// the set.
func (s TargetSet) ContainsByName(contig string, pos PosType) bool {
	return s.Intersects(contig, pos, pos)
}

// Intervals returns the (sorted) intervals configured for contig.
func (s TargetSet) Intervals(contig string) []Interval {
	endpoints := s.nameMap[contig]
	ivs := make([]Interval, len(endpoints)/2)
	for i := range ivs {
		ivs[i] = Interval{endpoints[2*i], endpoints[2*i+1]}
	}
	return ivs
}

// Contigs returns the configured contig names in sorted order.
func (s TargetSet) Contigs() []string {
	names := make([]string, 0, len(s.nameMap))
	for name := range s.nameMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TotalBases returns the number of positions covered by the set.
func (s TargetSet) TotalBases() int64 {
	var n int64
	for _, endpoints := range s.nameMap {
		for i := 0; i < len(endpoints); i += 2 {
			n += int64(endpoints[i+1]-endpoints[i]) + 1
		}
	}
	return n
}

// MergeIntervals sorts ivs and merges overlapping or touching intervals,
// returning a list suitable for NewTargetSet.  ivs is reordered in place.
func MergeIntervals(ivs []Interval) []Interval {
	if len(ivs) < 2 {
		return ivs
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start < ivs[j].Start })
	merged := make([]Interval, 0, len(ivs))
	cur := ivs[0]
	for _, iv := range ivs[1:] {
		if int64(iv.Start) <= int64(cur.End)+1 {
			if iv.End > cur.End {
				cur.End = iv.End
			}
			continue
		}
		merged = append(merged, cur)
		cur = iv
	}
	return append(merged, cur)
}
