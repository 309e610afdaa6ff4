package readfish

import (
	"sort"
)

// ContigSummary holds the totals of one condition's reads aligned to one
// contig.
type ContigSummary struct {
	// Length is the contig length reported by the first alignment to it.
	Length         int
	Reads          int64
	Yield          int64
	OnTargetReads  int64
	OnTargetYield  int64
	OffTargetReads int64
	OffTargetYield int64
	// MeanReadLength is Yield/Reads, or 0 with no reads.
	MeanReadLength float64
	N50            int
}

// ConditionSummary holds the totals of one condition.  Reads of control
// conditions and unassigned reads are not split into on and off target, so
// their OnTarget and OffTarget fields stay zero.  Contigs is nil until a read
// of the condition aligns, and always nil for the unassigned bucket.
type ConditionSummary struct {
	Name string
	// Control is set if the current configuration marks the condition as a
	// control and none of its reads so far was classified on or off target.
	// A condition that was reconfigured from targeted to control after
	// counting targeted reads therefore reports false.
	Control        bool
	Reads          int64
	Yield          int64
	OnTargetReads  int64
	OnTargetYield  int64
	OffTargetReads int64
	OffTargetYield int64
	MeanReadLength float64
	N50            int
	OnTargetN50    int
	OffTargetN50   int
	Contigs        map[string]ContigSummary
}

type counter struct {
	reads int64
	yield int64
}

func (c *counter) add(readLen int) {
	c.reads++
	c.yield += int64(readLen)
}

func (c *counter) mean() float64 {
	if c.reads == 0 {
		return 0
	}
	return float64(c.yield) / float64(c.reads)
}

// tally is a counter that also keeps a histogram of read lengths for N50.
// Its size grows with the number of distinct lengths, not reads.
type tally struct {
	counter
	hist map[int]int64
}

func (t *tally) add(readLen int) {
	t.counter.add(readLen)
	if t.hist == nil {
		t.hist = make(map[int]int64)
	}
	t.hist[readLen]++
}

// n50 returns the length L such that reads of length >= L make up at least
// half of the yield.  It does not modify t.
func (t *tally) n50() int {
	if t.yield == 0 {
		return 0
	}
	lengths := make([]int, 0, len(t.hist))
	for n := range t.hist {
		lengths = append(lengths, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(lengths)))
	var cum int64
	for _, n := range lengths {
		cum += int64(n) * t.hist[n]
		if 2*cum >= t.yield {
			return n
		}
	}
	return 0
}

// split holds totals plus the on/off-target breakdown.
type split struct {
	all, on, off tally
}

func (s *split) add(v Verdict, readLen int) {
	s.all.add(readLen)
	switch v {
	case OnTarget:
		s.on.add(readLen)
	case OffTarget:
		s.off.add(readLen)
	}
}

// contigState reports N50 only over all reads, so its on/off breakdown is
// counts and yields alone.
type contigState struct {
	length  int
	all     tally
	on, off counter
}

func (c *contigState) add(v Verdict, readLen int) {
	c.all.add(readLen)
	switch v {
	case OnTarget:
		c.on.add(readLen)
	case OffTarget:
		c.off.add(readLen)
	}
}

type conditionState struct {
	control bool
	split
	contigs map[string]*contigState
}

// relabel sets the control flag for a (re)configured condition.  It stays
// false once any read has been split on or off target.
func (st *conditionState) relabel(control bool) {
	st.control = control && st.on.reads == 0 && st.off.reads == 0
}

// aggregator owns every per-condition and per-contig counter.  update is its
// only mutator; counters never decrease.
type aggregator struct {
	conds map[string]*conditionState
}

func newAggregator() aggregator {
	return aggregator{conds: make(map[string]*conditionState)}
}

// register makes sure a condition appears in snapshots even before it has
// any reads.
func (a *aggregator) register(name string, control bool) *conditionState {
	st, ok := a.conds[name]
	if !ok {
		st = &conditionState{contigs: make(map[string]*contigState)}
		a.conds[name] = st
	}
	st.relabel(control)
	return st
}

// update counts one read of length readLen in condition name.  contig is the
// target the read aligned to, or "" for unmapped reads and reads that are not
// broken down by contig.
func (a *aggregator) update(name string, control bool, contig string, contigLen int, v Verdict, readLen int) {
	st, ok := a.conds[name]
	if !ok {
		st = a.register(name, control)
	}
	st.add(v, readLen)
	if v != Exempt {
		st.control = false
	}
	if contig == "" {
		return
	}
	c, ok := st.contigs[contig]
	if !ok {
		c = &contigState{length: contigLen}
		st.contigs[contig] = c
	}
	c.add(v, readLen)
}

// snapshot returns a deep copy of the current totals.
func (a *aggregator) snapshot() map[string]ConditionSummary {
	out := make(map[string]ConditionSummary, len(a.conds))
	for name, st := range a.conds {
		cs := ConditionSummary{
			Name:           name,
			Control:        st.control,
			Reads:          st.all.reads,
			Yield:          st.all.yield,
			OnTargetReads:  st.on.reads,
			OnTargetYield:  st.on.yield,
			OffTargetReads: st.off.reads,
			OffTargetYield: st.off.yield,
			MeanReadLength: st.all.mean(),
			N50:            st.all.n50(),
			OnTargetN50:    st.on.n50(),
			OffTargetN50:   st.off.n50(),
		}
		if len(st.contigs) > 0 {
			cs.Contigs = make(map[string]ContigSummary, len(st.contigs))
			for contig, c := range st.contigs {
				cs.Contigs[contig] = ContigSummary{
					Length:         c.length,
					Reads:          c.all.reads,
					Yield:          c.all.yield,
					OnTargetReads:  c.on.reads,
					OnTargetYield:  c.on.yield,
					OffTargetReads: c.off.reads,
					OffTargetYield: c.off.yield,
					MeanReadLength: c.all.mean(),
					N50:            c.all.n50(),
				}
			}
		}
		out[name] = cs
	}
	return out
}
