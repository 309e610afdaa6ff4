package readfish

import (
	"sort"

	"github.com/looselab/readfishsum/config"
	"github.com/looselab/readfishsum/encoding/paf"
	"github.com/looselab/readfishsum/interval"
)

// Verdict is the targeting outcome of one read.
type Verdict uint8

const (
	// Exempt reads count towards totals only: reads of control conditions
	// and unassigned reads.
	Exempt Verdict = iota
	// OnTarget reads aligned over a target region of their condition.
	OnTarget
	// OffTarget reads are unmapped or aligned elsewhere.
	OffTarget
)

// String implements fmt.Stringer.
func (v Verdict) String() string {
	switch v {
	case OnTarget:
		return "on-target"
	case OffTarget:
		return "off-target"
	}
	return "exempt"
}

type condition struct {
	name    string
	sel     config.Selector
	control bool
	targets interval.TargetSet
}

// verdict tests rec against the condition's targets.  PAF target coordinates
// are compared as written against the 1-based closed regions, with touching
// endpoints counting as overlap.
func (c *condition) verdict(rec *paf.Record) Verdict {
	if c.control {
		return Exempt
	}
	if !rec.Mapped() {
		return OffTarget
	}
	if c.targets.Intersects(rec.TargetName, clampPos(rec.TargetStart), clampPos(rec.TargetEnd)) {
		return OnTarget
	}
	return OffTarget
}

func clampPos(pos int) interval.PosType {
	if pos >= interval.PosTypeMax {
		return interval.PosTypeMax - 1
	}
	return interval.PosType(pos)
}

// classifier maps read metadata to a condition of one configuration.  It is
// immutable once built.
type classifier struct {
	conds     []*condition
	byBarcode map[string]*condition
	// byChannel is sorted by channel range; ranges are disjoint.
	byChannel []*condition
	barcoded  bool
}

// newClassifier builds a classifier from cfg, which must have passed
// Validate.
func newClassifier(cfg *config.Config) (*classifier, error) {
	c := &classifier{byBarcode: make(map[string]*condition)}
	for _, cc := range cfg.Conditions {
		cond := &condition{name: cc.Name, sel: cc.Selector, control: cc.Targets.Control}
		if !cond.control {
			ts, err := interval.NewTargetSet(cc.Targets.Regions)
			if err != nil {
				return nil, err
			}
			cond.targets = ts
		}
		c.conds = append(c.conds, cond)
		switch cc.Selector.Kind {
		case config.BarcodeSelector:
			c.byBarcode[cc.Selector.Barcode] = cond
			c.barcoded = true
		case config.ChannelSelector:
			c.byChannel = append(c.byChannel, cond)
		}
	}
	sort.Slice(c.byChannel, func(i, j int) bool {
		return c.byChannel[i].sel.MinChannel < c.byChannel[j].sel.MinChannel
	})
	return c, nil
}

// lookup returns the condition claiming md, or nil if none does.  A barcode
// selector wins over a channel range.
func (c *classifier) lookup(md ReadMetadata) *condition {
	if md.HasBarcode {
		if cond, ok := c.byBarcode[md.Barcode]; ok {
			return cond
		}
	}
	i := sort.Search(len(c.byChannel), func(i int) bool {
		return c.byChannel[i].sel.MaxChannel >= md.Channel
	})
	if i < len(c.byChannel) && c.byChannel[i].sel.HasChannel(md.Channel) {
		return c.byChannel[i]
	}
	return nil
}

// classify returns the condition and verdict for a read.  The condition is
// nil for reads that belong in the config.Unassigned bucket.
func (c *classifier) classify(md ReadMetadata, rec *paf.Record) (*condition, Verdict) {
	cond := c.lookup(md)
	if cond == nil {
		return nil, Exempt
	}
	return cond, cond.verdict(rec)
}
