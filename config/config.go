// Package config describes how a readfish run divides reads into experimental
// conditions, and what each condition was trying to enrich for.
//
// A Config is the resolved, syntax-independent model consumed by the readfish
// package.  LoadTOML builds one from a readfish TOML file.
package config

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/looselab/readfishsum/interval"
)

// Unassigned is the name of the implicit bucket for reads that match no
// condition.  It cannot be used as a condition name.
const Unassigned = "unassigned"

// SelectorKind says how a Condition claims reads.
type SelectorKind uint8

const (
	// NoSelector is the zero value and is rejected by Validate.
	NoSelector SelectorKind = iota
	// BarcodeSelector claims reads demultiplexed to a named barcode.
	BarcodeSelector
	// ChannelSelector claims reads sequenced on a range of channels.
	ChannelSelector
)

// Selector picks the reads belonging to a Condition.  Exactly one of the
// barcode name or channel range is meaningful, depending on Kind.
type Selector struct {
	Kind       SelectorKind
	Barcode    string
	MinChannel int
	MaxChannel int
}

// Barcode returns a selector matching reads with the given barcode.
func Barcode(name string) Selector {
	return Selector{Kind: BarcodeSelector, Barcode: name}
}

// ChannelRange returns a selector matching channels in [min, max].
func ChannelRange(min, max int) Selector {
	return Selector{Kind: ChannelSelector, MinChannel: min, MaxChannel: max}
}

// HasChannel reports whether channel falls in a ChannelSelector's range.
func (s Selector) HasChannel(channel int) bool {
	return s.Kind == ChannelSelector && channel >= s.MinChannel && channel <= s.MaxChannel
}

// String implements fmt.Stringer.
func (s Selector) String() string {
	switch s.Kind {
	case BarcodeSelector:
		return "barcode " + s.Barcode
	case ChannelSelector:
		return fmt.Sprintf("channels %d-%d", s.MinChannel, s.MaxChannel)
	}
	return "no selector"
}

// Targets is either Control (no enrichment objective) or a set of 1-based
// closed regions per contig.
type Targets struct {
	Control bool
	Regions map[string][]interval.Interval
}

// Control returns the Targets of a control condition.
func Control() Targets {
	return Targets{Control: true}
}

// Regions returns Targets for the given contig regions.
func Regions(regions map[string][]interval.Interval) Targets {
	return Targets{Regions: regions}
}

// Condition is a named experimental group of reads.
type Condition struct {
	Name     string
	Selector Selector
	Targets  Targets
}

// Config is the list of conditions of a run.
type Config struct {
	Conditions []Condition
	// InferredChannels names the conditions whose channel range was not given
	// and had to be guessed by DecodeTOML.  Such ranges are contiguous blocks
	// and may not match the physical flowcell layout readfish itself uses.
	InferredChannels []string
}

func invalid(args ...interface{}) error {
	return errors.E(append([]interface{}{errors.Invalid, "config:"}, args...)...)
}

// Validate checks that c is complete and unambiguous: every condition has a
// unique name and a selector, no two conditions can claim the same read, and
// target regions are well formed and disjoint.  All failures have kind
// errors.Invalid.
func (c *Config) Validate() error {
	if len(c.Conditions) == 0 {
		return invalid("no conditions")
	}
	names := make(map[string]bool, len(c.Conditions))
	barcodes := make(map[string]string)
	var ranges []Condition
	for _, cond := range c.Conditions {
		switch {
		case cond.Name == "":
			return invalid("condition with", cond.Selector.String(), "has no name")
		case cond.Name == Unassigned:
			return invalid("condition name", Unassigned, "is reserved")
		case names[cond.Name]:
			return invalid("duplicate condition name", cond.Name)
		}
		names[cond.Name] = true

		sel := cond.Selector
		switch sel.Kind {
		case BarcodeSelector:
			if sel.Barcode == "" {
				return invalid("condition", cond.Name, "has an empty barcode")
			}
			if other, ok := barcodes[sel.Barcode]; ok {
				return invalid("conditions", other, "and", cond.Name, "both select barcode", sel.Barcode)
			}
			barcodes[sel.Barcode] = cond.Name
		case ChannelSelector:
			if sel.MinChannel < 1 || sel.MaxChannel < sel.MinChannel {
				return invalid("condition", cond.Name, "has invalid", sel.String())
			}
			ranges = append(ranges, cond)
		default:
			return invalid("condition", cond.Name, "is missing a selector")
		}

		if cond.Targets.Control {
			if len(cond.Targets.Regions) > 0 {
				return invalid("control condition", cond.Name, "must not have target regions")
			}
		} else if _, err := interval.NewTargetSet(cond.Targets.Regions); err != nil {
			return errors.E(errors.Invalid, "config: condition", cond.Name, err)
		}
	}
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].Selector.MinChannel < ranges[j].Selector.MinChannel
	})
	for i := 1; i < len(ranges); i++ {
		if ranges[i].Selector.MinChannel <= ranges[i-1].Selector.MaxChannel {
			return invalid("conditions", ranges[i-1].Name, "and", ranges[i].Name, "have overlapping channel ranges")
		}
	}
	return nil
}

// Barcoded reports whether any condition selects reads by barcode.
func (c *Config) Barcoded() bool {
	for _, cond := range c.Conditions {
		if cond.Selector.Kind == BarcodeSelector {
			return true
		}
	}
	return false
}
