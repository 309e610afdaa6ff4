package config

import (
	"context"
	"io"
	"sort"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/looselab/readfishsum/interval"
	"github.com/pelletier/go-toml/v2"
)

// DefaultChannels is the flowcell size assumed when a TOML file does not set
// "channels" (a MinION flowcell).
const DefaultChannels = 512

// tomlCondition holds the parts of a readfish [[regions]] or [barcodes.X]
// table that matter for summarising.  Decision settings (single_on, min_chunks
// and so on) are ignored.
type tomlCondition struct {
	Name       string      `toml:"name"`
	Control    bool        `toml:"control"`
	MinChannel int         `toml:"min_channel"`
	MaxChannel int         `toml:"max_channel"`
	Targets    interface{} `toml:"targets"`
}

type tomlConfig struct {
	Channels int                      `toml:"channels"`
	Regions  []tomlCondition          `toml:"regions"`
	Barcodes map[string]tomlCondition `toml:"barcodes"`
}

// LoadTOML reads a readfish TOML file from path (any path supported by
// grailbio/base/file) and returns a validated Config.
func LoadTOML(ctx context.Context, path string) (cfg *Config, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "config: opening", path)
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return DecodeTOML(ctx, f.Reader(ctx))
}

// DecodeTOML decodes a readfish TOML document.
//
// Each [[regions]] table becomes a channel-range condition.  Its range is
// taken from min_channel/max_channel when both are set; otherwise channels
// 1..channels are cut into equal contiguous blocks, one per region, in file
// order, and the region is listed in Config.InferredChannels.  readfish itself
// splits channels by flowcell layout, so such blocks can assign reads
// differently; a warning is logged.  Each [barcodes.<key>] table becomes a condition selecting barcode
// <key>.  Targets may be an array of "contig[,start,end[,strand]]" strings or
// the path of a .bed/.csv file.
func DecodeTOML(ctx context.Context, r io.Reader) (*Config, error) {
	var raw tomlConfig
	if err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.E(errors.Invalid, "config: decoding TOML", err)
	}
	if raw.Channels == 0 {
		raw.Channels = DefaultChannels
	}
	if raw.Channels < 0 {
		return nil, invalid("channels must be positive, got", strconv.Itoa(raw.Channels))
	}
	cfg := &Config{}
	nRegion := len(raw.Regions)
	for i, rc := range raw.Regions {
		sel := ChannelRange(rc.MinChannel, rc.MaxChannel)
		if rc.MinChannel == 0 && rc.MaxChannel == 0 {
			sel = ChannelRange(i*raw.Channels/nRegion+1, (i+1)*raw.Channels/nRegion)
			cfg.InferredChannels = append(cfg.InferredChannels, rc.Name)
		}
		cond, err := newCondition(ctx, rc, rc.Name, sel)
		if err != nil {
			return nil, err
		}
		cfg.Conditions = append(cfg.Conditions, cond)
	}
	keys := make([]string, 0, len(raw.Barcodes))
	for key := range raw.Barcodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		bc := raw.Barcodes[key]
		name := bc.Name
		if name == "" {
			name = key
		}
		cond, err := newCondition(ctx, bc, name, Barcode(key))
		if err != nil {
			return nil, err
		}
		cfg.Conditions = append(cfg.Conditions, cond)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.InferredChannels) > 0 {
		log.Error.Printf("config: regions %v have no min_channel/max_channel; assuming contiguous blocks of %d channels, "+
			"which may not match the flowcell layout readfish used", cfg.InferredChannels, raw.Channels/nRegion)
	}
	log.Debug.Printf("config: decoded %d region and %d barcode condition(s)", nRegion, len(keys))
	return cfg, nil
}

func newCondition(ctx context.Context, tc tomlCondition, name string, sel Selector) (Condition, error) {
	cond := Condition{Name: name, Selector: sel}
	if tc.Control {
		cond.Targets = Control()
		return cond, nil
	}
	var (
		regions = map[string][]interval.Interval{}
		err     error
	)
	switch t := tc.Targets.(type) {
	case nil:
	case string:
		regions, err = loadTargetFile(ctx, t)
	case []interface{}:
		strs := make([]string, len(t))
		for i, v := range t {
			s, ok := v.(string)
			if !ok {
				return Condition{}, invalid("condition", name, "has a non-string target")
			}
			strs[i] = s
		}
		regions, err = parseTargetStrings(strs)
	default:
		return Condition{}, invalid("condition", name, "targets must be a list or a file path")
	}
	if err != nil {
		return Condition{}, err
	}
	cond.Targets = Regions(regions)
	return cond, nil
}
